package movies

import (
	"context"
	"fmt"
)

type seedRow struct {
	slug, title string
	movies      []Movie
}

var sampleCatalog = []seedRow{
	{"trending", "Trending Now", []Movie{
		{Title: "Big Buck Bunny", Description: "A giant rabbit takes revenge on three bullying rodents.", Thumbnail: "https://upload.wikimedia.org/wikipedia/commons/c/c5/Big_buck_bunny_poster_big.jpg", Video: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4", Rating: "TV-G", ReleaseYear: 2008, Genres: []string{"Animation", "Comedy"}},
		{Title: "Sintel", Description: "A lonely girl searches for the baby dragon she once rescued.", Video: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4", Rating: "TV-14", ReleaseYear: 2010, Genres: []string{"Animation", "Fantasy"}},
		{Title: "Tears of Steel", Description: "Scientists in Amsterdam try to save the world from robots.", Video: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4", Rating: "TV-14", ReleaseYear: 2012, Genres: []string{"Sci-Fi"}},
	}},
	{"shorts", "Short Films", []Movie{
		{Title: "Elephants Dream", Description: "Two people explore a surreal, ever-changing machine.", Video: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4", Rating: "TV-PG", ReleaseYear: 2006, Genres: []string{"Animation", "Sci-Fi"}},
		{Title: "For Bigger Blazes", Description: "A short promotional clip.", Trailer: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4", Rating: "TV-G", ReleaseYear: 2013, Genres: []string{"Short"}},
	}},
	{"coming-soon", "Coming Soon", nil},
}

// Seed fills an empty catalogue with sample titles and rows. A catalogue that
// already has movies is left alone.
func Seed(ctx context.Context, r *Repository) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for i, row := range sampleCatalog {
		c := &Category{Slug: row.slug, Title: row.title, SortOrder: i}
		if err := r.CreateCategory(ctx, c); err != nil {
			return created, fmt.Errorf("seed %s: %w", row.slug, err)
		}
		for _, m := range row.movies {
			if err := r.Create(ctx, &m); err != nil {
				return created, fmt.Errorf("seed %s: %w", m.Title, err)
			}
			if err := r.AddToCategory(ctx, c.ID, m.ID); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}
