package movies

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("movie not found")

// Movie JSON keys are the props the browsing views read.
type Movie struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Video       string    `json:"video,omitempty"`
	Trailer     string    `json:"trailer,omitempty"`
	Rating      string    `json:"rating"`
	ReleaseYear int       `json:"release_year,omitempty"`
	Genres      []string  `json:"genres"`
	CreatedAt   time.Time `json:"-"`
}

// Category is a titled row of movies in display order.
type Category struct {
	ID        string  `json:"id"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	SortOrder int     `json:"-"`
	Movies    []Movie `json:"movies"`
}
