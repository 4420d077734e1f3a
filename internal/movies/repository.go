package movies

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const movieColumns = `m.id, m.title, m.description, m.thumbnail, m.video, m.trailer, m.rating, m.release_year, m.genres, m.created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *Movie) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	genres, err := json.Marshal(m.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	m.CreatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO movies (id, title, description, thumbnail, video, trailer, rating, release_year, genres, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.Title, m.Description, m.Thumbnail, m.Video, m.Trailer, m.Rating,
		m.ReleaseYear, string(genres), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (id, slug, title, sort_order) VALUES ($1, $2, $3, $4)",
		c.ID, c.Slug, c.Title, c.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// AddToCategory appends movieID to the end of the category's row. Adding a
// movie already in the row keeps its position.
func (r *Repository) AddToCategory(ctx context.Context, categoryID, movieID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_movies (category_id, movie_id, position)
		SELECT $1, $2, COALESCE(MAX(position), -1) + 1 FROM category_movies WHERE category_id = $1
		ON CONFLICT (category_id, movie_id) DO NOTHING`,
		categoryID, movieID)
	if err != nil {
		return fmt.Errorf("failed to add movie to category: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Movie, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies m WHERE m.id=$1", id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load movie: %w", err)
	}
	return m, nil
}

// Random returns one movie picked at random, or nil when there are none.
func (r *Repository) Random(ctx context.Context) (*Movie, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies m ORDER BY RANDOM() LIMIT 1")
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick movie: %w", err)
	}
	return m, nil
}

// Categories returns every category with its movies, both in display order.
// Categories without movies are included with an empty row.
func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	cats, err := r.listCategories(ctx, "SELECT id, slug, title, sort_order FROM categories ORDER BY sort_order, title")
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(cats))
	for i, c := range cats {
		index[c.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT cm.category_id, `+movieColumns+`
		FROM category_movies cm JOIN movies m ON m.id = cm.movie_id
		ORDER BY cm.category_id, cm.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category movies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var catID string
		m, err := scanMovie(rows, &catID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category movie: %w", err)
		}
		if i, ok := index[catID]; ok {
			cats[i].Movies = append(cats[i].Movies, *m)
		}
	}
	return cats, rows.Err()
}

func (r *Repository) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	cats, err := r.listCategories(ctx, "SELECT id, slug, title, sort_order FROM categories WHERE slug=$1", slug)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, ErrNotFound
	}
	c := &cats[0]

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM category_movies cm JOIN movies m ON m.id = cm.movie_id
		WHERE cm.category_id = $1 ORDER BY cm.position`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category movies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category movie: %w", err)
		}
		c.Movies = append(c.Movies, *m)
	}
	return c, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count)
	return count, err
}

func (r *Repository) listCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c := Category{Movies: []Movie{}}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanMovie reads movieColumns, preceded by any extra leading columns.
func scanMovie(s scanner, lead ...any) (*Movie, error) {
	m := &Movie{}
	var genres string
	dest := append(lead, &m.ID, &m.Title, &m.Description, &m.Thumbnail, &m.Video,
		&m.Trailer, &m.Rating, &m.ReleaseYear, &genres, &m.CreatedAt)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres of %s: %w", m.ID, err)
	}
	return m, nil
}
