package views

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/JustinTDCT/moviestore/internal/assets"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/ui"
)

// Hero defaults for fields the featured movie leaves empty.
const (
	DefaultHeroTitle       = "Featured Movie"
	DefaultHeroDescription = "Watch the featured title now."
	DefaultHeroRating      = "TV-14"
	DefaultHeroYear        = "2016"
)

var DefaultHeroGenres = []string{"Drama"}

// Row layout used to size the strip before the browser measures it.
const (
	CardWidth      = 240
	CardGap        = 8
	ViewportWidth  = 1280
	PosterFallback = "/static/img/poster-fallback.svg"
)

type HeroModel struct {
	Phase     ui.HeroPhase
	Movie     Movie
	MediaURL  string
	PosterURL string
	PlayURL   string
	Video     *ui.VideoTag
	Playback  *ui.Playback
}

// NewHero normalises the featured movie. A loading flag or a missing movie
// yields the loading phase; the video field is authoritative with trailer as
// the fallback media.
func NewHero(env Env, raw any, loading bool) (HeroModel, error) {
	movie, ok := MovieFromProp(raw)
	h := HeroModel{Phase: ui.PhaseFor(ok, loading, "")}
	if h.Phase.Loading() {
		return h, nil
	}

	if movie.Title == "" {
		movie.Title = DefaultHeroTitle
	}
	if movie.Description == "" {
		movie.Description = DefaultHeroDescription
	}
	if movie.Rating == "" {
		movie.Rating = DefaultHeroRating
	}
	if movie.Year == "" {
		movie.Year = DefaultHeroYear
	}
	if len(movie.Genres) == 0 {
		movie.Genres = DefaultHeroGenres
	}
	h.Movie = movie
	h.MediaURL = assets.Resolve(movie.Media())
	h.PosterURL = assets.Resolve(movie.Thumbnail)
	h.Phase = ui.PhaseFor(true, false, h.MediaURL)

	if movie.ID != "" {
		u, err := env.Routes.Resolve(routes.Player, map[string]string{"id": movie.ID})
		if err != nil {
			return HeroModel{}, fmt.Errorf("hero play link: %w", err)
		}
		h.PlayURL = u
	}

	var el ui.MediaElement
	if h.Phase == ui.HeroReady {
		h.Video = &ui.VideoTag{Src: h.MediaURL, Poster: h.PosterURL}
		el = h.Video
	}
	h.Playback = ui.NewPlayback(el, env.Logger)
	h.Playback.Autoplay()
	return h, nil
}

type CardModel struct {
	Key          string
	Movie        Movie
	ThumbnailURL string
	PlayURL      string
	Hovered      bool
}

type RowModel struct {
	ID    string
	Title string
	Cards []CardModel
	Strip *ui.Strip
	Hover *ui.Hover
}

// NewRow builds one independent row. id scopes the row's controls to its own
// strip.
func NewRow(env Env, id, title string, movies []Movie) (RowModel, error) {
	r := RowModel{
		ID:    id,
		Title: title,
		Cards: make([]CardModel, 0, len(movies)),
		Hover: &ui.Hover{},
	}
	for i, m := range movies {
		c := CardModel{
			Key:          ui.CardKey(m.ID, i),
			Movie:        m,
			ThumbnailURL: imageOr(m.Thumbnail),
		}
		if m.ID != "" {
			u, err := env.Routes.Resolve(routes.Player, map[string]string{"id": m.ID})
			if err != nil {
				return RowModel{}, fmt.Errorf("card play link: %w", err)
			}
			c.PlayURL = u
		}
		r.Cards = append(r.Cards, c)
	}
	r.Strip = ui.NewStrip(len(movies)*(CardWidth+CardGap), ViewportWidth)
	r.markHovered()
	return r, nil
}

func (r *RowModel) markHovered() {
	for i := range r.Cards {
		r.Cards[i].Hovered = r.Hover.IsHovered(r.Cards[i].Key)
	}
}

// Inert reports whether the scroll controls have nothing to scroll.
func (r RowModel) Inert() bool { return !r.Strip.Overflows() }

// imageOr resolves an image reference, substituting the bundled poster when
// there is none.
func imageOr(ref string) string {
	if u := assets.Resolve(ref); u != "" {
		return u
	}
	return PosterFallback
}

func rowFromProp(env Env, id string, v any) (RowModel, error) {
	raw := cast.ToStringMap(v)
	return NewRow(env, id, cast.ToString(raw["title"]), MoviesFromProp(raw["movies"]))
}

type HomeModel struct {
	Shared
	Hero HeroModel
	Rows []RowModel
}

type HomeView struct{}

func (HomeView) Name() string { return "Home" }

func (HomeView) Normalize(env Env, props Props) (any, error) {
	hero, err := NewHero(env, props["randomMovie"], cast.ToBool(props["isLoading"]))
	if err != nil {
		return nil, err
	}
	m := HomeModel{Shared: sharedFromProps(props), Hero: hero}
	playlist, _ := cast.ToSliceE(props["playlist"])
	for i, item := range playlist {
		row, err := rowFromProp(env, fmt.Sprintf("row-%d", i), item)
		if err != nil {
			return nil, err
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

type CategoryModel struct {
	Shared
	Row RowModel
}

type CategoryView struct{}

func (CategoryView) Name() string { return "Category" }

func (CategoryView) Normalize(env Env, props Props) (any, error) {
	row, err := rowFromProp(env, "row-0", props["category"])
	if err != nil {
		return nil, err
	}
	return CategoryModel{Shared: sharedFromProps(props), Row: row}, nil
}

type PlayerModel struct {
	Shared
	Movie     Movie
	Available bool
	VideoURL  string
	PosterURL string
}

type PlayerView struct{}

func (PlayerView) Name() string { return "Player" }

func (PlayerView) Normalize(_ Env, props Props) (any, error) {
	m := PlayerModel{Shared: sharedFromProps(props)}
	movie, ok := MovieFromProp(props["movie"])
	if !ok {
		return m, nil
	}
	m.Movie = movie
	m.VideoURL = assets.Resolve(movie.Media())
	m.PosterURL = assets.Resolve(movie.Thumbnail)
	m.Available = m.VideoURL != ""
	return m, nil
}

type WelcomeModel struct {
	Shared
	CanLogin    bool
	CanRegister bool
	HeroImage   string
	Fallback    string
}

type WelcomeView struct{}

func (WelcomeView) Name() string { return "Welcome" }

func (WelcomeView) Normalize(_ Env, props Props) (any, error) {
	return WelcomeModel{
		Shared:      sharedFromProps(props),
		CanLogin:    cast.ToBool(props["canLogin"]),
		CanRegister: cast.ToBool(props["canRegister"]),
		HeroImage:   imageOr(cast.ToString(props["heroImage"])),
		Fallback:    PosterFallback,
	}, nil
}
