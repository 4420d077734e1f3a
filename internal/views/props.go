package views

import (
	"sort"

	"github.com/spf13/cast"
)

// Movie is the view-model of one title. Every field is a display string.
type Movie struct {
	ID          string
	Title       string
	Description string
	Thumbnail   string
	Video       string
	Trailer     string
	Rating      string
	Year        string
	Genres      []string
}

// Media returns the playable reference: video when set, trailer otherwise.
func (m Movie) Media() string {
	if m.Video != "" {
		return m.Video
	}
	return m.Trailer
}

// MovieFromProp reads a movie out of a decoded props value. ok is false when
// v is not an object.
func MovieFromProp(v any) (m Movie, ok bool) {
	raw, err := cast.ToStringMapE(v)
	if err != nil {
		return Movie{}, false
	}
	m = Movie{
		ID:          cast.ToString(raw["id"]),
		Title:       cast.ToString(raw["title"]),
		Description: cast.ToString(raw["description"]),
		Thumbnail:   cast.ToString(raw["thumbnail"]),
		Video:       cast.ToString(raw["video"]),
		Trailer:     cast.ToString(raw["trailer"]),
		Rating:      cast.ToString(raw["rating"]),
		Year:        cast.ToString(raw["release_year"]),
		Genres:      cast.ToStringSlice(raw["genres"]),
	}
	if m.Description == "" {
		m.Description = cast.ToString(raw["overview"])
	}
	if m.Year == "0" {
		m.Year = ""
	}
	return m, true
}

// MoviesFromProp reads a list of movies, skipping entries that are not
// objects. Order is preserved.
func MoviesFromProp(v any) []Movie {
	items, err := cast.ToSliceE(v)
	if err != nil {
		return nil
	}
	out := make([]Movie, 0, len(items))
	for _, item := range items {
		if m, ok := MovieFromProp(item); ok {
			out = append(out, m)
		}
	}
	return out
}

// Option is one entry of a select input.
type Option struct {
	Value string
	Label string
}

// OptionsFromProp turns a key → label object into options ordered by key,
// numerically when every key is a number.
func OptionsFromProp(v any) []Option {
	raw := cast.ToStringMapString(v)
	keys := make([]string, 0, len(raw))
	nums := make(map[string]int, len(raw))
	for k := range raw {
		keys = append(keys, k)
		if n, err := cast.ToIntE(k); err == nil {
			nums[k] = n
		}
	}
	if len(nums) == len(keys) {
		sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
	} else {
		sort.Strings(keys)
	}
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		out = append(out, Option{Value: k, Label: raw[k]})
	}
	return out
}

// User is the authenticated user as shared with every view.
type User struct {
	ID       string
	Name     string
	Email    string
	IsAdmin  bool
	Verified bool
}

// Shared is the part of the props every page receives.
type Shared struct {
	User   *User
	Errors map[string]string
	Status string
	Old    map[string]string
}

func sharedFromProps(props Props) Shared {
	s := Shared{
		Errors: cast.ToStringMapString(props["errors"]),
		Old:    cast.ToStringMapString(props["old"]),
	}
	if flash := cast.ToStringMap(props["flash"]); flash != nil {
		s.Status = cast.ToString(flash["status"])
	}
	if auth := cast.ToStringMap(props["auth"]); auth != nil {
		if u := cast.ToStringMap(auth["user"]); len(u) > 0 {
			s.User = &User{
				ID:       cast.ToString(u["id"]),
				Name:     cast.ToString(u["name"]),
				Email:    cast.ToString(u["email"]),
				IsAdmin:  cast.ToBool(u["is_admin"]),
				Verified: cast.ToBool(u["verified"]),
			}
		}
	}
	return s
}

// str returns props[key] as a string, or def when it is missing or empty.
func str(props Props, key, def string) string {
	if s := cast.ToString(props[key]); s != "" {
		return s
	}
	return def
}
