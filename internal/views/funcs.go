package views

import (
	"errors"
	"html/template"
	"strings"

	"github.com/JustinTDCT/moviestore/internal/assets"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/ui"
)

func (a *App) funcs() template.FuncMap {
	return template.FuncMap{
		"route": func(name string, kv ...string) (string, error) {
			params, err := routes.Pairs(kv...)
			if err != nil {
				return "", err
			}
			return a.opts.Routes.Resolve(name, params)
		},
		"asset":      assets.Resolve,
		"join":       strings.Join,
		"scrollStep": func() int { return ui.ScrollStep },
		"dict":       dict,
	}
}

// dict builds a map from alternating keys and values so partials can take
// more than one argument.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs key/value pairs")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
