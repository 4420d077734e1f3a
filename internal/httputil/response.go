package httputil

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/spf13/cast"
)

type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "ok",
		Data:   data,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// IsJSON reports whether the request body is JSON.
func IsJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// ReadForm returns the submitted fields of a JSON or url-encoded body as a flat
// string map. Only the first value of a repeated form key is kept. Values are
// trimmed except for password fields.
func ReadForm(r *http.Request) (map[string]string, error) {
	out := make(map[string]string)
	if IsJSON(r) {
		var raw map[string]any
		if err := ReadJSON(r, &raw); err != nil {
			return nil, fmt.Errorf("invalid json body: %w", err)
		}
		for k, v := range raw {
			out[k] = cast.ToString(v)
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body: %w", err)
	}
	for k, vs := range r.PostForm {
		if len(vs) == 0 {
			continue
		}
		if strings.Contains(k, "password") {
			out[k] = vs[0]
		} else {
			out[k] = strings.TrimSpace(vs[0])
		}
	}
	return out, nil
}
