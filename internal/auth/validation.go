package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// fieldErrors collects one message per field; the first failing rule wins.
type fieldErrors map[string]string

func (e fieldErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e fieldErrors) any() bool { return len(e) > 0 }

func (e fieldErrors) required(form map[string]string, fields ...string) {
	for _, f := range fields {
		if form[f] == "" {
			e.add(f, fmt.Sprintf("The %s field is required.", label(f)))
		}
	}
}

func (e fieldErrors) email(form map[string]string, field string) {
	v := form[field]
	if v == "" {
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		e.add(field, fmt.Sprintf("The %s field must be a valid email address.", label(field)))
	}
}

func (e fieldErrors) max(form map[string]string, field string, n int) {
	if utf8.RuneCountInString(form[field]) > n {
		e.add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), n))
	}
}

// password checks the length and that password_confirmation matches.
func (e fieldErrors) password(form map[string]string) {
	p := form["password"]
	if p == "" {
		return
	}
	if ValidatePassword(p, MinPasswordLength, false) != nil {
		e.add("password", fmt.Sprintf("The password field must be at least %d characters.", MinPasswordLength))
		return
	}
	if form["password_confirmation"] != p {
		e.add("password", "The password field confirmation does not match.")
	}
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// oldInput is the submitted input worth showing again; secrets are dropped.
func oldInput(form map[string]string) map[string]string {
	old := make(map[string]string, len(form))
	for k, v := range form {
		if strings.Contains(k, "password") || k == "token" {
			continue
		}
		old[k] = v
	}
	return old
}
