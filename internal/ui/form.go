package ui

import (
	"errors"
	"fmt"
	"maps"
)

var (
	ErrSubmitInFlight = errors.New("submit already in flight")
	ErrUnknownField   = errors.New("unknown form field")
)

// Field describes one input of a form.
type Field struct {
	Name      string
	Default   string
	Sensitive bool
}

// Schema is the fixed, ordered set of fields a form is created from.
type Schema []Field

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Form is the field-value and field-error state of one form instance.
type Form struct {
	schema     Schema
	values     map[string]string
	errors     map[string]string
	processing bool
}

func NewForm(schema Schema) *Form {
	f := &Form{schema: schema}
	f.Reset()
	return f
}

// Reset restores every field to its default and drops all errors.
func (f *Form) Reset() {
	f.values = make(map[string]string, len(f.schema))
	for _, field := range f.schema {
		f.values[field.Name] = field.Default
	}
	f.errors = make(map[string]string)
	f.processing = false
}

// Set updates exactly one field.
func (f *Form) Set(name, value string) error {
	if _, ok := f.schema.field(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.values[name] = value
	return nil
}

func (f *Form) Value(name string) string { return f.values[name] }

func (f *Form) Values() map[string]string { return maps.Clone(f.values) }

func (f *Form) Error(name string) string { return f.errors[name] }

func (f *Form) Errors() map[string]string { return maps.Clone(f.errors) }

func (f *Form) HasErrors() bool { return len(f.errors) > 0 }

// Processing reports whether a submit is in flight; the submit control is
// disabled while it is true.
func (f *Form) Processing() bool { return f.processing }

// Fields returns the schema in display order.
func (f *Form) Fields() Schema { return f.schema }

// Begin marks a submit as in flight and returns the payload to send.
func (f *Form) Begin() (map[string]string, error) {
	if f.processing {
		return nil, ErrSubmitInFlight
	}
	f.processing = true
	return f.Values(), nil
}

// Complete ends the in-flight submit. Sensitive fields are cleared whatever
// the outcome. A non-empty errs replaces the message of every field it names
// and leaves the others alone; an empty errs is a success and drops all
// errors.
func (f *Form) Complete(errs map[string]string) {
	f.processing = false
	for _, field := range f.schema {
		if field.Sensitive {
			f.values[field.Name] = ""
		}
	}
	if len(errs) == 0 {
		f.errors = make(map[string]string)
		return
	}
	for name, msg := range errs {
		f.errors[name] = msg
	}
}

// Submit runs one full submit cycle through send. A transport error ends the
// cycle without field errors and is returned to the caller.
func (f *Form) Submit(send func(values map[string]string) (map[string]string, error)) error {
	payload, err := f.Begin()
	if err != nil {
		return err
	}
	errs, err := send(payload)
	if err != nil {
		f.Complete(nil)
		return err
	}
	f.Complete(errs)
	return nil
}

// Restore rebuilds the state a completed submit left behind on the server
// side of a redirect: non-sensitive old input and the returned errors.
func (f *Form) Restore(old, errs map[string]string) *Form {
	for name, v := range old {
		if field, ok := f.schema.field(name); ok && !field.Sensitive {
			f.values[name] = v
		}
	}
	for name, msg := range errs {
		f.errors[name] = msg
	}
	return f
}
