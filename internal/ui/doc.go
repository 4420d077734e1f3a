// Package ui holds the interaction state owned by individual components:
// form field values and errors, the hovered card of a movie row, the scroll
// offset of a row strip and the mute/overlay flags of the hero media.
//
// Each value belongs to exactly one component instance and is mutated only
// by that instance's handlers, so none of the types here lock.
//
// # Forms
//
// A [Form] is built from a fixed [Schema]. [Form.Set] changes one field at a
// time. A submit is bracketed by [Form.Begin] and [Form.Complete]; a second
// Begin while one is outstanding fails with [ErrSubmitInFlight]. Complete
// always clears the schema's sensitive fields, whatever the outcome.
//
// # Rows
//
// A row owns one [Hover]; its cards only report enter and leave. The last
// enter wins, and a leave for a key that is no longer hovered is ignored.
package ui
