package confopts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyFormat indicates a malformed configuration key.
	ErrKeyFormat = errors.New("invalid configuration key")

	// ErrProviderLoad indicates a provider failed to produce a snapshot. A
	// rebuild that hits this error is abandoned and the previous merged view
	// stays in place.
	ErrProviderLoad = errors.New("provider snapshot failed")

	// ErrNotRegistered indicates a resolve for a (type, name) pair that was
	// never registered.
	ErrNotRegistered = errors.New("options not registered")

	// ErrAlreadyRegistered indicates a duplicate registration for the same
	// (type, name) pair.
	ErrAlreadyRegistered = errors.New("options already registered")

	// ErrScopeClosed indicates a resolve through a scope whose snapshots have
	// already been discarded.
	ErrScopeClosed = errors.New("scope closed")

	// ErrScopeRequired indicates a resolve of per-scope options without a scope.
	ErrScopeRequired = errors.New("per-scope options require a scope")
)

// MissingKeyError reports a required field whose key is absent from the
// merged view.
type MissingKeyError struct {
	Field string
	Key   string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("required field %s: key %q not found", e.Field, e.Key)
}

// ConversionError reports a raw value that could not be converted to the
// field's declared kind.
type ConversionError struct {
	Field string
	Key   string
	Value string
	Kind  FieldKind
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("field %s: cannot convert %q at key %q to %s: %v",
		e.Field, e.Value, e.Key, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// BindingError aggregates every problem found during one bind pass. A bind
// never stops at the first failure; all missing keys and conversion errors
// for the subtree surface together.
type BindingError struct {
	Prefix string
	Type   string
	Errs   []error
}

func (e *BindingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "binding %s at %q failed with %d error(s):", e.Type, e.Prefix, len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *BindingError) Unwrap() []error { return e.Errs }

func (e *BindingError) add(err error) { e.Errs = append(e.Errs, err) }

// ValidationError aggregates validator failures for one bound instance,
// tagged with the option's name.
type ValidationError struct {
	Name     string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation of options %q failed: %s", e.Name, strings.Join(e.Messages, "; "))
}
