package build

import (
	"errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// ErrNoConverter indicates a resource kind without a configured converter.
var ErrNoConverter = errors.New("no converter configured for resource kind")

// ResourceError is the failure of one unit of work: a resource conversion or
// an aggregate page write. Aggregate pages have a zero Kind.
type ResourceError struct {
	Name string
	Kind resource.Kind
	Err  error
}

func (e ResourceError) Error() string {
	if e.Kind == 0 {
		return fmt.Sprintf("page %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Name, e.Err)
}

func (e ResourceError) Unwrap() error { return e.Err }

// Failures aggregates every unit failure of one build.
type Failures struct {
	Errors []ResourceError
}

func (f *Failures) Error() string {
	if len(f.Errors) == 1 {
		return f.Errors[0].Error()
	}
	msgs := make([]string, len(f.Errors))
	for i, e := range f.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d units failed: %s", len(f.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every member to errors.Is and errors.As.
func (f *Failures) Unwrap() []error {
	errs := make([]error, len(f.Errors))
	for i, e := range f.Errors {
		errs[i] = e
	}
	return errs
}

func (f *Failures) add(name string, kind resource.Kind, err error) {
	f.Errors = append(f.Errors, ResourceError{Name: name, Kind: kind, Err: err})
}
