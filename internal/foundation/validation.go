// Package foundation holds small generic building blocks shared across
// packages.
package foundation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Validator checks one aspect of a value and reports every violation.
type Validator[T any] func(T) []FieldError

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// ValidatorChain runs validators in order and collects all failures.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) []FieldError {
	var all []FieldError
	for _, v := range vc.validators {
		all = append(all, v(value)...)
	}
	return all
}

// Required fails when get returns an empty string.
func Required[T any](field string, get func(T) string) Validator[T] {
	return func(value T) []FieldError {
		if strings.TrimSpace(get(value)) == "" {
			return []FieldError{{Field: field, Code: "required", Message: "must be set"}}
		}
		return nil
	}
}

// NonNegative fails when get returns a negative number.
func NonNegative[T any](field string, get func(T) int) Validator[T] {
	return func(value T) []FieldError {
		if n := get(value); n < 0 {
			return []FieldError{{Field: field, Code: "non_negative", Message: "must not be negative", Value: n}}
		}
		return nil
	}
}

// ToError folds failures into one classified error of the given category,
// or returns nil when there are none. The first failing field is recorded
// in the error context.
func ToError(category errors.ErrorCategory, failures []FieldError) error {
	if len(failures) == 0 {
		return nil
	}
	messages := make([]string, 0, len(failures))
	for _, f := range failures {
		messages = append(messages, f.Error())
	}
	b := errors.NewError(category, strings.Join(messages, "; ")).
		WithContext("field", failures[0].Field)
	if failures[0].Value != nil {
		b = b.WithContext("value", failures[0].Value)
	}
	return b.Build()
}
