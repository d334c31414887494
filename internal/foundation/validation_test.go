package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

type sample struct {
	Name    string
	Workers int
}

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(
		Required("name", func(s sample) string { return s.Name }),
	).Add(NonNegative("workers", func(s sample) int { return s.Workers }))

	assert.Empty(t, chain.Validate(sample{Name: "x", Workers: 0}))

	failures := chain.Validate(sample{Name: "  ", Workers: -2})
	require.Len(t, failures, 2)
	assert.Equal(t, "required", failures[0].Code)
	assert.Equal(t, "non_negative", failures[1].Code)
	assert.Equal(t, -2, failures[1].Value)
	assert.Equal(t, "field 'workers': must not be negative", failures[1].Error())
}

func TestToError(t *testing.T) {
	require.NoError(t, ToError(errors.CategoryConfig, nil))

	err := ToError(errors.CategoryConfig, []FieldError{
		{Field: "a", Message: "bad"},
		{Message: "worse"},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "field 'a': bad; worse")

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	field, _ := ce.Context().GetString("field")
	assert.Equal(t, "a", field)
}
