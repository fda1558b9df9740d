package validator

import (
	"testing"

	domainerrors "stampauth/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `validate:"required,email"`
	Name  string `validate:"max=5"`
}

func TestValidator(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Email: "a@x.com", Name: "abc"}))

	err := v.Validate(&sample{Name: "toolong"})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email: required; name: max=5", appErr.Details())
}
