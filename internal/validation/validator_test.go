package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(signup{Email: "a@b.co", Username: "casey"}))

	err := Struct(signup{Email: "nope", Username: "ab"})
	require.Error(t, err)

	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, FieldError{Field: "email", Rule: "email"}, verrs[0])
	assert.Equal(t, FieldError{Field: "username", Rule: "min", Param: "3"}, verrs[1])
	assert.Contains(t, err.Error(), "username: min=3")
}
