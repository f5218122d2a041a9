package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Check(true, "title", "must be provided")
	assert.True(t, v.Valid())

	v.Check(false, "content", "must be provided")
	v.Check(false, "content", "must not be more than 5000 characters long")
	assert.False(t, v.Valid())

	err := v.ValidationError()

	var validationErr ValidationError
	assert.True(t, errors.As(err, &validationErr))
	// only the first message per field is kept
	assert.Equal(t, map[string]string{"content": "must be provided"}, validationErr.Errors)
}

func TestValidator_CheckStringLength(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.CheckStringLength("héllo", 5, 5))
	assert.False(t, v.CheckStringLength("hi", 3, 10))
	assert.False(t, v.CheckStringLength("this is too long", 1, 4))
}
