package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "simple validation error",
			field:    "url",
			message:  "URL is required",
			expected: "validation error on field 'url': URL is required",
		},
		{
			name:     "empty field name",
			field:    "",
			message:  "test message",
			expected: "validation error on field '': test message",
		},
		{
			name:     "empty message",
			field:    "test",
			message:  "",
			expected: "validation error on field 'test': ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{
				Field:   tt.field,
				Message: tt.message,
			}

			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestMissingFieldError_Error(t *testing.T) {
	err := &MissingFieldError{Kind: KindArticleDeleted, Field: "reason"}

	assert.Equal(t, "article_deleted: missing required field: reason", err.Error())
}

func TestMissingFieldError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("format: %w", &MissingFieldError{Kind: KindUserBlocked, Field: "expiry"})

	assert.True(t, errors.Is(err, ErrMissingField))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	var mf *MissingFieldError
	assert.True(t, errors.As(err, &mf))
	assert.Equal(t, KindUserBlocked, mf.Kind)
	assert.Equal(t, "expiry", mf.Field)
}

func TestSentinelErrors_Uniqueness(t *testing.T) {
	assert.NotEqual(t, ErrInvalidInput, ErrMissingField)
	assert.NotEqual(t, ErrInvalidInput, ErrUnknownKind)
	assert.NotEqual(t, ErrMissingField, ErrUnknownKind)
}
