package tastypie

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBadHTTPStatusError_Error(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected string
		message  string
	}{
		{
			name:     "plain body",
			body:     []byte("Internal Server Error"),
			expected: "http://h/api/1/entry/1/ returned an invalid status code: 500",
		},
		{
			name:     "tastypie error message",
			body:     []byte(`{"error_message": "Sorry, this request could not be processed."}`),
			expected: "http://h/api/1/entry/1/ returned an invalid status code: 500 (Sorry, this request could not be processed.)",
			message:  "Sorry, this request could not be processed.",
		},
		{
			name:     "empty body",
			expected: "http://h/api/1/entry/1/ returned an invalid status code: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBadHTTPStatusError("http://h/api/1/entry/1/", 500, tt.body)
			assert.Equal(t, tt.expected, err.Error())
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, 500, err.StatusCode)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := NewBadHTTPStatusError("http://h/api/1/user/9/", 404, nil)
	wrapped := fmt.Errorf("resolving user/9: %w", notFound)

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsBadHTTPStatus(wrapped))

	assert.False(t, IsNotFound(NewBadHTTPStatusError("http://h/", 500, nil)))
	assert.False(t, IsNotFound(errors.New("connection refused")))
	assert.False(t, IsBadHTTPStatus(ErrNoMatch))
}
