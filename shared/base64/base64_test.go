package base64_test

import (
	"marina/shared/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngPixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

func TestGetContentType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "png receipt", input: pngPixel, expected: "image/png"},
		{name: "pdf receipt", input: "data:application/pdf;base64,JVBERi0xLjQK", expected: "application/pdf"},
		{name: "empty string", input: "", expected: ""},
		{name: "missing data prefix", input: "image/png;base64,iVBORw0KGgo=", expected: ""},
		{name: "missing base64 marker", input: "data:image/png,iVBORw0KGgo=", expected: ""},
		{name: "prefix only", input: "data:;base64,", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base64.GetContentType(tt.input))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("valid data uri", func(t *testing.T) {
		contentType, data, err := base64.Decode("data:text/plain;base64,SGVsbG8gV29ybGQ=")

		require.NoError(t, err)
		assert.Equal(t, "text/plain", contentType)
		assert.Equal(t, []byte("Hello World"), data)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		_, _, err := base64.Decode("data:image/png;base64,@@@")

		assert.ErrorIs(t, err, base64.ErrInvalidDataURI)
	})

	t.Run("not a data uri", func(t *testing.T) {
		_, _, err := base64.Decode("https://cdn.example.com/receipt.png")

		assert.ErrorIs(t, err, base64.ErrInvalidDataURI)
	})
}

func TestDecodedLen(t *testing.T) {
	assert.Equal(t, 11, base64.DecodedLen("data:text/plain;base64,SGVsbG8gV29ybGQ="))
	assert.Equal(t, 3, base64.DecodedLen("abc"))
}
