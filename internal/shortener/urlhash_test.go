package shortener_test

import (
	"strings"
	"testing"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases scheme and host", "HTTPS://EXAMPLE.COM/Path", "https://example.com/Path"},
		{"drops trailing slash", "https://example.com/a/b/", "https://example.com/a/b"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"drops default https port", "https://example.com:443/x", "https://example.com/x"},
		{"drops default http port", "http://example.com:80/x", "http://example.com/x"},
		{"keeps other ports", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"drops fragment", "https://example.com/x#top", "https://example.com/x"},
		{"keeps query", "https://example.com/x?q=1", "https://example.com/x?q=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shortener.NormalizeURL(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHashOf(t *testing.T) {
	t.Run("equivalent urls share a hash", func(t *testing.T) {
		first, err := shortener.HashOf("https://example.com/path")
		require.NoError(t, err)

		for _, u := range []string{"HTTPS://EXAMPLE.COM/path", "https://example.com:443/path/", "https://example.com/path#x"} {
			got, err := shortener.HashOf(u)

			require.NoError(t, err)
			assert.Equal(t, first, got, u)
		}
	})

	t.Run("different urls differ", func(t *testing.T) {
		a, _ := shortener.HashOf("https://example.com/a")
		b, _ := shortener.HashOf("https://example.com/b")

		assert.NotEqual(t, a, b)
	})

	t.Run("hash is hex sha256", func(t *testing.T) {
		h, err := shortener.HashOf("https://example.com")

		require.NoError(t, err)
		assert.Len(t, string(h), 64)
		assert.Regexp(t, `^[0-9a-f]+$`, string(h))
	})

	t.Run("unparsable url is invalid", func(t *testing.T) {
		_, err := shortener.HashOf("://broken")

		assert.ErrorIs(t, err, shortener.ErrInvalidURL)
	})
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://example.com", "http://example.com/a?b=c"}
	for _, u := range valid {
		assert.NoError(t, shortener.ValidateURL(u), u)
	}

	invalid := []string{
		"",
		"example.com",
		"ftp://example.com/file",
		"https://",
		"https://example.com/" + strings.Repeat("a", 2048),
	}
	for _, u := range invalid {
		assert.ErrorIs(t, shortener.ValidateURL(u), shortener.ErrInvalidURL, u)
	}
}
