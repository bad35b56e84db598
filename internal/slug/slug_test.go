package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Mastering TypeScript for Modern Web Development", "mastering-typescript-for-modern-web-development"},
		{"10 Strategies for Scaling Your Startup", "10-strategies-for-scaling-your-startup"},
		{"  Café, Crème & Brûlée!  ", "cafe-creme-brulee"},
		{"The Future of Frontend: Trends to Watch in 2025", "the-future-of-frontend-trends-to-watch-in-2025"},
		{"!!!", "post"},
		{"", "post"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	t.Parallel()

	got := Slugify(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(got), maxBaseLen)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestMake_Deterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello-world-abc12345", Make("Hello, World", "abc12345"))
	assert.Equal(t, Make("Hello, World", "abc12345"), Make("Hello, World", "abc12345"))
	assert.Equal(t, "hello-world", Make("Hello, World", ""))
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()

	a := New("Same Title")
	b := New("Same Title")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "same-title-"))
	assert.Len(t, Disambiguator(), 8)
}
