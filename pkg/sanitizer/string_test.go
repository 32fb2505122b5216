package sanitizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailqueue/pkg/sanitizer"
)

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"jane@example.com":   "j***@example.com",
		" a@example.com ":    "*@example.com",
		"not-an-email":       "not-an-email",
		"@example.com":       "@example.com",
		"a@b@example.com":    "a@b@example.com",
		"john.doe@corp.test": "j*******@corp.test",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizer.MaskEmail(in), in)
	}
}

func TestPreventHeaderInjection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hello Bcc: x@evil.test", sanitizer.PreventHeaderInjection("Hello\r\nBcc: x@evil.test"))
	assert.Equal(t, "a b c", sanitizer.PreventHeaderInjection("a\nb\rc\x00"))
	assert.Equal(t, "plain", sanitizer.PreventHeaderInjection("plain"))
}

func TestCompose(t *testing.T) {
	t.Parallel()

	clean := sanitizer.Compose(
		sanitizer.RemoveControlChars,
		strings.TrimSpace,
		sanitizer.MaxLength(5),
	)

	assert.Equal(t, "ab\tcd", clean("  ab\x1b\tcdef  "))
	assert.Equal(t, "héllo", clean("héllo world"))
	assert.Empty(t, sanitizer.MaxLength(0)("abc"))
	assert.Equal(t, "x", sanitizer.Apply("  x ", strings.TrimSpace))
}
