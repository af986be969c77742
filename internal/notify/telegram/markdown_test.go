package telegram

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"+1 (555) 123-4567", `\+1 \(555\) 123\-4567`},
		{"anna_studio", `anna\_studio`},
		{"a.b!c", `a\.b\!c`},
		{`back\slash`, `back\\slash`},
		{"Привет, мир", "Привет, мир"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

// unescaped reports the index of the first reserved character in s that is
// not preceded by an escaping backslash, or -1.
func unescaped(s string) int {
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' {
			i++
			continue
		}
		if strings.ContainsRune(reserved, runes[i]) {
			return i
		}
	}
	return -1
}

func TestEscape_EveryReservedCharacterIsEscaped(t *testing.T) {
	alphabet := []rune(reserved + "abcXYZ 019жё\n")
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := rng.Intn(40)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		in := b.String()
		out := Escape(in)
		if idx := unescaped(out); idx >= 0 {
			t.Fatalf("unescaped reserved character at %d in %q (input %q)", idx, out, in)
		}
		assert.Equal(t, in, strings.NewReplacer(escapePairs()...).Replace(out))
	}
}

func escapePairs() []string {
	var pairs []string
	for _, r := range reserved {
		pairs = append(pairs, `\`+string(r), string(r))
	}
	return pairs
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc…", Truncate("abcdef", 3))
	assert.Equal(t, "жжж…", Truncate(strings.Repeat("ж", 10), 3))
	assert.Equal(t, "ab…", Truncate("ab cdef", 3))
	assert.Equal(t, "keep", Truncate("keep", 0))

	long := strings.Repeat("x", 5000)
	got := Truncate(long, CommentBudget)
	assert.Equal(t, CommentBudget+1, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
