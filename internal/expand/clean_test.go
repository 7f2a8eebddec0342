package expand

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  machine learning \n", "machine learning"},
		{"strips wrapping quotes", `"deep learning"`, "deep learning"},
		{"strips quotes then trims", `  " deep learning "  `, "deep learning"},
		{"keeps inner quotes", `"a" and "b"`, `"a" and "b"`},
		{"keeps unbalanced quote", `"open ended`, `"open ended`},
		{"lone quote", `"`, `"`},
		{"empty quotes", `""`, ""},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestClean_TruncatesWithoutEllipsis(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Clean(long)
	assert.Equal(t, MaxResponseRunes, utf8.RuneCountInString(got))
	assert.False(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("b", MaxResponseRunes)
	assert.Equal(t, exact, Clean(exact))

	// multi-byte runes count once
	wide := strings.Repeat("é", 250)
	assert.Equal(t, MaxResponseRunes, utf8.RuneCountInString(Clean(wide)))

	// a cut landing on whitespace does not leave a trailing space
	spaced := strings.Repeat("x", MaxResponseRunes-1) + " tail"
	assert.Equal(t, strings.Repeat("x", MaxResponseRunes-1), Clean(spaced))
}

func TestClean_LongQuotedAnswer(t *testing.T) {
	got := Clean(`"` + strings.Repeat("q", 250) + `"`)
	assert.Equal(t, strings.Repeat("q", MaxResponseRunes), got)

	// the cut lands right after an inner pair
	exposed := `"` + strings.Repeat("r", MaxResponseRunes-2) + `" trailing words`
	assert.Equal(t, strings.Repeat("r", MaxResponseRunes-2), Clean(exposed))
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"  plain  ",
		`"quoted"`,
		`" "inner" "`,
		`""x""`,
		strings.Repeat("word ", 80),
		`"` + strings.Repeat("r", MaxResponseRunes-2) + `" trailing words`,
		" nbsp padded ",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxResponseRunes)
	}
}

func TestExtractAnswer(t *testing.T) {
	text := "Original query: ml algos\nImproved query: machine learning algorithms"
	assert.Equal(t, " machine learning algorithms", ExtractAnswer(text, "Improved query:"))
	assert.Equal(t, "no marker here", ExtractAnswer("no marker here", "Improved query:"))
	assert.Equal(t, " b", ExtractAnswer("Improved query: a Improved query: b", "Improved query:"))
	assert.Equal(t, "raw", ExtractAnswer("raw", ""))
}
