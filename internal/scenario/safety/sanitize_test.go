package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldbuilder/internal/scenario"
)

func categories(ws []scenario.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Category)
	}
	return out
}

func TestSanitize_CleanTextUnchanged(t *testing.T) {
	inputs := []string{
		"Show collaborative learning where students teach each other",
		"  Solar powered classrooms in rural villages  ",
		"A harmonious school garden",
	}
	for _, in := range inputs {
		res := Sanitize(in)
		assert.Equal(t, strings.TrimSpace(in), res.Sanitized)
		assert.False(t, res.WasModified)
		assert.Empty(t, res.Warnings)
	}
}

func TestSanitize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		res := Sanitize(in)
		assert.Equal(t, "", res.Sanitized)
		assert.False(t, res.WasModified)
		assert.Empty(t, res.Warnings)
	}
}

func TestSanitize_Substitutions(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		categories []string
	}{
		{
			name:       "reframed term",
			input:      "students build a weapon for class",
			want:       "students build a educational tool for class",
			categories: []string{"violence"},
		},
		{
			name:       "case variant still reframed",
			input:      "No more Violence in schools",
			want:       "No more peaceful conflict resolution in schools",
			categories: []string{"violence"},
		},
		{
			name:       "term without reframing is redacted",
			input:      "a story about a gun",
			want:       "a story about a [CONTENT_FILTERED]",
			categories: []string{"dangerous_items"},
		},
		{
			name:       "multi-word match is redacted",
			input:      "stop child labor now",
			want:       "stop [CONTENT_FILTERED] now",
			categories: []string{"exploitation"},
		},
		{
			name:       "several categories",
			input:      "kill the gambling racist",
			want:       "[CONTENT_FILTERED] the [CONTENT_FILTERED] [CONTENT_FILTERED]",
			categories: []string{"violence", "hate_speech", "age_inappropriate"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Sanitize(tt.input)
			assert.Equal(t, tt.want, res.Sanitized)
			assert.True(t, res.WasModified)
			assert.Equal(t, tt.categories, categories(res.Warnings))
		})
	}
}

func TestSanitize_WarningCarriesTermsAndMessage(t *testing.T) {
	res := Sanitize("harm and more harm, then a knife")
	require.Len(t, res.Warnings, 2)

	assert.Equal(t, []string{"harm", "harm"}, res.Warnings[0].MatchedTerms)
	assert.Equal(t, "Content related to violence was filtered for safety.", res.Warnings[0].Message)
	assert.Equal(t, "Content related to dangerous items was filtered for safety.", res.Warnings[1].Message)
	assert.NotContains(t, res.Sanitized, "knife")
}

func TestSanitize_Shouting(t *testing.T) {
	res := Sanitize("PLEASE MAKE A SCHOOL ON MARS")
	assert.Equal(t, "Please make a school on mars", res.Sanitized)
	assert.True(t, res.WasModified)
	assert.Equal(t, []string{CategoryFormatting}, categories(res.Warnings))

	short := Sanitize("HELLO MARS")
	assert.Equal(t, "HELLO MARS", short.Sanitized)
	assert.False(t, short.WasModified)

	digits := Sanitize("123456789012345")
	assert.False(t, digits.WasModified)
}

func TestSanitize_Length(t *testing.T) {
	long := strings.Repeat("learning ", 200)
	res := Sanitize(long)

	assert.True(t, strings.HasSuffix(res.Sanitized, TruncationMark))
	assert.LessOrEqual(t, len([]rune(res.Sanitized)), MaxInputRunes+len(TruncationMark))
	assert.Equal(t, []string{CategoryLength}, categories(res.Warnings))
}

func TestSanitize_TruncatesAfterSubstitution(t *testing.T) {
	input := strings.Repeat("a", 995) + " weapon"
	res := Sanitize(input)

	assert.Equal(t, strings.Repeat("a", 995)+" educ"+TruncationMark, res.Sanitized)
	assert.Equal(t, []string{"violence", CategoryLength}, categories(res.Warnings))
}

func TestSanitize_CountsRunes(t *testing.T) {
	input := strings.Repeat("é", MaxInputRunes)
	res := Sanitize(input)
	assert.Equal(t, input, res.Sanitized)
	assert.False(t, res.WasModified)
}
