package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLemma(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       string
		expected string
	}{
		{"Hello", "hello"},
		{"  Ubiquitous, ", "ubiquitous"},
		{"don't", "don't"},
		{"Straße", "strasse"}, // case folding expands sharp s
		{"ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"«quoted»", "quoted"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, NormalizeLemma(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeLemmaIdempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Hello", "Straße", "ｆｕｌｌｗｉｄｔｈ", "l'été"} {
		once := NormalizeLemma(in)
		assert.Equal(t, once, NormalizeLemma(once), "input %q", in)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en", NormalizeLanguage("EN"))
	assert.Equal(t, "en", NormalizeLanguage("en-US"))
	assert.Equal(t, "pt", NormalizeLanguage("pt-BR"))
	assert.Equal(t, "zz-unknown", NormalizeLanguage(" ZZ-UNKNOWN "))
}

func TestWordbankNormalizesAndDeduplicates(t *testing.T) {
	t.Parallel()

	wb, err := NewWordbank("core-en", "Core English", "en",
		[]string{"The", "the", "  of ", "", "!!!", "Marmoset"})
	assert.NoError(t, err)

	assert.Equal(t, 3, wb.Len())
	assert.True(t, wb.Contains("the"))
	assert.True(t, wb.Contains("of"))
	assert.True(t, wb.Contains("marmoset"))
	assert.False(t, wb.Contains("The"))
}

func TestWordbankValidate(t *testing.T) {
	t.Parallel()

	_, err := NewWordbank("", "x", "en", nil)
	assert.ErrorIs(t, err, ErrWordbankIDEmpty)

	_, err = NewWordbank("x", "x", "", nil)
	assert.ErrorIs(t, err, ErrWordbankLanguageEmpty)
}
