package phonetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "extracts capitalised words",
			text: "In 1652 werd Willem Jansen gedoopt",
			want: []string{"Willem", "Jansen"},
		},
		{
			name: "skips surname particles",
			text: "Jan van der Berg verkocht het huis",
			want: []string{"Jan", "Berg"},
		},
		{
			name: "skips short words",
			text: "De heer J. P. Smit",
			want: []string{"Smit"},
		},
		{
			name: "no names",
			text: "de kerk brandde af in dat jaar",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameTokens(tt.text))
		})
	}
}

func TestEncode_SpellingVariantsShareCodes(t *testing.T) {
	// Historical spelling pairs that must encode identically.
	pairs := [][2]string{
		{"Jansen", "Janssen"},
		{"Dijk", "Dyk"},
		{"Muller", "Müller"},
		{"Claes", "Klaas"},
		{"Visser", "Fisser"},
	}

	for _, pair := range pairs {
		a, b := Encode(pair[0]), Encode(pair[1])
		require.NotEmpty(t, a, pair[0])
		require.NotEmpty(t, b, pair[1])

		shared := false
		for _, ca := range a {
			for _, cb := range b {
				if ca == cb {
					shared = true
				}
			}
		}
		assert.True(t, shared, "%s %v and %s %v should share a code", pair[0], a, pair[1], b)
	}
}

func TestEncode_FixedLength(t *testing.T) {
	for _, name := range []string{"Jan", "Schoutenhuizen", "Bo", "Vermeer"} {
		for _, code := range Encode(name) {
			assert.Len(t, code, codeLength, name)
		}
	}
}

func TestEncode_AmbiguousConsonantsYieldTwoCodes(t *testing.T) {
	// G can be guttural or a hard stop.
	codes := Encode("Gerrits")
	require.Len(t, codes, 2)
	assert.Equal(t, "XRTS", codes[0])
	assert.Equal(t, "KRTS", codes[1])
}

func TestEncode_UnambiguousNameYieldsOneCode(t *testing.T) {
	codes := Encode("Jansen")
	require.Len(t, codes, 1)
	assert.Equal(t, "JNSN", codes[0])
}

func TestEncode_SchCluster(t *testing.T) {
	codes := Encode("Schouten")
	require.Len(t, codes, 1)
	assert.Equal(t, "SXTN", codes[0])
}

func TestEncode_EmptyAndNonLetters(t *testing.T) {
	assert.Empty(t, Encode(""))
	assert.Empty(t, Encode("1652"))
}

func TestCodes_DeduplicatesAcrossNames(t *testing.T) {
	// Both spellings of the same surname contribute one code.
	codes := Codes("Willem Jansen en Pieter Janssen")

	count := 0
	for _, code := range codes {
		if code == "JNSN" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCodes_NoNamesNoCodes(t *testing.T) {
	assert.Empty(t, Codes("wanneer werd de kerk gebouwd"))
}
