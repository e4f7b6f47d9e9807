// Package phonetics derives phonetic equivalence codes for proper names
// in historical Dutch source text. Spelling of surnames drifted freely
// across centuries and OCR adds its own noise, so the phonetic retrieval
// signal matches names by pronunciation rather than spelling.
//
// Ambiguous consonant clusters (C, G/CH, initial S before a consonant)
// yield more than one code per name; a single shared code is enough for
// two names to match.
package phonetics

import (
	"strings"
	"unicode"
)

// codeLength is the fixed length of an emitted code.
const codeLength = 4

// Particles that join Dutch surnames but carry no distinguishing sound.
// They are skipped during name extraction ("Jan van der Berg" yields
// codes for Jan and Berg only).
var particles = map[string]struct{}{
	"van": {}, "de": {}, "der": {}, "den": {}, "ter": {}, "ten": {},
	"te": {}, "het": {}, "in": {}, "op": {}, "aan": {}, "tot": {},
}

// NameTokens extracts the name-like tokens from text: capitalised words
// of three or more letters, excluding sentence-leading common words is
// not attempted - over-matching is acceptable because fusion discounts
// the phonetic signal anyway.
func NameTokens(text string) []string {
	var names []string

	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		runes := []rune(word)
		if len(runes) < 3 {
			continue
		}
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		if _, ok := particles[strings.ToLower(word)]; ok {
			continue
		}
		names = append(names, word)
	}

	return names
}

// Codes derives the unique phonetic codes for every name-like token in
// text. The result order is deterministic (first-seen order).
func Codes(text string) []string {
	var codes []string
	seen := make(map[string]struct{})

	for _, name := range NameTokens(text) {
		for _, code := range Encode(name) {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}

	return codes
}

// Encode returns one or two fixed-length codes for a single name. Two
// codes are returned when the name contains a consonant cluster whose
// pronunciation is ambiguous in Dutch sources (C as K or S, G as the
// guttural or the hard stop).
func Encode(name string) []string {
	s := normalise(name)
	if s == "" {
		return nil
	}

	primary := &strings.Builder{}
	alternate := &strings.Builder{}
	ambiguous := false

	emit := func(p, a byte) {
		primary.WriteByte(p)
		alternate.WriteByte(a)
		if p != a {
			ambiguous = true
		}
	}

	letters := []byte(s)
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		var next byte
		if i+1 < len(letters) {
			next = letters[i+1]
		}

		switch ch {
		case 'A', 'E', 'I', 'O', 'U', 'Y':
			// Vowels only survive in initial position.
			if i == 0 {
				emit('A', 'A')
			}
		case 'B', 'P':
			// Final devoicing merges B/P.
			emit('P', 'P')
		case 'D', 'T':
			if next == 'J' { // DJ/TJ palatalised
				emit('J', 'J')
				i++
			} else {
				emit('T', 'T')
			}
		case 'F', 'V', 'W':
			emit('F', 'F')
		case 'G':
			// Guttural G, same sound as CH; hard stop in borrowed names.
			emit('X', 'K')
		case 'C':
			switch {
			case next == 'H':
				emit('X', 'X') // CH guttural
				i++
			case next == 'E' || next == 'I' || next == 'Y':
				emit('S', 'K')
			default:
				emit('K', 'S')
			}
		case 'K', 'Q':
			emit('K', 'K')
		case 'S', 'Z':
			if ch == 'S' && next == 'C' && i+2 < len(letters) && letters[i+2] == 'H' {
				// SCH as in Schouten; word-final -SCH is silent H.
				emit('S', 'S')
				emit('X', 'X')
				i += 2
				continue
			}
			emit('S', 'S')
		case 'H':
			// H survives only word-initially.
			if i == 0 {
				emit('H', 'H')
			}
		case 'J':
			if i == 0 {
				emit('J', 'J')
			}
		case 'L', 'M', 'N', 'R':
			emit(ch, ch)
		case 'X':
			emit('K', 'K')
			emit('S', 'S')
		default:
			// Unmapped letters contribute nothing.
		}

		if primary.Len() >= codeLength {
			break
		}
	}

	p := pad(primary.String())
	if !ambiguous {
		return []string{p}
	}
	a := pad(alternate.String())
	if a == p {
		return []string{p}
	}
	return []string{p, a}
}

// normalise uppercases, strips diacritics common in Dutch records and
// collapses doubled letters so Janssen and Jansen encode identically.
func normalise(name string) string {
	var b strings.Builder

	var prev rune
	for _, r := range strings.ToUpper(name) {
		if mapped, ok := diacritics[r]; ok {
			r = mapped
		}
		if r < 'A' || r > 'Z' {
			continue
		}
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}

	// IJ digraph is the single vowel Y.
	return strings.ReplaceAll(b.String(), "IJ", "Y")
}

var diacritics = map[rune]rune{
	'Ä': 'A', 'Á': 'A', 'À': 'A', 'Â': 'A',
	'Ë': 'E', 'É': 'E', 'È': 'E', 'Ê': 'E',
	'Ï': 'I', 'Í': 'I', 'Ì': 'I', 'Î': 'I',
	'Ö': 'O', 'Ó': 'O', 'Ò': 'O', 'Ô': 'O',
	'Ü': 'U', 'Ú': 'U', 'Ù': 'U', 'Û': 'U',
	'Ç': 'C', 'Ñ': 'N',
}

// pad right-pads a code with zeroes to the fixed length, truncating
// anything longer.
func pad(code string) string {
	if len(code) >= codeLength {
		return code[:codeLength]
	}
	return code + strings.Repeat("0", codeLength-len(code))
}
