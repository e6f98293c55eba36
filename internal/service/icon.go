package service

import (
	"strings"
	"unicode"
)

// greekLetters maps each latin letter onto the greek letter a new set's icon
// defaults to when no icon is supplied.
var greekLetters = map[rune]string{
	'a': "α", 'b': "β", 'c': "χ", 'd': "δ", 'e': "ε", 'f': "φ",
	'g': "γ", 'h': "η", 'i': "ι", 'j': "ψ", 'k': "κ", 'l': "λ",
	'm': "μ", 'n': "ν", 'o': "ο", 'p': "π", 'q': "ς", 'r': "ρ",
	's': "σ", 't': "τ", 'u': "υ", 'v': "ν", 'w': "ω", 'x': "ξ",
	'y': "ψ", 'z': "ζ",
}

// DefaultIcon picks the icon for a set named name: the greek counterpart of
// its first letter, λ when there is no mapping.
func DefaultIcon(name string) string {
	for _, r := range strings.TrimSpace(name) {
		if icon, ok := greekLetters[unicode.ToLower(r)]; ok {
			return icon
		}
		break
	}
	return "λ"
}
