package utils

import (
	"strings"
	"unicode"
)

// NormalizeIdentifier maps name to a valid MLIR symbol or SSA name: anything other than an ASCII letter,
// digit or underscore becomes an underscore, and a leading digit gets an underscore prefix.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	normalized := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return r
		}
		return '_'
	}, name)
	if name[0] >= '0' && name[0] <= '9' {
		return "_" + normalized
	}
	return normalized
}

// ToSnakeCase converts an op name like "ParallelInsertSlice" to "parallel_insert_slice".
//
// A run of capitals is kept as one word ("CSEPass" -> "cse_pass").
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 5)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			sb.WriteRune(r)
			continue
		}
		if i > 0 && runes[i-1] != '_' {
			prevLower := !unicode.IsUpper(runes[i-1])
			endOfAcronym := i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1])
			if prevLower || endOfAcronym {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
