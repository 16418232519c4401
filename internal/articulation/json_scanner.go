package articulation

// findJSONCandidates returns every balanced top-level {...} span in s, in
// order. Quotes are only tracked inside an open object, so apostrophes and
// stray quotes in surrounding prose never flip the string state, and braces
// inside string values do not end a span early.
//
// Iterating bytes is safe for the ASCII delimiters ({, }, ", \) because
// UTF-8 never reuses those bytes inside a multi-byte sequence.
func findJSONCandidates(s string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if depth > 0 && inString {
			switch {
			case escape:
				escape = false
			case b == '\\':
				escape = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				candidates = append(candidates, s[start:i+1])
				start = -1
			}
		}
	}

	return candidates
}
