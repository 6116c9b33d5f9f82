package magic

// decodeEscapes decodes the backslash escape sequences documented in spec
// §4.1 in a single left-to-right pass, returning the resulting byte
// sequence: \n, \r, \t, \\, "\ " (backslash-space), octal \N to \NNN, and
// hex \xHH. Any other \c yields the literal byte c, and a raw newline ends
// decoding.
func decodeEscapes(s string) []byte {
	out := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\n' {
			break
		}
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}

		// Trailing backslash with nothing after it: keep it literally.
		if i+1 >= len(s) {
			out = append(out, '\\')
			break
		}

		next := s[i+1]
		switch {
		case next == '\\':
			out = append(out, '\\')
			i += 2
		case next == ' ':
			out = append(out, ' ')
			i += 2
		case next == 't':
			out = append(out, '\t')
			i += 2
		case next == 'n':
			out = append(out, '\n')
			i += 2
		case next == 'r':
			out = append(out, '\r')
			i += 2
		case next == 'x':
			if b, ok := decodeHexByte(s, i+2); ok {
				out = append(out, b)
				i += 4
			} else {
				out = append(out, 'x')
				i += 2
			}
		case next >= '0' && next <= '7':
			b, consumed := decodeOctalByte(s, i+1)
			out = append(out, b)
			i += 1 + consumed
		default:
			out = append(out, next)
			i += 2
		}
	}
	return out
}

// decodeHexByte parses exactly two hex digits at s[pos:pos+2].
func decodeHexByte(s string, pos int) (byte, bool) {
	if pos+2 > len(s) {
		return 0, false
	}
	hi, ok1 := hexDigit(s[pos])
	lo, ok2 := hexDigit(s[pos+1])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi<<4 | lo, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// decodeOctalByte parses 1 to 3 octal digits starting at s[pos], returning
// the decoded byte and the number of digit characters consumed.
func decodeOctalByte(s string, pos int) (byte, int) {
	var v int
	n := 0
	for n < 3 && pos+n < len(s) && s[pos+n] >= '0' && s[pos+n] <= '7' {
		v = v<<3 | int(s[pos+n]-'0')
		n++
	}
	return byte(v), n
}
