package dictionary

import "strings"

// Uncompress rebuilds the DELAF line of an inflected form from one of its
// compressed codes.
//
//	Uncompress("mains", "1.N:fp")             == "mains,main.N:fp"
//	Uncompress("pommes de terre", "1 0 0.N:fs") == "pommes de terre,pomme de terre.N:fs"
func Uncompress(inflected, code string) string {
	var res strings.Builder
	writeEscaped(&res, inflected, ",.")
	res.WriteByte(',')

	c := []rune(code)
	if len(c) == 0 {
		return res.String()
	}
	switch c[0] {
	case '.':
		// lemma is the inflected form
		res.WriteString(code)
		return res.String()
	case '_':
		pos, n := readNumber(c, 1)
		out := []rune(res.String() + inflected)
		keep := len(out) - n
		if keep < 0 {
			keep = 0
		}
		return string(out[:keep]) + string(c[pos:])
	}

	entry := []rune(inflected)
	posEntry, pos := 0, 0
	for pos < len(c) && c[pos] != '.' {
		if c[pos] == ' ' || c[pos] == '-' {
			res.WriteRune(c[pos])
			pos++
			posEntry++
			continue
		}
		// compressed token
		var token []rune
		for pos < len(c) && c[pos] != '.' && c[pos] != ' ' && c[pos] != '-' {
			if c[pos] == '\\' {
				pos++
				if pos >= len(c) {
					break
				}
				if c[pos] != '.' {
					token = append(token, '\\')
				}
			}
			token = append(token, c[pos])
			pos++
		}
		// matching token of the inflected form
		start := posEntry
		for posEntry < len(entry) && entry[posEntry] != ' ' && entry[posEntry] != '-' {
			posEntry++
		}
		rebuilt := rebuildToken(entry[start:posEntry], token)
		writeEscaped(&res, string(rebuilt), ".+\\/")
	}
	res.WriteString(string(c[pos:]))
	return res.String()
}

// rebuildToken drops the number of trailing chars given by the leading digits
// of info, then appends the rest of info with backslashes removed.
func rebuildToken(token, info []rune) []rune {
	pos, n := readNumber(info, 0)
	keep := len(token) - n
	if keep < 0 {
		keep = 0
	}
	out := append([]rune(nil), token[:keep]...)
	for ; pos < len(info); pos++ {
		if info[pos] == '\\' {
			pos++
			if pos >= len(info) {
				break
			}
		}
		out = append(out, info[pos])
	}
	return out
}

func readNumber(s []rune, pos int) (int, int) {
	n := 0
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		n = n*10 + int(s[pos]-'0')
		pos++
	}
	return pos, n
}

func writeEscaped(b *strings.Builder, s, special string) {
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}
