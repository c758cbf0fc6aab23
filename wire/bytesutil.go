package wire

// indexByte returns the index of the first occurrence of c in b, or -1.
func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// lastIndexByte returns the index of the last occurrence of c in b, or -1.
func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// splitByte splits b on every occurrence of sep, CGI-query style (an empty
// leading or trailing part is preserved as an empty slice).
func splitByte(b []byte, sep byte) [][]byte {
	var parts [][]byte
	start := 0
	for i, v := range b {
		if v == sep {
			parts = append(parts, b[start:i])
			start = i + 1
		}
	}
	parts = append(parts, b[start:])
	return parts
}

// cgiParse parses an `&k=v&k=v` encoded byte string into a key/value map.
// A value may itself contain `=`; only the first `=` in each pair splits
// key from value. An empty leading `&` is tolerated.
func cgiParse(b []byte) map[string]string {
	out := make(map[string]string)
	for _, part := range splitByte(b, '&') {
		if len(part) == 0 {
			continue
		}
		eq := indexByte(part, '=')
		if eq < 0 {
			continue
		}
		out[string(part[:eq])] = string(part[eq+1:])
	}
	return out
}
