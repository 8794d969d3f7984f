package features

// Factorize maps every value to an integer code in order of first appearance.
// uniques[codes[i]] == values[i] for every i, and len(uniques) is the number
// of distinct values.
func Factorize(values []string) (codes []int, uniques []string) {
	codes = make([]int, len(values))
	seen := make(map[string]int)
	for i, v := range values {
		code, ok := seen[v]
		if !ok {
			code = len(uniques)
			seen[v] = code
			uniques = append(uniques, v)
		}
		codes[i] = code
	}
	return codes, uniques
}

// Lookup returns the label for code, or false when code is out of range.
func Lookup(uniques []string, code int) (string, bool) {
	if code < 0 || code >= len(uniques) {
		return "", false
	}
	return uniques[code], true
}
