package rule

import "fmt"

// Unquote strips one matching pair of quotes from a pattern value.
// A value that starts with a quote must be at least two bytes long and end
// with the same quote. Values without a leading quote are returned as-is.
func Unquote(s string) (string, error) {
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return s, nil
	}
	q := s[0]
	if len(s) < 2 || s[len(s)-1] != q {
		return "", fmt.Errorf("unterminated quoted pattern %s", s)
	}
	return s[1 : len(s)-1], nil
}
