package catalog

import "strings"

// Compare orders a and b by sorts, the way a store's ORDER BY would: text
// fields compare bytewise and false sorts before true.
func Compare(a, b Component, sorts []Sort) int {
	for _, s := range sorts {
		r := strings.Compare(a.Text(s.Field), b.Text(s.Field))
		if r == 0 {
			continue
		}
		if s.Descending {
			return -r
		}
		return r
	}
	return 0
}
