package textnorm

import (
	"strings"
	"unicode/utf8"
)

// SplitName splits a dish name into the part rendered in bold and the rest.
// The bold part ends before the first word of at most two letters among the
// first four words ("Kuře na paprice" gives "Kuře", "na paprice"); otherwise
// it is the first two words. A short leading word stays in the bold part.
func SplitName(name string) (bold, rest string) {
	words := strings.Fields(name)
	cut := min(2, len(words))
	for i := 1; i < len(words) && i < 4; i++ {
		if utf8.RuneCountInString(words[i]) <= 2 {
			cut = i
			break
		}
	}
	return strings.Join(words[:cut], " "), strings.Join(words[cut:], " ")
}
