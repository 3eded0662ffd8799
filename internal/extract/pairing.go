package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/lunch-cli/internal/textnorm"
)

// PriceBounds rejects prices outside [Min, Max] as likely mis-parses
// (allergen codes, weights, phone numbers).
type PriceBounds struct {
	Min, Max int
}

// Contains reports whether p is a plausible price.
func (b PriceBounds) Contains(p int) bool {
	return p >= b.Min && p <= b.Max
}

// DefaultPriceBounds fits Prague lunch menus.
var DefaultPriceBounds = PriceBounds{Min: 20, Max: 1000}

var (
	trailingAllergensRe = regexp.MustCompile(`\s*\([0-9,\s]+\)\s*$`)
	// Layout-preserved PDF text separates the Czech name from its English
	// translation by a run of spaces.
	translationRe = regexp.MustCompile(`^(.+?)\s{2,}\p{Lu}`)
)

// RawLines splits text into trimmed, non-empty lines, keeping inner runs of
// spaces that carry column layout.
func RawLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// PairLines matches dish names to prices in document text. A price either
// follows the name on the same line or sits alone on the next line.
func PairLines(lines []string, bounds PriceBounds) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)

	emit := func(name, priceText string) {
		name = documentName(name)
		if utf8.RuneCountInString(name) <= 2 || !bounds.Contains(textnorm.ParsePrice(priceText)) {
			return
		}
		key := name + "\x00" + priceText
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Candidate{Name: name, PriceText: priceText})
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if IsDayHeading(line) {
			continue
		}
		switch textnorm.Classify(line) {
		case textnorm.Price:
			before, _, _ := textnorm.PriceText(line)
			if before != "" {
				emit(strings.TrimSpace(priceTokenRe.Split(line, 2)[0]), priceTokenRe.FindString(line))
			}
		case textnorm.Text:
			if i+1 >= len(lines) {
				continue
			}
			next := lines[i+1]
			if before, _, ok := textnorm.PriceText(next); ok && before == "" {
				emit(line, priceTokenRe.FindString(next))
				i++
			}
		}
	}
	return out
}

// documentName strips allergen codes and English translations from a name.
func documentName(name string) string {
	name = trailingAllergensRe.ReplaceAllString(name, "")
	if m := translationRe.FindStringSubmatch(name); m != nil {
		name = trailingAllergensRe.ReplaceAllString(m[1], "")
	}
	return textnorm.CleanText(name)
}
