package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LineKind is the role of one line of free-text menu.
type LineKind int

const (
	Blank    LineKind = iota
	Price             // carries a price, possibly after the dish name
	Allergen          // allergen codes such as "1, 3, 7"
	Header            // all-caps section header such as "POLÉVKY"
	Text              // candidate name or description
	Short             // too short to be anything
)

func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Price:
		return "price"
	case Allergen:
		return "allergen"
	case Header:
		return "header"
	case Text:
		return "text"
	default:
		return "short"
	}
}

var (
	// \s is ASCII only; sites separate amount and currency with U+00A0.
	priceRe    = regexp.MustCompile(`(?i)(\d+)[\s\p{Zs}]*(?:Kč|Kc|CZK|,-)`)
	allergenRe = regexp.MustCompile(`^[\d,.\s\p{Zs}]+$`)
	headerRe   = regexp.MustCompile(`^[\p{Lu}\s\p{Zs}]+$`)
)

// MaxAllergenLen bounds allergen-code lines; longer digit runs are not codes.
const MaxAllergenLen = 20

// Classify assigns a line its kind. Checks run in priority order: price,
// allergen codes, all-caps header, text.
func Classify(line string) LineKind {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Blank
	case priceRe.MatchString(line):
		return Price
	case allergenRe.MatchString(line) && len(line) < MaxAllergenLen:
		return Allergen
	case IsHeader(line):
		return Header
	case utf8.RuneCountInString(line) > 2:
		return Text
	default:
		return Short
	}
}

// IsHeader reports whether line is an all-caps run of at least three letters.
func IsHeader(line string) bool {
	line = strings.TrimSpace(line)
	if !headerRe.MatchString(line) {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}

// PriceText splits a price-bearing line into the text before the price and
// the price itself. ok is false when the line has no price.
func PriceText(line string) (before string, price int, ok bool) {
	loc := priceRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", 0, false
	}
	return CleanText(line[:loc[0]]), ParsePrice(line[loc[2]:loc[3]]), true
}

// HasPrice reports whether the line carries a price with a currency marker.
func HasPrice(line string) bool {
	return priceRe.MatchString(line)
}

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = CleanText(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
