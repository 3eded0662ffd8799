// Package textnorm cleans scraped menu text and classifies menu lines.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/lunch-cli/internal/model"
)

var (
	digitsRe = regexp.MustCompile(`\d+`)
	spaceRe  = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// ParsePrice returns the first run of digits in s, or 0 when s holds none.
// "189 Kč", "Kč 189" and "189,-" all parse to 189.
func ParsePrice(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// CleanText collapses whitespace runs to single spaces and trims the ends.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NormalizeText cleans s and renders it in sentence case:
// "HOVĚZÍ GULÁŠ" becomes "Hovězí guláš".
func NormalizeText(s string) string {
	s = CleanText(s)
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

// NewMenuItem normalizes the scraped parts of a dish.
func NewMenuItem(name, priceText, description string) model.MenuItem {
	return model.MenuItem{
		Name:        NormalizeText(name),
		Price:       ParsePrice(priceText),
		Description: NormalizeText(description),
	}
}
