package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

// MinNameLen is the shortest segment accepted as a complete dish name.
// Shorter segments before a price are the tail of a wrapped name.
const MinNameLen = 10

// Candidate is a dish found in free text, before normalization.
type Candidate struct {
	Name        string
	Description string
	PriceText   string
	// Header is the all-caps section the dish was listed under.
	Header string
}

// MenuItem normalizes the candidate.
func (c Candidate) MenuItem() model.MenuItem {
	return textnorm.NewMenuItem(c.Name, c.PriceText, c.Description)
}

// CascadeOptions tunes ParseLines for a site.
type CascadeOptions struct {
	// HeaderMaxLen treats longer all-caps lines as dish names. Zero means
	// every all-caps line is a header.
	HeaderMaxLen int
	// StripPrefix is removed from the start of every name.
	StripPrefix *regexp.Regexp
	// JoinLines uses every line since the last price or header as the name.
	JoinLines bool
}

var (
	boilerplateRe = regexp.MustCompile(`(?i)(www\.|https?://|@|©|\b(?:the|and|with|served|of|our)\b)`)
	priceTokenRe  = regexp.MustCompile(`(?i)\d+[\s\p{Zs}]*(?:Kč|Kc|CZK|,-)`)
)

// IsBoilerplate reports lines that are never part of a dish name: links,
// contact details and English translations.
func IsBoilerplate(line string) bool {
	return boilerplateRe.MatchString(line)
}

// ParseLines runs the line classification cascade over a bounded section and
// returns the dishes it finds, deduplicated by name and price text.
func ParseLines(lines []string, opts CascadeOptions) []Candidate {
	var (
		out      []Candidate
		segments []string
		header   string
		seen     = make(map[string]bool)
	)

	for i, line := range lines {
		if IsDayHeading(line) {
			segments = nil
			continue
		}

		switch kind := classify(line, opts); kind {
		case textnorm.Price:
			before, _, _ := textnorm.PriceText(line)
			priceText := priceTokenRe.FindString(line)
			if utf8.RuneCountInString(before) > 2 {
				segments = append(segments, before)
			}

			var c Candidate
			switch {
			case opts.JoinLines:
				c.Name = strings.Join(segments, " ")
			case len(segments) == 0 || utf8.RuneCountInString(segments[len(segments)-1]) < MinNameLen:
				c.Name = walkBack(lines, i, before, opts)
			default:
				c.Name = segments[0]
				if len(segments) > 1 && segments[1] != segments[0] {
					c.Description = segments[1]
				}
			}
			segments = nil

			c.Name = cleanName(c.Name, opts)
			if c.Name == "" {
				continue
			}
			c.PriceText = priceText
			c.Header = header

			key := c.Name + "\x00" + c.PriceText
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)

		case textnorm.Allergen:
			// Allergen codes close a name; a short tail before them is
			// the end of a wrapped name.
			if n := len(segments); n > 0 && utf8.RuneCountInString(segments[n-1]) < MinNameLen {
				if joined := walkBack(lines, i, "", opts); joined != "" {
					segments = []string{joined}
				}
			}

		case textnorm.Header:
			header = textnorm.CleanText(line)
			segments = nil

		case textnorm.Text:
			segments = append(segments, textnorm.CleanText(line))
		}
	}
	return out
}

func classify(line string, opts CascadeOptions) textnorm.LineKind {
	kind := textnorm.Classify(line)
	if kind == textnorm.Header && opts.HeaderMaxLen > 0 && utf8.RuneCountInString(strings.TrimSpace(line)) > opts.HeaderMaxLen {
		return textnorm.Text
	}
	return kind
}

// walkBack rebuilds a name wrapped over several lines ending at lines[i].
func walkBack(lines []string, i int, tail string, opts CascadeOptions) string {
	parts := []string{}
	if utf8.RuneCountInString(tail) > 2 {
		parts = append(parts, tail)
	}
	for j := i - 1; j >= 0; j-- {
		prev := lines[j]
		if IsDayHeading(prev) || IsBoilerplate(prev) {
			break
		}
		kind := classify(prev, opts)
		if kind == textnorm.Price || kind == textnorm.Header {
			break
		}
		if kind != textnorm.Text {
			continue
		}
		parts = append([]string{textnorm.CleanText(prev)}, parts...)
	}
	return strings.Join(parts, " ")
}

func cleanName(name string, opts CascadeOptions) string {
	name = textnorm.CleanText(name)
	if opts.StripPrefix != nil {
		name = strings.TrimSpace(opts.StripPrefix.ReplaceAllString(name, ""))
	}
	return name
}

// ToMenuItems normalizes candidates.
func ToMenuItems(cs []Candidate) []model.MenuItem {
	items := make([]model.MenuItem, 0, len(cs))
	for _, c := range cs {
		items = append(items, c.MenuItem())
	}
	return items
}
