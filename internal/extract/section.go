package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/sells-group/lunch-cli/internal/locale"
)

const datePattern = `[\s\p{Zs}]+\d{1,2}\.[\s\p{Zs}]*\d{1,2}\.`

// SectionOptions tunes how a day's section is bounded.
type SectionOptions struct {
	// RequireDate only accepts day names followed by a date ("pondělí 2. 9.").
	RequireDate bool
	// EndMarkers also terminate the section, matched case-insensitively.
	EndMarkers []string
}

// Section returns the part of text that belongs to day: from the first
// matching day heading up to the next heading of another weekday or an end
// marker, whichever comes first. ok is false when the day is not found.
func Section(text string, day locale.Day, opts SectionOptions) (string, bool) {
	start := dayRegexp([]string{day.Name}, opts.RequireDate).FindStringIndex(text)
	if start == nil {
		return "", false
	}

	var others []string
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd != day.Weekday {
			others = append(others, locale.Name(wd))
		}
	}

	rest := text[start[1]:]
	end := len(rest)
	if loc := dayRegexp(others, opts.RequireDate).FindStringIndex(rest); loc != nil {
		end = loc[0]
	}
	lower := strings.ToLower(rest)
	for _, m := range opts.EndMarkers {
		if i := strings.Index(lower, strings.ToLower(m)); i >= 0 && i < end {
			end = i
		}
	}
	return text[start[0] : start[1]+end], true
}

func dayRegexp(names []string, requireDate bool) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	pattern := `(?i)(?:` + strings.Join(quoted, "|") + `)`
	if requireDate {
		pattern += datePattern
	} else {
		pattern += `(?:` + datePattern + `)?`
	}
	return regexp.MustCompile(pattern)
}

var dayHeadingRe = regexp.MustCompile(`(?i)^(?:` + strings.Join(locale.Names(), "|") + `)(?:` + datePattern + `)?\s*$`)

// IsDayHeading reports whether line is just a weekday name, optionally with
// a date.
func IsDayHeading(line string) bool {
	return dayHeadingRe.MatchString(strings.TrimSpace(line))
}
