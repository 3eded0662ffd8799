// Package locale holds the Czech calendar vocabulary used to find today's
// menu on restaurant pages and in day-specific URLs.
package locale

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Indexed by time.Weekday (Sunday first).
var (
	dayNames = [7]string{"neděle", "pondělí", "úterý", "středa", "čtvrtek", "pátek", "sobota"}
	dayShort = [7]string{"ne", "po", "út", "st", "čt", "pá", "so"}
)

// Day is one calendar day described in Czech.
type Day struct {
	Weekday time.Weekday
	Name    string // "pondělí"
	Short   string // "po"
	URLName string // "pondeli"
	Date    time.Time
}

// DayOf describes the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	wd := t.Weekday()
	return Day{
		Weekday: wd,
		Name:    dayNames[wd],
		Short:   dayShort[wd],
		URLName: StripDiacritics(dayNames[wd]),
		Date:    time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()),
	}
}

// Today describes the current day in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return DayOf(now.In(loc))
}

// ISODate is the collection key of the day.
func (d Day) ISODate() string {
	return d.Date.Format("2006-01-02")
}

// IsWeekday reports whether the day falls Monday through Friday.
func (d Day) IsWeekday() bool {
	return d.Weekday != time.Saturday && d.Weekday != time.Sunday
}

// Title is the day name with its first letter upper-cased ("Pondělí").
func (d Day) Title() string {
	r := []rune(d.Name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// FormatDate renders the day the way Czech menus head a section, e.g.
// "pondělí 2. 9.".
func (d Day) FormatDate() string {
	return fmt.Sprintf("%s %d. %d.", d.Name, d.Date.Day(), int(d.Date.Month()))
}

// Name returns the Czech name of a weekday.
func Name(wd time.Weekday) string {
	return dayNames[wd]
}

// Names returns all weekday names, Sunday first.
func Names() []string {
	out := make([]string, len(dayNames))
	copy(out, dayNames[:])
	return out
}

// ParseWeekday resolves a Czech day name with or without diacritics, in any
// case.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := Fold(strings.TrimSpace(s))
	for i, n := range dayNames {
		if key == StripDiacritics(n) || key == StripDiacritics(dayShort[i]) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// StripDiacritics removes combining marks: "čtvrtek" becomes "ctvrtek".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lower-cases s and strips its diacritics for comparisons.
func Fold(s string) string {
	return StripDiacritics(strings.ToLower(s))
}
