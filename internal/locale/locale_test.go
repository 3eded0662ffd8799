package locale

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_Monday(t *testing.T) {
	d := DayOf(time.Date(2024, 9, 2, 11, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Monday, d.Weekday)
	assert.Equal(t, "pondělí", d.Name)
	assert.Equal(t, "po", d.Short)
	assert.Equal(t, "pondeli", d.URLName)
	assert.Equal(t, "2024-09-02", d.ISODate())
	assert.Equal(t, "Pondělí", d.Title())
	assert.Equal(t, "pondělí 2. 9.", d.FormatDate())
	assert.True(t, d.IsWeekday())
}

func TestURLNames(t *testing.T) {
	want := map[time.Weekday]string{
		time.Sunday:    "nedele",
		time.Monday:    "pondeli",
		time.Tuesday:   "utery",
		time.Wednesday: "streda",
		time.Thursday:  "ctvrtek",
		time.Friday:    "patek",
		time.Saturday:  "sobota",
	}
	for wd, name := range want {
		assert.Equal(t, name, StripDiacritics(Name(wd)))
	}
}

func TestToday_UsesLocation(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	// 23:30 UTC on Sunday is already Monday in Prague.
	now := time.Date(2024, 9, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Monday, Today(now, prague).Weekday)
	assert.Equal(t, "2024-09-02", Today(now, prague).ISODate())
	assert.Equal(t, time.Sunday, Today(now, time.UTC).Weekday)
}

func TestWeekend(t *testing.T) {
	assert.False(t, DayOf(time.Date(2024, 9, 7, 12, 0, 0, 0, time.UTC)).IsWeekday())
	assert.False(t, DayOf(time.Date(2024, 9, 8, 12, 0, 0, 0, time.UTC)).IsWeekday())
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"ČTVRTEK": time.Thursday,
		"ctvrtek": time.Thursday,
		" Úterý ": time.Tuesday,
		"pá":      time.Friday,
	} {
		got, ok := ParseWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseWeekday("monday")
	assert.False(t, ok)
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Zlutoucky kun", StripDiacritics("Žluťoučký kůň"))
	assert.Equal(t, "streda", Fold("STŘEDA"))
}

func TestNames(t *testing.T) {
	names := Names()
	require.Len(t, names, 7)
	assert.Equal(t, "neděle", names[0])
	names[0] = "changed"
	assert.Equal(t, "neděle", Name(time.Sunday))
}
