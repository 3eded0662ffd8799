package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

const week = "Pondělí 1.1.\nSoup 50 Kč\nÚterý 2.1.\nOther 60 Kč"

func TestSection_StopsAtNextDay(t *testing.T) {
	section, ok := Section(week, monday, SectionOptions{})
	require.True(t, ok)
	assert.NotContains(t, section, "Other")

	items := ToMenuItems(ParseLines(textnorm.Lines(section), CascadeOptions{}))
	require.Len(t, items, 1)
	assert.Equal(t, "Soup", items[0].Name)
	assert.Equal(t, 50, items[0].Price)
}

func TestSection_LastDayRunsToEnd(t *testing.T) {
	tuesday := locale.DayOf(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC))
	section, ok := Section(week, tuesday, SectionOptions{})
	require.True(t, ok)
	assert.Equal(t, "Úterý 2.1.\nOther 60 Kč", section)
}

func TestSection_MissingDay(t *testing.T) {
	friday := locale.DayOf(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))
	_, ok := Section(week, friday, SectionOptions{})
	assert.False(t, ok)
}

func TestSection_RequireDate(t *testing.T) {
	text := "Otevřeno pondělí až pátek\nPONDĚLÍ 1. 1.\nKulajda 55 Kč\nÚTERÝ 2. 1.\nGuláš 150 Kč"
	section, ok := Section(text, monday, SectionOptions{RequireDate: true})
	require.True(t, ok)
	assert.Equal(t, "PONDĚLÍ 1. 1.\nKulajda 55 Kč\n", section)
}

func TestSection_EndMarker(t *testing.T) {
	text := "Pondělí\nKulajda 55 Kč\nStálá nabídka\nBurger 250 Kč"
	section, ok := Section(text, monday, SectionOptions{EndMarkers: []string{"STÁLÁ NABÍDKA"}})
	require.True(t, ok)
	assert.NotContains(t, section, "Burger")
}

func TestIsDayHeading(t *testing.T) {
	assert.True(t, IsDayHeading("Pondělí"))
	assert.True(t, IsDayHeading("  čtvrtek 4. 1. "))
	assert.False(t, IsDayHeading("Pondělí je zavřeno"))
}
