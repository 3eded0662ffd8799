package browsertest

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lunch-cli/internal/browser"
)

var _ browser.Session = (*Page)(nil)
var _ browser.Acquirer = (*Acquirer)(nil)

func TestPage_NavigateAndClick(t *testing.T) {
	ctx := context.Background()
	p := NewPage(map[string]Document{
		"https://a.cz": {
			Text:      "landing",
			Clickable: map[string]Document{"Denní Menu": {Text: "menu"}},
		},
	})

	require.NoError(t, p.Navigate(ctx, "https://a.cz"))
	assert.Equal(t, "https://a.cz", p.URL())

	ok, err := p.ClickText(ctx, "Denní", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	text, _ := p.Text(ctx)
	assert.Equal(t, "menu", text)
}

func TestPage_MissingFixtureIsNavigationError(t *testing.T) {
	p := NewPage(nil)
	err := p.Navigate(context.Background(), "https://missing.cz")
	assert.True(t, eris.Is(err, browser.ErrNavigation))

	p.FailNavigation("https://down.cz", errors.New("timeout"))
	assert.Error(t, p.Navigate(context.Background(), "https://down.cz"))
	assert.Len(t, p.Navigated, 2)
}
