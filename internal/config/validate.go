package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Mode is "scrape"
// or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "file":
		if c.Store.Dir == "" {
			problems = append(problems, "store.dir is required for the file driver")
		}
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the "+c.Store.Driver+" driver")
		}
	default:
		problems = append(problems, "store.driver must be file, sqlite or postgres")
	}

	switch mode {
	case "scrape":
		if c.Scrape.Concurrency < 1 || c.Scrape.Concurrency > 8 {
			problems = append(problems, "scrape.concurrency must be between 1 and 8")
		}
		if c.Browser.NavigationTimeoutSecs <= 0 || c.Browser.ActionTimeoutSecs <= 0 {
			problems = append(problems, "browser timeouts must be positive")
		} else if c.Browser.ActionTimeoutSecs >= c.Browser.NavigationTimeoutSecs {
			problems = append(problems, "browser.action_timeout_secs must be shorter than browser.navigation_timeout_secs")
		}
		if c.Browser.NavAttempts < 1 {
			problems = append(problems, "browser.nav_attempts must be at least 1")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Trigger.CooldownMins < 0 {
			problems = append(problems, "trigger.cooldown_mins must not be negative")
		}
		if c.Trigger.GitHubToken != "" && (c.Trigger.Owner == "" || c.Trigger.Repo == "" || c.Trigger.Workflow == "") {
			problems = append(problems, "trigger.owner, trigger.repo and trigger.workflow are required with a github token")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid %s configuration: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}
