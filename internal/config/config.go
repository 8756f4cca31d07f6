package config

import (
	"fmt"
	"strings"
)

// DefaultOrg is the organization searched when --org is not given.
const DefaultOrg = "my-org"

type Config struct {
	Targeting Targeting
	Query     Query
	Auth      Auth
	Runtime   Runtime
}

type Targeting struct {
	// Org is the GitHub organization account to search (name or URL; see --org).
	Org string

	// MaxRepos limits how many repositories are enumerated (see --max-repos).
	// 0 means the built-in cap.
	MaxRepos int
}

type Query struct {
	// Strings are the literal terms to search for (see --strings).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Strings []string

	// Ignore holds patterns excluded from search (see --ignore). File
	// extensions ("md", ".md", "*.md") become -extension: qualifiers;
	// path-like patterns become -path: qualifiers.
	Ignore []string
}

type Auth struct {
	// Token is an explicit GitHub access token (see --token). When empty the
	// token is resolved from GITHUB_TOKEN or the gh CLI.
	Token string
}

type Runtime struct {
	// Verbose logs every GitHub API call to stderr (see --verbose).
	Verbose bool

	// MaxRateLimitWaits is how many rate-limit sleeps a single request may
	// consume before the run gives up (see --max-rate-limit-waits).
	MaxRateLimitWaits int
}

func New() *Config {
	return &Config{
		Targeting: Targeting{
			Org: DefaultOrg,
		},
		Runtime: Runtime{
			MaxRateLimitWaits: 3,
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Targeting.Org) == "" {
		return fmt.Errorf("organization is required")
	}
	if c.Targeting.MaxRepos < 0 {
		return fmt.Errorf("max-repos must be >= 0 (got %d)", c.Targeting.MaxRepos)
	}

	terms := 0
	for _, s := range c.Query.Strings {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("search strings must not be blank")
		}
		terms++
	}
	if terms == 0 {
		return fmt.Errorf("at least one search string is required")
	}

	if c.Runtime.MaxRateLimitWaits < 0 {
		return fmt.Errorf("max-rate-limit-waits must be >= 0 (got %d)", c.Runtime.MaxRateLimitWaits)
	}

	return nil
}
