package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// other code that needs to mention flags (error hints, help text). Keeping
// these as constants helps avoid drift between Cobra flag wiring and
// messages that reference flags.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Targeting.Org, flags.FlagOrg, "", "...")
//	hint := "--" + flags.FlagOrg
const (
	// Targeting
	FlagOrg      = "org"
	FlagMaxRepos = "max-repos"

	// Query
	FlagStrings = "strings"
	FlagIgnore  = "ignore"

	// Auth
	FlagToken = "token"

	// Runtime
	FlagMaxRateLimitWaits = "max-rate-limit-waits"
	FlagVerbose           = "verbose"
)
