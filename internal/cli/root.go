package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orggrep/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "orggrep",
	Short: "Search every repository of a GitHub organization for literal strings",
	Long: `orggrep queries the GitHub code-search API to find occurrences of literal
strings across every repository owned by an organization, then prints the
repository URLs where matches occurred, annotated with which strings matched.

orggrep is read-only: it issues search queries and never mutates state.

Examples:
	# Show available commands and global flags
	orggrep --help

	# Search the default organization for two strings
	orggrep search --strings API_KEY --strings SECRET_TOKEN

	# Print build info
	orggrep version

Output:
	Progress and warnings go to stderr; the final report goes to stdout.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
