package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"orggrep/internal/config"
	"orggrep/internal/engine"
	"orggrep/internal/fetcher"
	"orggrep/internal/flags"
	gh "orggrep/internal/github"
	"orggrep/internal/output"
)

var cfg = config.New()

// Exit code contract:
//
//	0 = run completed (zero matches is still a completed run)
//	2 = rate-limit retry budget exhausted; partial report was printed
//	3 = fatal error (bad credentials, persistent network failure)
const (
	exitOK          = 0
	exitRateLimited = 2
	exitFatal       = 3
)

const searchHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	orggrep authenticates to GitHub using an access token.

	Sources (in order):
	1) --token flag
	2) GITHUB_TOKEN environment variable
	3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

  Token guidance (brief):
  - PAT (classic): typically needs repo (to search private repos) and
    read:org (to enumerate org repositories).

  Examples:
    # macOS/Linux
    export GITHUB_TOKEN="<your_token>"
    orggrep search --strings API_KEY

    # GitHub CLI auth
    gh auth login
    orggrep search --strings API_KEY --org acme
`

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the organization's repositories for literal strings",
	Long: `Search every repository of a GitHub organization for literal strings via
the GitHub code-search API.

The run is strictly sequential: requests are paced to stay under GitHub's
code-search budget (10 per minute for authenticated requests), and a
rate-limit response makes the run sleep until the reported reset before
retrying.

Repositories GitHub declines to search (empty or not yet indexed) are
skipped and listed at the end of the report.

Exit codes:
	0 = run completed (even with zero matches)
	2 = rate-limit retry budget exhausted (partial report printed)
	3 = fatal error (bad credentials, persistent network failure)

Examples:
  export GITHUB_TOKEN="<your_token>"
  orggrep search --strings API_KEY --strings SECRET_TOKEN

  # Skip markdown and the CI config directory
  orggrep search --strings API_KEY --ignore md --ignore .circleci
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && cmd.Flags().NFlag() == 0 {
			_ = cmd.Help()
			return
		}
		os.Exit(runSearch(cmd.Context(), cfg, os.Stdout, os.Stderr))
	},
}

func runSearch(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}

	org, err := engine.NormalizeOrgSelector(cfg.Targeting.Org)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --%s value: %v\n", flags.FlagOrg, err)
		return exitFatal
	}

	token, _, err := gh.ResolveToken(ctx, cfg.Auth.Token)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to resolve GitHub auth token: %v\n", err)
		return exitFatal
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintf(stderr, "Error: GitHub auth token is required (set GITHUB_TOKEN, pass --%s, or run 'gh auth login')\n", flags.FlagToken)
		return exitFatal
	}

	client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, stderr))
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create GitHub client: %v\n", err)
		return exitFatal
	}

	repos, err := engine.ListOrgRepositories(ctx, client, org, cfg.Targeting.MaxRepos)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeForSearchError(err)
	}
	fmt.Fprintf(stderr, "Found %d repositories in %s\n", len(repos), org)

	governor := fetcher.NewGovernor(cfg.Runtime.MaxRateLimitWaits, stderr)
	searcher := fetcher.NewSearcher(client, governor, cfg.Query.Ignore)

	sum, searchErr := engine.Search(ctx, searcher, org, repos, cfg.Query.Strings, stderr)
	return finishSearch(stdout, stderr, sum, searchErr)
}

// finishSearch renders the report and maps the run outcome to an exit code.
// A run that dies on credentials or the network prints no report; only
// rate-limit exhaustion keeps the partial report, so everything gathered
// before the budget ran out is still shown.
func finishSearch(stdout, stderr io.Writer, sum *engine.Summary, err error) int {
	if err == nil {
		output.RenderReport(stdout, sum)
		return exitOK
	}

	code := exitCodeForSearchError(err)
	if code == exitRateLimited {
		output.RenderReport(stdout, sum)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return code
}

func exitCodeForSearchError(err error) int {
	var rle *fetcher.RateLimitExceededError
	if errors.As(err, &rle) {
		return exitRateLimited
	}
	return exitFatal
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.SetHelpTemplate(searchHelpTemplate)

	// Query
	searchCmd.Flags().StringSliceVar(&cfg.Query.Strings, flags.FlagStrings, nil, "Literal strings to search for (repeatable; comma-separated accepted)")
	searchCmd.Flags().StringSliceVar(&cfg.Query.Ignore, flags.FlagIgnore, nil, "Patterns to exclude: file extensions ('md', '.md', '*.md') or paths ('/vendor') (repeatable)")

	// Targeting
	searchCmd.Flags().StringVar(&cfg.Targeting.Org, flags.FlagOrg, cfg.Targeting.Org, "GitHub organization to search (name or URL)")
	searchCmd.Flags().IntVar(&cfg.Targeting.MaxRepos, flags.FlagMaxRepos, 0, "Maximum number of repositories to enumerate (0 = built-in cap)")

	// Auth
	searchCmd.Flags().StringVar(&cfg.Auth.Token, flags.FlagToken, "", "GitHub access token (default: GITHUB_TOKEN, then gh CLI)")

	// Runtime
	searchCmd.Flags().IntVar(&cfg.Runtime.MaxRateLimitWaits, flags.FlagMaxRateLimitWaits, cfg.Runtime.MaxRateLimitWaits, "Rate-limit sleeps allowed per request before giving up")
}
