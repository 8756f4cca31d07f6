package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"orggrep/internal/engine"
)

const ruleWidth = 80

// RenderReport writes the final human-readable report: the organization
// header, one section per matched repository, then the totals. Pure
// formatting: no network, no mutation of the summary.
func RenderReport(w io.Writer, sum *engine.Summary) {
	bold := color.New(color.Bold)

	fmt.Fprintf(w, "Organization: %s\n", sum.Org)
	fmt.Fprintf(w, "Repositories enumerated: %d\n\n", sum.Repos)

	if sum.Matches.Len() == 0 {
		fmt.Fprintln(w, "No repositories found containing the specified strings.")
	} else {
		fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
		_, _ = bold.Fprintln(w, "SEARCH RESULTS")
		fmt.Fprintln(w, strings.Repeat("=", ruleWidth))

		for _, url := range sum.Matches.URLs() {
			fmt.Fprintf(w, "\nRepository: %s\n", url)
			fmt.Fprintf(w, "Found strings: %s\n", strings.Join(sum.Matches.Terms(url), ", "))
		}
	}

	fmt.Fprintf(w, "\nTotal repositories with matches: %d\n", sum.Matches.Len())
	fmt.Fprintf(w, "Repositories searched without matches: %d\n", sum.NoMatch)
	fmt.Fprintf(w, "Skipped repositories: %d\n", len(sum.Skipped))
	for _, s := range sum.Skipped {
		fmt.Fprintf(w, "  - %s: %s\n", s.Repository.FullName, s.Reason)
	}
}
