package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"orggrep/internal/fetcher"
)

// Searcher is the per-repository code-search dependency.
type Searcher interface {
	RepoContains(ctx context.Context, fullName, term string) (bool, error)
}

// Search runs the sequential search: for each repository, for each term,
// ask the searcher for a match. Per-repository failures are downgraded to
// skip-and-continue; only credential failures, exhausted rate-limit
// budgets, and persistent network failures propagate. On error the returned
// Summary still holds everything gathered so far.
//
// Progress and warnings are written to progress as the run advances.
func Search(ctx context.Context, s Searcher, org string, repos []Repository, terms []string, progress io.Writer) (*Summary, error) {
	if progress == nil {
		progress = io.Discard
	}

	sum := &Summary{
		Org:     org,
		Repos:   len(repos),
		Matches: NewResultSet(),
	}

	for i, repo := range repos {
		fmt.Fprintf(progress, "searching repository %d/%d: %s\n", i+1, len(repos), repo.FullName)

		matched, skipReason, err := searchRepo(ctx, s, repo, terms, progress)
		if err != nil {
			return sum, err
		}
		if skipReason != "" {
			// An unsearchable repository never contributes matches, even if
			// an earlier term already hit.
			sum.Skipped = append(sum.Skipped, SkippedRepo{Repository: repo, Reason: skipReason})
			continue
		}
		if len(matched) == 0 {
			sum.NoMatch++
			continue
		}
		for _, term := range matched {
			sum.Matches.Add(MatchRecord{Repository: repo, Term: term})
		}
	}

	return sum, nil
}

// searchRepo runs every term against one repository. It returns the matched
// terms, a non-empty skip reason when the repository turned out to be
// unsearchable, or an error that should end the run.
func searchRepo(ctx context.Context, s Searcher, repo Repository, terms []string, progress io.Writer) (matched []string, skipReason string, err error) {
	for _, term := range terms {
		fmt.Fprintf(progress, "  searching for %q\n", term)

		found, err := s.RepoContains(ctx, repo.FullName, term)
		if err != nil {
			if errors.Is(err, fetcher.ErrUnsearchableRepository) {
				fmt.Fprintf(progress, "warning: skipping %s: repository is not searchable\n", repo.FullName)
				return nil, "not searchable (empty or not indexed)", nil
			}

			var us *fetcher.UnexpectedStatusError
			if errors.As(err, &us) {
				if us.StatusCode == http.StatusUnauthorized {
					return nil, "", classifyAPIError(err)
				}
				fmt.Fprintf(progress, "warning: %s: unexpected status %d searching for %q; skipping\n",
					repo.FullName, us.StatusCode, term)
				continue
			}

			// Rate-limit exhaustion, network failure, cancellation.
			return matched, "", err
		}

		if found {
			fmt.Fprintf(progress, "  found %q in %s\n", term, repo.FullName)
			matched = append(matched, term)
		}
	}
	return matched, "", nil
}
