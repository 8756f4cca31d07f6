package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v81/github"

	gh "orggrep/internal/github"
)

// Searcher answers "does this repository contain this string" via the
// GitHub code-search API, with every request passing through the governor.
type Searcher struct {
	client     *gh.Client
	governor   *Governor
	qualifiers []string
}

func NewSearcher(client *gh.Client, governor *Governor, ignore []string) *Searcher {
	return &Searcher{
		client:     client,
		governor:   governor,
		qualifiers: ignoreQualifiers(ignore),
	}
}

// RepoContains reports whether code search finds term anywhere in the
// repository named by fullName (OWNER/REPO).
func (s *Searcher) RepoContains(ctx context.Context, fullName, term string) (bool, error) {
	query := buildQuery(term, fullName, s.qualifiers)

	var result *github.CodeSearchResult
	err := s.governor.Do(ctx, func() error {
		// Only the total count matters, so ask for the smallest page.
		res, _, err := s.client.Search.Code(ctx, query, &github.SearchOptions{
			ListOptions: github.ListOptions{PerPage: 1},
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return false, err
	}
	return result.GetTotal() > 0, nil
}

// buildQuery assembles a code-search query: the term quoted, scoped to one
// repository, plus any exclusion qualifiers.
func buildQuery(term, fullName string, qualifiers []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q repo:%s", term, fullName)
	for _, q := range qualifiers {
		b.WriteByte(' ')
		b.WriteString(q)
	}
	return b.String()
}

// ignoreQualifiers maps user ignore patterns onto code-search exclusion
// qualifiers. Extension forms ("md", ".md", "*.md") become -extension:;
// path-like patterns ("/vendor", "docs/gen.md") become -path:.
func ignoreQualifiers(patterns []string) []string {
	var quals []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch {
		case strings.HasPrefix(p, "*.") || strings.HasPrefix(p, "."):
			quals = append(quals, "-extension:"+strings.TrimLeft(p, "*."))
		case !strings.Contains(p, ".") && !strings.HasPrefix(p, "/"):
			// Bare word without a dot: assume a file extension.
			quals = append(quals, "-extension:"+p)
		default:
			quals = append(quals, "-path:"+p)
		}
	}
	return quals
}
