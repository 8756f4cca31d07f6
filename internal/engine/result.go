package engine

import "sort"

// Repository is one repository returned by organization enumeration.
type Repository struct {
	FullName string // OWNER/REPO
	URL      string // html_url
}

// MatchRecord is one confirmed (repository, term) hit.
type MatchRecord struct {
	Repository Repository
	Term       string
}

// SkippedRepo records a repository the run could not search, with the
// reason shown in the final report.
type SkippedRepo struct {
	Repository Repository
	Reason     string
}

// ResultSet maps repository URLs to the set of terms matched there.
// Repositories keep first-match order; terms render sorted.
type ResultSet struct {
	order []string
	terms map[string]map[string]struct{}
}

func NewResultSet() *ResultSet {
	return &ResultSet{terms: make(map[string]map[string]struct{})}
}

func (rs *ResultSet) Add(m MatchRecord) {
	url := m.Repository.URL
	if _, ok := rs.terms[url]; !ok {
		rs.order = append(rs.order, url)
		rs.terms[url] = make(map[string]struct{})
	}
	rs.terms[url][m.Term] = struct{}{}
}

// Len is the number of repositories with at least one match.
func (rs *ResultSet) Len() int {
	return len(rs.order)
}

// URLs returns repository URLs in first-match order.
func (rs *ResultSet) URLs() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Terms returns the matched terms for a repository URL, sorted.
func (rs *ResultSet) Terms(url string) []string {
	set, ok := rs.terms[url]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for term := range set {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Summary is everything the reporter needs about a finished (or partially
// finished) run.
type Summary struct {
	Org     string
	Repos   int // repositories enumerated
	Matches *ResultSet
	NoMatch int // repositories searched with no match
	Skipped []SkippedRepo
}
