package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"orggrep/internal/config"
	"orggrep/internal/engine"
	"orggrep/internal/fetcher"
)

func TestRunSearch_ValidationFailure(t *testing.T) {
	cfg := config.New() // no strings

	var stdout, stderr bytes.Buffer
	code := runSearch(context.Background(), cfg, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("exit code = %d, want %d", code, exitFatal)
	}
	if !strings.Contains(stderr.String(), "at least one search string") {
		t.Fatalf("expected validation error, got:\n%s", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("no report expected on validation failure, got:\n%s", stdout.String())
	}
}

func TestRunSearch_MissingTokenFailsBeforeAnyRequest(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("PATH", "") // keep the gh CLI fallback out of the picture

	cfg := config.New()
	cfg.Query.Strings = []string{"API_KEY"}

	var stdout, stderr bytes.Buffer
	code := runSearch(context.Background(), cfg, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("exit code = %d, want %d", code, exitFatal)
	}
	if !strings.Contains(stderr.String(), "auth token is required") {
		t.Fatalf("expected token error, got:\n%s", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("no report expected without a token, got:\n%s", stdout.String())
	}
}

func TestRunSearch_InvalidOrgSelector(t *testing.T) {
	cfg := config.New()
	cfg.Query.Strings = []string{"API_KEY"}
	cfg.Targeting.Org = "https://gitlab.com/acme"

	var stdout, stderr bytes.Buffer
	code := runSearch(context.Background(), cfg, &stdout, &stderr)
	if code != exitFatal {
		t.Fatalf("exit code = %d, want %d", code, exitFatal)
	}
	if !strings.Contains(stderr.String(), "invalid --org value") {
		t.Fatalf("expected org selector error, got:\n%s", stderr.String())
	}
}

func TestExitCodeForSearchError(t *testing.T) {
	if got := exitCodeForSearchError(&fetcher.RateLimitExceededError{Waits: 3}); got != exitRateLimited {
		t.Errorf("rate limit exhaustion = %d, want %d", got, exitRateLimited)
	}
	if got := exitCodeForSearchError(&fetcher.NetworkError{Attempts: 3, Err: fmt.Errorf("refused")}); got != exitFatal {
		t.Errorf("network error = %d, want %d", got, exitFatal)
	}
	if got := exitCodeForSearchError(fmt.Errorf("wrapped: %w", &fetcher.RateLimitExceededError{Waits: 1})); got != exitRateLimited {
		t.Errorf("wrapped rate limit = %d, want %d", got, exitRateLimited)
	}
}

func TestFinishSearch(t *testing.T) {
	partial := func() *engine.Summary {
		sum := &engine.Summary{Org: "acme", Repos: 3, Matches: engine.NewResultSet()}
		sum.Matches.Add(engine.MatchRecord{
			Repository: engine.Repository{FullName: "acme/api", URL: "https://github.com/acme/api"},
			Term:       "API_KEY",
		})
		return sum
	}

	t.Run("completed run reports and exits zero", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := finishSearch(&stdout, &stderr, partial(), nil)
		if code != exitOK {
			t.Fatalf("exit code = %d, want %d", code, exitOK)
		}
		if !strings.Contains(stdout.String(), "Repository: https://github.com/acme/api") {
			t.Fatalf("expected report, got:\n%s", stdout.String())
		}
	})

	t.Run("rate-limit exhaustion keeps the partial report", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := finishSearch(&stdout, &stderr, partial(), &fetcher.RateLimitExceededError{Waits: 3})
		if code != exitRateLimited {
			t.Fatalf("exit code = %d, want %d", code, exitRateLimited)
		}
		if !strings.Contains(stdout.String(), "Repository: https://github.com/acme/api") {
			t.Fatalf("expected partial report, got:\n%s", stdout.String())
		}
		if !strings.Contains(stderr.String(), "rate-limit") {
			t.Fatalf("expected rate-limit error, got:\n%s", stderr.String())
		}
	})

	t.Run("credential failure prints no report", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := finishSearch(&stdout, &stderr, partial(), &engine.AuthError{Reason: "Bad credentials"})
		if code != exitFatal {
			t.Fatalf("exit code = %d, want %d", code, exitFatal)
		}
		if stdout.Len() != 0 {
			t.Fatalf("no report expected on credential failure, got:\n%s", stdout.String())
		}
		if !strings.Contains(stderr.String(), "Bad credentials") {
			t.Fatalf("expected credential error, got:\n%s", stderr.String())
		}
	})

	t.Run("network failure prints no report", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := finishSearch(&stdout, &stderr, partial(), &fetcher.NetworkError{Attempts: 3, Err: fmt.Errorf("refused")})
		if code != exitFatal {
			t.Fatalf("exit code = %d, want %d", code, exitFatal)
		}
		if stdout.Len() != 0 {
			t.Fatalf("no report expected on network failure, got:\n%s", stdout.String())
		}
	})
}

func TestSearchCommandDefaults(t *testing.T) {
	orgFlag := searchCmd.Flags().Lookup("org")
	if orgFlag == nil {
		t.Fatal("expected --org flag")
	}
	if orgFlag.DefValue != config.DefaultOrg {
		t.Errorf("--org default = %q, want %q", orgFlag.DefValue, config.DefaultOrg)
	}

	for _, name := range []string{"strings", "ignore", "token", "max-repos", "max-rate-limit-waits"} {
		if searchCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag", name)
		}
	}
}
