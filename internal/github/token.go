package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceFlag TokenSource = "flag"
	TokenSourceEnv  TokenSource = "env:GITHUB_TOKEN"
	TokenSourceGh   TokenSource = "gh"
)

// ResolveToken resolves a GitHub access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//  3. GitHub CLI: `gh auth token -h github.com`
//
// It never prints the token.
func ResolveToken(ctx context.Context, provided string) (token string, source TokenSource, err error) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, TokenSourceFlag, nil
	}

	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, TokenSourceEnv, nil
	}

	tok, ok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, TokenSourceGh, nil
	}
	return "", "", nil
}

func tokenFromGitHubCLI(ctx context.Context) (token string, ok bool, err error) {
	if _, lookErr := exec.LookPath("gh"); lookErr != nil {
		return "", false, nil
	}

	// Keep this bounded so a broken gh config or credential helper
	// doesn't hang the run.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	cmd.Env = append(os.Environ(), "GH_PAGER=cat")
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if cmdCtx.Err() != nil {
			return "", false, cmdCtx.Err()
		}
		// gh present but not logged in, or otherwise failing: treat as "no
		// token". The raw gh output is not surfaced to avoid leaking any
		// sensitive context.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}

	// Basic sanity: tokens must not contain whitespace.
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}

	return tok, true, nil
}
