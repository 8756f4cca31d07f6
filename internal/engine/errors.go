package engine

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
)

// AuthError is fatal: the run aborts immediately and no report is printed.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// classifyAPIError upgrades credential failures to AuthError and leaves
// everything else alone.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusUnauthorized {
		msg := er.Message
		if msg == "" {
			msg = "bad credentials"
		}
		return &AuthError{Reason: msg}
	}
	return err
}
