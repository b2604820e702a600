package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/steveyegge/issuesnap/internal/config"
	"github.com/steveyegge/issuesnap/internal/github"
	"github.com/steveyegge/issuesnap/internal/snapshot"
	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/types"
)

// outputJSON writes data as pretty-printed JSON.
func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// outputJSONLine writes data as a single line of JSON.
func outputJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// writeJSONError writes {"error": ..., "code": ...}. The code is omitted
// when the error has no stable classification.
func writeJSONError(w io.Writer, err error) {
	errObj := map[string]string{"error": err.Error()}
	if code := errorCode(err); code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if encErr := encoder.Encode(errObj); encErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// errorCode classifies err for machine consumers.
func errorCode(err error) string {
	var fetchErr *github.FetchError
	switch {
	case errors.Is(err, github.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, github.ErrInvalidRepo):
		return "invalid_repo"
	case errors.As(err, &fetchErr):
		return "fetch_failed"
	case errors.Is(err, snapshot.ErrNoCapture):
		return "not_found"
	case errors.Is(err, snapshot.ErrCaptureExists):
		return "capture_exists"
	case errors.Is(err, state.ErrUnknownBackend), errors.Is(err, types.ErrInvalidMode):
		return "invalid_argument"
	case errors.Is(err, config.ErrConfigExists):
		return "exists"
	}
	return ""
}
