package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline's failure taxonomy. Per-candidate and
// per-record errors are recovered locally; only bot-wall detection and
// configuration errors terminate a source or the run.
var (
	// ErrBotWall indicates a persistent anti-automation challenge. Fatal
	// to the listing phase of one source after a single backoff retry.
	ErrBotWall = errors.New("bot wall detected")

	// ErrExtractionFailed indicates no strategy produced a usable identity
	// for a candidate. The candidate is dropped, non-fatal.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSchemaViolation indicates a raw record is missing a mandatory
	// canonical field. The record is dropped at the normalizer, non-fatal.
	ErrSchemaViolation = errors.New("schema violation")
)

// BotWallError carries the source and URL where a challenge persisted
// past the configured backoff.
type BotWallError struct {
	Source SourceID
	URL    string
}

func (e *BotWallError) Error() string {
	return fmt.Sprintf("bot wall detected for source %q at %s", e.Source, e.URL)
}

// Unwrap lets callers branch with errors.Is(err, ErrBotWall).
func (e *BotWallError) Unwrap() error {
	return ErrBotWall
}
