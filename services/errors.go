package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services and the HTTP error mapping.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrFormatNotFound     = errors.New("format not found")
	ErrStageNotFound      = errors.New("stage not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")

	ErrMatchNotFinal = errors.New("match is not finalized")
)

// PrereqNotMetError reports an operation attempted before its inputs
// were ready. Missing names each unmet prerequisite in a stable,
// human-readable form (e.g. "phase1:B standings undecided").
type PrereqNotMetError struct {
	Missing []string
}

func (e *PrereqNotMetError) Error() string {
	return "prerequisites not met: " + strings.Join(e.Missing, ", ")
}

// AlreadyExistsError reports generated state that a non-forced call
// refuses to overwrite. Count carries how much of it exists so clients
// can show "15 matches would be discarded" before re-asking with force.
type AlreadyExistsError struct {
	Resource string
	Detail   string
	Count    int
}

func (e *AlreadyExistsError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s already exist: %s", e.Resource, e.Detail)
	}
	return e.Resource + " already exist"
}

type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return "invalid input: " + e.Reason
}
