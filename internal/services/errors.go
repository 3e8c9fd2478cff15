package services

import (
	"errors"
	"fmt"

	"advent/internal/calendar"
	"advent/internal/models"
)

var (
	ErrInvalidDay    = calendar.ErrInvalidDay
	ErrGateClosed    = errors.New("door is closed")
	ErrAlreadyPlayed = errors.New("day already played")
	ErrEmptyPool     = errors.New("no prizes available")
)

// GateClosedError carries the gate decision so callers can show its reason.
type GateClosedError struct {
	Decision calendar.Decision
}

func (e *GateClosedError) Error() string {
	return e.Decision.Message()
}

func (e *GateClosedError) Is(target error) bool {
	return target == ErrGateClosed
}

// AlreadyPlayedError carries the original award for the day.
type AlreadyPlayedError struct {
	Entry models.HistoryEntry
}

func (e *AlreadyPlayedError) Error() string {
	return fmt.Sprintf("day %d already played", e.Entry.Day)
}

func (e *AlreadyPlayedError) Is(target error) bool {
	return target == ErrAlreadyPlayed
}
