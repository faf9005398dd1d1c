package anim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSetup is returned when the manager is used before Setup or
	// after Discard.
	ErrNotSetup = errors.New("anim: manager not set up")
	// ErrNotInFrame is returned when a frame-staged operation is called
	// outside NewFrame..Evaluate.
	ErrNotInFrame = errors.New("anim: not in frame")
	// ErrInFrame is returned when NewFrame is called while a frame is
	// already open.
	ErrInFrame = errors.New("anim: already in frame")
)

// ErrPoolExhausted indicates a fixed-capacity pool cannot hold a creation
// request. Nothing is mutated when it is returned.
type ErrPoolExhausted struct {
	Pool     string // "clip", "curve", "key", "matrix", "library", "skeleton", "instance"
	Need     int
	Have     int
	Capacity int
}

func (e *ErrPoolExhausted) Error() string {
	return fmt.Sprintf("anim: %s pool exhausted: need %d, have %d of %d", e.Pool, e.Need, e.Have, e.Capacity)
}

// ErrCurveLayoutMismatch indicates a clip definition whose curve count does
// not match the library layout.
type ErrCurveLayoutMismatch struct {
	Clip string
	Got  int
	Want int
}

func (e *ErrCurveLayoutMismatch) Error() string {
	return fmt.Sprintf("anim: curve count mismatch in clip %q: got %d, want %d", e.Clip, e.Got, e.Want)
}

// ErrWrongKeyByteCount indicates a WriteKeys call whose payload does not
// match the library's key storage exactly.
type ErrWrongKeyByteCount struct {
	Got  int
	Want int
}

func (e *ErrWrongKeyByteCount) Error() string {
	return fmt.Sprintf("anim: wrong key byte count: got %d, want %d", e.Got, e.Want)
}
