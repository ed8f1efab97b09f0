package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/nholik/container-sentinel/internal/snapshot"
)

// RuntimeError captures errors that should not stop the runner loop.
type RuntimeError struct {
	Op       string
	CycleID  string
	CycleAt  time.Time
	Identity snapshot.Identity
	Err      error
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s (cycle %s at %s", e.Op, e.CycleID, e.CycleAt.Format(time.RFC3339))
	if e.Identity != "" {
		msg += fmt.Sprintf(", container %s", e.Identity)
	}
	return fmt.Sprintf("%s): %v", msg, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// wrapRuntime attaches cycle context to err unless it already carries it.
func wrapRuntime(op string, cycle *Cycle, err error) error {
	if err == nil {
		return nil
	}
	var existing *RuntimeError
	if errors.As(err, &existing) {
		return err
	}
	return &RuntimeError{
		Op:       op,
		CycleID:  cycle.ID,
		CycleAt:  cycle.At,
		Identity: cycle.Identity,
		Err:      err,
	}
}
