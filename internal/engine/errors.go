package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrPhysics marks a step aborted by a physics hook.
	ErrPhysics = errors.New("physics hook failed")

	// ErrUnknownModule reports a module name with no registration.
	ErrUnknownModule = errors.New("unknown module")
)

// PhysicsError wraps a hook failure with the step it aborted. The step
// counter and simulation time are left as they were before the step.
type PhysicsError struct {
	Hook string
	Step int
	Time float64
	Err  error
}

func (e *PhysicsError) Error() string {
	return fmt.Sprintf("step %d at t=%g: hook %s: %v", e.Step, e.Time, e.Hook, e.Err)
}

func (e *PhysicsError) Unwrap() error { return e.Err }

// Is matches ErrPhysics.
func (e *PhysicsError) Is(target error) bool { return target == ErrPhysics }
