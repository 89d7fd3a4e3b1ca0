package effects

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTransition = errors.New("unknown transition")
	ErrUnknownEffect     = errors.New("unknown effect")
)

// ConfigError reports a show setting that names something the compiler
// does not have. It aborts the whole compilation.
type ConfigError struct {
	// Kind is what was looked up: "begin transition", "effect", "shape"...
	Kind string
	Name string
	// Photo is the 1-based photo number, 0 when not known yet.
	Photo int
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Photo > 0 {
		return fmt.Sprintf("photo %d: %s %q: %v", e.Photo, e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
