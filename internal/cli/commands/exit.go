package commands

import "fmt"

// Process exit codes.
const (
	ExitOK             = 0
	ExitUnresolved     = 1
	ExitInfrastructure = 2
)

// ExitError ends the process with Code. A nil Err means the command has
// already reported everything it needs to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func infrastructure(err error) error {
	return &ExitError{Code: ExitInfrastructure, Err: err}
}
