package exitcodes

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Process exit codes of delegation-dashboard
const (
	// Success indicates successful command completion
	Success = 0

	// GeneralError indicates a general/unknown error
	GeneralError = 1

	// InvalidArgs indicates invalid command-line arguments or flags
	InvalidArgs = 2

	// ConfigError indicates the config file could not be read or parsed
	ConfigError = 3

	// NetworkError indicates the API or gateway could not be reached
	// (e.g., DNS failure, timeout, non-2xx response)
	NetworkError = 4

	// ContractError indicates a contract view call was rejected by the VM
	ContractError = 5

	// ValidationError indicates a config value failed validation
	// (e.g., malformed contract address, bad economics table)
	ValidationError = 6
)

// Exit terminates the program with the given code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints error message to stderr and exits with the given code
func ExitWithError(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// CodeForError returns the exit code carried by err. Wrapped
// ErrorWithCode values are found through the chain; a deadline without
// an explicit code counts as a network error.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}

	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NetworkError
	}
	return GeneralError
}
