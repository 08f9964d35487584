package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/migratory/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// RepositoryBusy indicates the target repository is locked by another run
	RepositoryBusy = 3

	// ValidationError indicates the plan or its inputs failed validation
	ValidationError = 4

	// FetchError indicates the repository contents could not be fetched
	FetchError = 5

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeRepositoryBusy:
		return RepositoryBusy
	case errors.ErrCodePlanInvalid, errors.ErrCodePlanCyclicDep, errors.ErrCodeValidationFailed:
		return ValidationError
	case errors.ErrCodeFetchFailed:
		return FetchError
	}

	// Untyped errors from flag parsing and command dispatch
	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "unknown flag") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case RepositoryBusy:
		return "Repository locked by another migration"
	case ValidationError:
		return "Plan validation failed"
	case FetchError:
		return "Repository fetch failed"
	case Interrupted:
		return "Interrupted by signal"
	default:
		return "Unknown error"
	}
}
