// Package perrors defines the pipeline runtime's error taxonomy. It mirrors
// the shape of the teacher's infrastructure/errors.ServiceError (a code, a
// message, and an optional wrapped cause) but replaces the HTTP-oriented
// codes with the runtime's own fatal/non-fatal distinctions.
package perrors

import "fmt"

// Code identifies one category of pipeline error.
type Code string

const (
	// CodeValidation covers pre-run configuration and schema errors.
	CodeValidation Code = "VALIDATION"
	// CodeGraphValidation covers graph-build-time structural errors:
	// acyclicity, edge label uniqueness, schema compatibility, dangling
	// routes.
	CodeGraphValidation Code = "GRAPH_VALIDATION"
	// CodeRouteValidation covers at-row-time routing errors: a quarantined
	// row with no matching sink, or a missing __quarantine__ edge.
	CodeRouteValidation Code = "ROUTE_VALIDATION"
	// CodeInvariant covers runtime invariant breaches: missing schema
	// contract on a resumed run or a coalesced token, fatal contract
	// merges. Always fatal.
	CodeInvariant Code = "ORCHESTRATION_INVARIANT"
	// CodeExternal covers sink/source failures below the plugin contract
	// boundary (recorder I/O, payload store I/O, checkpoint commits).
	CodeExternal Code = "EXTERNAL"
	// CodeShutdown is not a failure; it signals a graceful, cooperative
	// stop that produces an INTERRUPTED run.
	CodeShutdown Code = "GRACEFUL_SHUTDOWN"
	// CodeIncompatibleCheckpoint is returned when a checkpoint's
	// format_version does not match the resuming binary.
	CodeIncompatibleCheckpoint Code = "INCOMPATIBLE_CHECKPOINT"
	// CodeCheckpointCorruption is returned when a checkpoint's stored
	// state fails to deserialize or fails an integrity check.
	CodeCheckpointCorruption Code = "CHECKPOINT_CORRUPTION"
	// CodeBatchPending signals that an operation was deliberately left
	// pending by an asynchronous batch sink; it is not an error outcome.
	CodeBatchPending Code = "BATCH_PENDING"
)

// Error is a structured pipeline error: a code, a human message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error wrapping an existing cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Is reports whether err carries the given code, unwrapping through
// standard error chains.
func Is(err error, code Code) bool {
	var pe *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			pe = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return pe != nil && pe.Code == code
}

// GracefulShutdown is returned by the orchestrator loop when the
// process-global shutdown flag was observed between steps. It carries the
// run and row count observed at the moment of interruption.
type GracefulShutdown struct {
	RunID        string
	RowsProcessed int
}

func (e *GracefulShutdown) Error() string {
	return fmt.Sprintf("graceful shutdown: run=%s rows_processed=%d", e.RunID, e.RowsProcessed)
}
