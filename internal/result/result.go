// Package result defines the outcome contract shared by all POM
// transformation operations.
package result

// Status classifies what an operation did to a document.
type Status string

const (
	// StatusSuccess means the operation changed the document.
	StatusSuccess Status = "success"

	// StatusWarning means the operation did not apply but the
	// condition is recoverable; the pipeline continues.
	StatusWarning Status = "warning"

	// StatusNoOp means the operation had nothing to do. Not an error:
	// re-applying a recipe is expected to produce no-ops.
	StatusNoOp Status = "noop"

	// StatusError means the operation failed; the pipeline stops
	// processing the document.
	StatusError Status = "error"
)

// Outcome describes what a single operation did to a single document.
type Outcome struct {
	Status    Status
	Name      string // operation identifier, e.g. changePlugin
	Operation string // operation description naming the target document
	Details   string // summary for success and no-op outcomes
	Err       error  // cause for warning and error outcomes
}

// Success reports a completed change.
func Success(operation, details string) Outcome {
	return Outcome{Status: StatusSuccess, Operation: operation, Details: details}
}

// Warning reports a recoverable condition that prevented the change.
func Warning(operation string, err error) Outcome {
	return Outcome{Status: StatusWarning, Operation: operation, Err: err}
}

// NoOp reports that there was nothing to change.
func NoOp(operation, message string) Outcome {
	return Outcome{Status: StatusNoOp, Operation: operation, Details: message}
}

// Error reports a failed operation.
func Error(operation string, err error) Outcome {
	return Outcome{Status: StatusError, Operation: operation, Err: err}
}

// Message returns the human-readable summary regardless of status.
func (o Outcome) Message() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Details
}

// Changed reports whether the outcome mutated the document.
func (o Outcome) Changed() bool {
	return o.Status == StatusSuccess
}
