// Package operations implements the POM transformation operation
// family. Each operation edits one aspect of a single POM document and
// reports a structured outcome; recipes assemble operations into a
// pipeline.
//
// Operations are validated when they are built, not when they run:
// a malformed operation (for example two plugin executions sharing
// an id) rejects the constructor before any document is touched. The
// only runtime-resolvable condition is an absent target element, whose
// outcome the caller selects through the IfNotPresent policy.
package operations

import (
	"errors"
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// Operation is a single scripted edit against one POM document.
type Operation interface {
	// Name returns the operation identifier used in recipes and logs.
	Name() string

	// Describe returns a human-readable description naming the target
	// document.
	Describe(doc *pom.Document) string

	// Execute applies the operation and reports the outcome. Execute
	// never partially applies: either the whole edit lands or the
	// document is untouched.
	Execute(doc *pom.Document) result.Outcome
}

// IfNotPresent selects the outcome when an operation's target element
// does not exist in the document.
type IfNotPresent string

const (
	// IfNotPresentFail reports an error outcome. This is the default.
	IfNotPresentFail IfNotPresent = "fail"

	// IfNotPresentWarn reports a warning outcome; the condition is
	// treated as recoverable.
	IfNotPresentWarn IfNotPresent = "warn"

	// IfNotPresentNoOp reports a no-op outcome with no error
	// semantics.
	IfNotPresentNoOp IfNotPresent = "noop"
)

func (p IfNotPresent) orDefault() IfNotPresent {
	if p == "" {
		return IfNotPresentFail
	}
	return p
}

func (p IfNotPresent) validate() error {
	switch p {
	case "", IfNotPresentFail, IfNotPresentWarn, IfNotPresentNoOp:
		return nil
	}
	return fmt.Errorf("unknown ifNotPresent policy %q", string(p))
}

// resolveNotPresent builds the outcome for an absent target according
// to the policy. All three outcomes carry the same message.
func resolveNotPresent(policy IfNotPresent, operation, message string) result.Outcome {
	switch policy.orDefault() {
	case IfNotPresentWarn:
		return result.Warning(operation, errors.New(message))
	case IfNotPresentNoOp:
		return result.NoOp(operation, message)
	default:
		return result.Error(operation, errors.New(message))
	}
}

// validateExecutions rejects execution lists in which two entries share
// an id. Two entries with a missing id count as duplicates of the empty
// id.
func validateExecutions(groupID, artifactID string, executions []pom.PluginExecution) error {
	seen := make(map[string]struct{}, len(executions))
	for _, exec := range executions {
		if _, dup := seen[exec.ID]; dup {
			return fmt.Errorf(
				"plugin %s:%s: two executions share the same (or missing) <id/> element %q",
				groupID, artifactID, exec.ID)
		}
		seen[exec.ID] = struct{}{}
	}
	return nil
}
