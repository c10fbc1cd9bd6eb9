package operations

import (
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// SetProperty sets a <properties> entry, creating the block and the
// entry as needed. Setting a property to its current value is still a
// no-op outcome so re-applying a recipe stays idempotent.
type SetProperty struct {
	name  string
	value string
}

// NewSetProperty builds the operation.
func NewSetProperty(name, value string) (*SetProperty, error) {
	if name == "" {
		return nil, fmt.Errorf("setProperty requires a property name")
	}
	return &SetProperty{name: name, value: value}, nil
}

// Name implements Operation.
func (op *SetProperty) Name() string { return "setProperty" }

// Describe implements Operation.
func (op *SetProperty) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Set property %s in POM file %s", op.name, doc.RelativePath())
}

// Execute implements Operation.
func (op *SetProperty) Execute(doc *pom.Document) result.Outcome {
	if current, ok := doc.GetProperty(op.name); ok && current == op.value {
		message := fmt.Sprintf("Property %s is already set to %s in %s",
			op.name, op.value, doc.RelativePath())
		return result.NoOp(op.Describe(doc), message)
	}

	doc.SetProperty(op.name, op.value)

	details := fmt.Sprintf("Property %s has been set to %s in %s",
		op.name, op.value, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}

// RemoveProperty deletes a <properties> entry.
type RemoveProperty struct {
	name         string
	ifNotPresent IfNotPresent
}

// NewRemoveProperty builds the operation.
func NewRemoveProperty(name string, ifNotPresent IfNotPresent) (*RemoveProperty, error) {
	if name == "" {
		return nil, fmt.Errorf("removeProperty requires a property name")
	}
	if err := ifNotPresent.validate(); err != nil {
		return nil, err
	}
	return &RemoveProperty{name: name, ifNotPresent: ifNotPresent}, nil
}

// Name implements Operation.
func (op *RemoveProperty) Name() string { return "removeProperty" }

// Describe implements Operation.
func (op *RemoveProperty) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Remove property %s from POM file %s", op.name, doc.RelativePath())
}

// Execute implements Operation.
func (op *RemoveProperty) Execute(doc *pom.Document) result.Outcome {
	if !doc.RemoveProperty(op.name) {
		message := fmt.Sprintf("Property %s is not present in %s",
			op.name, doc.RelativePath())
		return resolveNotPresent(op.ifNotPresent, op.Describe(doc), message)
	}

	details := fmt.Sprintf("Property %s has been removed from %s",
		op.name, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}
