package operations

import (
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// ChangeDependencySpec enumerates the intended edits to one project
// dependency. Version and scope follow the same set/remove/leave rule
// as ChangePluginSpec fields, with removal winning over a supplied
// value.
type ChangeDependencySpec struct {
	Version string
	Scope   string

	RemoveVersion bool
	RemoveScope   bool

	// IfNotPresent selects the outcome when the dependency is not
	// declared in the document. The zero value is Fail.
	IfNotPresent IfNotPresent
}

// ChangeDependency edits a dependency already declared in the project.
// It changes anything but the group and artifact ids.
type ChangeDependency struct {
	groupID    string
	artifactID string
	spec       ChangeDependencySpec
}

// NewChangeDependency builds the operation.
func NewChangeDependency(groupID, artifactID string, spec ChangeDependencySpec) (*ChangeDependency, error) {
	if groupID == "" || artifactID == "" {
		return nil, fmt.Errorf("changeDependency requires groupId and artifactId")
	}
	if err := spec.IfNotPresent.validate(); err != nil {
		return nil, err
	}
	return &ChangeDependency{groupID: groupID, artifactID: artifactID, spec: spec}, nil
}

// Name implements Operation.
func (op *ChangeDependency) Name() string { return "changeDependency" }

// Describe implements Operation.
func (op *ChangeDependency) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Change Dependency %s:%s in POM file %s",
		op.groupID, op.artifactID, doc.RelativePath())
}

// Execute implements Operation. Like ChangePlugin, the dependency is
// detached, mutated, and reattached.
func (op *ChangeDependency) Execute(doc *pom.Document) result.Outcome {
	if doc.FindDependency(op.groupID, op.artifactID) == nil {
		message := fmt.Sprintf("Dependency %s:%s is not present in %s",
			op.groupID, op.artifactID, doc.RelativePath())
		return resolveNotPresent(op.spec.IfNotPresent, op.Describe(doc), message)
	}

	dep, _ := doc.RemoveDependency(op.groupID, op.artifactID)

	switch {
	case op.spec.RemoveVersion:
		dep.Version = ""
	case op.spec.Version != "":
		dep.Version = op.spec.Version
	}

	switch {
	case op.spec.RemoveScope:
		dep.Scope = ""
	case op.spec.Scope != "":
		dep.Scope = op.spec.Scope
	}

	doc.AddDependency(dep)

	details := fmt.Sprintf("Dependency %s:%s has been changed in %s",
		op.groupID, op.artifactID, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}
