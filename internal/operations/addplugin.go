package operations

import (
	"errors"
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// IfPresent selects the outcome when the element to add is already
// declared in the document.
type IfPresent string

const (
	// IfPresentFail reports an error outcome. This is the default.
	IfPresentFail IfPresent = "fail"

	// IfPresentWarn reports a warning outcome and leaves the existing
	// declaration untouched.
	IfPresentWarn IfPresent = "warn"

	// IfPresentNoOp reports a no-op outcome and leaves the existing
	// declaration untouched.
	IfPresentNoOp IfPresent = "noop"

	// IfPresentOverwrite replaces the existing declaration.
	IfPresentOverwrite IfPresent = "overwrite"
)

func (p IfPresent) orDefault() IfPresent {
	if p == "" {
		return IfPresentFail
	}
	return p
}

func (p IfPresent) validate() error {
	switch p {
	case "", IfPresentFail, IfPresentWarn, IfPresentNoOp, IfPresentOverwrite:
		return nil
	}
	return fmt.Errorf("unknown ifPresent policy %q", string(p))
}

// AddPluginSpec holds the declaration AddPlugin writes into the build
// section.
type AddPluginSpec struct {
	Version      string
	Extensions   string
	Executions   []pom.PluginExecution
	Dependencies []pom.Dependency

	// IfPresent selects the outcome when the plugin is already
	// declared. The zero value is Fail.
	IfPresent IfPresent
}

// AddPlugin declares a new plugin in the build section.
type AddPlugin struct {
	groupID    string
	artifactID string
	spec       AddPluginSpec
}

// NewAddPlugin builds the operation, applying the same execution-id
// uniqueness rule as NewChangePlugin.
func NewAddPlugin(groupID, artifactID string, spec AddPluginSpec) (*AddPlugin, error) {
	if groupID == "" || artifactID == "" {
		return nil, fmt.Errorf("addPlugin requires groupId and artifactId")
	}
	if err := spec.IfPresent.validate(); err != nil {
		return nil, err
	}
	if err := validateExecutions(groupID, artifactID, spec.Executions); err != nil {
		return nil, err
	}
	return &AddPlugin{groupID: groupID, artifactID: artifactID, spec: spec}, nil
}

// Name implements Operation.
func (op *AddPlugin) Name() string { return "addPlugin" }

// Describe implements Operation.
func (op *AddPlugin) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Add Plugin %s:%s to POM file %s",
		op.groupID, op.artifactID, doc.RelativePath())
}

// Execute implements Operation.
func (op *AddPlugin) Execute(doc *pom.Document) result.Outcome {
	if doc.FindPlugin(op.groupID, op.artifactID) != nil {
		message := fmt.Sprintf("Plugin %s:%s is already present in %s",
			op.groupID, op.artifactID, doc.RelativePath())
		switch op.spec.IfPresent.orDefault() {
		case IfPresentWarn:
			return result.Warning(op.Describe(doc), errors.New(message))
		case IfPresentNoOp:
			return result.NoOp(op.Describe(doc), message)
		case IfPresentOverwrite:
			doc.RemovePlugin(op.groupID, op.artifactID)
		default:
			return result.Error(op.Describe(doc), errors.New(message))
		}
	}

	doc.AddPlugin(&pom.Plugin{
		GroupID:      op.groupID,
		ArtifactID:   op.artifactID,
		Version:      op.spec.Version,
		Extensions:   op.spec.Extensions,
		Executions:   op.spec.Executions,
		Dependencies: op.spec.Dependencies,
	})

	details := fmt.Sprintf("Plugin %s:%s has been added to %s",
		op.groupID, op.artifactID, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}
