package operations

import (
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// RemovePlugin deletes a plugin declaration from the build section.
type RemovePlugin struct {
	groupID      string
	artifactID   string
	ifNotPresent IfNotPresent
}

// NewRemovePlugin builds the operation.
func NewRemovePlugin(groupID, artifactID string, ifNotPresent IfNotPresent) (*RemovePlugin, error) {
	if groupID == "" || artifactID == "" {
		return nil, fmt.Errorf("removePlugin requires groupId and artifactId")
	}
	if err := ifNotPresent.validate(); err != nil {
		return nil, err
	}
	return &RemovePlugin{groupID: groupID, artifactID: artifactID, ifNotPresent: ifNotPresent}, nil
}

// Name implements Operation.
func (op *RemovePlugin) Name() string { return "removePlugin" }

// Describe implements Operation.
func (op *RemovePlugin) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Remove Plugin %s:%s from POM file %s",
		op.groupID, op.artifactID, doc.RelativePath())
}

// Execute implements Operation.
func (op *RemovePlugin) Execute(doc *pom.Document) result.Outcome {
	if _, ok := doc.RemovePlugin(op.groupID, op.artifactID); !ok {
		message := fmt.Sprintf("Plugin %s:%s is not present in %s",
			op.groupID, op.artifactID, doc.RelativePath())
		return resolveNotPresent(op.ifNotPresent, op.Describe(doc), message)
	}

	details := fmt.Sprintf("Plugin %s:%s has been removed from %s",
		op.groupID, op.artifactID, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}
