package operations

import (
	"fmt"

	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/result"
)

// ChangePluginSpec enumerates the intended edits to one plugin. Each of
// the five mutable fields follows the same rule: the remove flag clears
// the field, otherwise a supplied value overwrites it, otherwise the
// field keeps its current value. When both a remove flag and a value
// are given for the same field, removal wins and the value is ignored.
//
// Removing a field lets it fall back to its default or to plugin
// management; no check is made here for configurations that would break
// the build, like removing the version of an unmanaged plugin.
type ChangePluginSpec struct {
	Version      string
	Extensions   string
	Executions   []pom.PluginExecution
	Dependencies []pom.Dependency
	Goals        *pom.Goals

	RemoveVersion      bool
	RemoveExtensions   bool
	RemoveExecutions   bool
	RemoveDependencies bool
	RemoveGoals        bool

	// IfNotPresent selects the outcome when the plugin is not declared
	// in the document. The zero value is Fail.
	IfNotPresent IfNotPresent
}

// ChangePlugin edits a plugin already declared in the build section.
// It changes anything but the group and artifact ids. The plugin's
// extensions flag is forced to "true" on every successful change,
// whether or not the extensions field itself was part of the edit.
type ChangePlugin struct {
	groupID    string
	artifactID string
	spec       ChangePluginSpec
}

// NewChangePlugin builds the operation. Specs whose executions share an
// id (including a shared empty id) are rejected here, before any
// document is touched.
func NewChangePlugin(groupID, artifactID string, spec ChangePluginSpec) (*ChangePlugin, error) {
	if groupID == "" || artifactID == "" {
		return nil, fmt.Errorf("changePlugin requires groupId and artifactId")
	}
	if err := spec.IfNotPresent.validate(); err != nil {
		return nil, err
	}
	if err := validateExecutions(groupID, artifactID, spec.Executions); err != nil {
		return nil, err
	}
	return &ChangePlugin{groupID: groupID, artifactID: artifactID, spec: spec}, nil
}

// Name implements Operation.
func (op *ChangePlugin) Name() string { return "changePlugin" }

// Describe implements Operation.
func (op *ChangePlugin) Describe(doc *pom.Document) string {
	return fmt.Sprintf("Change Plugin %s:%s in POM file %s",
		op.groupID, op.artifactID, doc.RelativePath())
}

// Execute implements Operation. The target plugin is detached from the
// document, mutated, and reattached, so the document never observes a
// half-updated entry.
func (op *ChangePlugin) Execute(doc *pom.Document) result.Outcome {
	if doc.FindPlugin(op.groupID, op.artifactID) == nil {
		message := fmt.Sprintf("Plugin %s:%s is not present in %s",
			op.groupID, op.artifactID, doc.RelativePath())
		return resolveNotPresent(op.spec.IfNotPresent, op.Describe(doc), message)
	}

	plugin, _ := doc.RemovePlugin(op.groupID, op.artifactID)

	switch {
	case op.spec.RemoveVersion:
		plugin.Version = ""
	case op.spec.Version != "":
		plugin.Version = op.spec.Version
	}

	switch {
	case op.spec.RemoveExtensions:
		plugin.Extensions = ""
	case op.spec.Extensions != "":
		plugin.Extensions = op.spec.Extensions
	}

	switch {
	case op.spec.RemoveExecutions:
		plugin.Executions = nil
	case op.spec.Executions != nil:
		plugin.Executions = op.spec.Executions
	}

	switch {
	case op.spec.RemoveDependencies:
		plugin.Dependencies = nil
	case op.spec.Dependencies != nil:
		plugin.Dependencies = op.spec.Dependencies
	}

	switch {
	case op.spec.RemoveGoals:
		plugin.Goals = nil
	case op.spec.Goals != nil:
		plugin.Goals = op.spec.Goals
	}

	// Fixed post-condition of every successful change.
	plugin.Extensions = "true"

	doc.AddPlugin(plugin)

	details := fmt.Sprintf("Plugin %s:%s has been changed in %s",
		op.groupID, op.artifactID, doc.RelativePath())
	return result.Success(op.Describe(doc), details)
}
