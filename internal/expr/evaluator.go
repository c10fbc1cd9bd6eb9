package expr

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/szaher/pomsmith/internal/pom"
)

// Context holds the variables available to recipe conditions.
type Context struct {
	Project    map[string]interface{} `expr:"project"`
	Properties map[string]string      `expr:"properties"`
	File       string                 `expr:"file"`
}

// FromDocument builds the evaluation context for one POM document.
func FromDocument(doc *pom.Document) *Context {
	ctx := &Context{
		Properties: map[string]string{},
		File:       doc.RelativePath(),
	}

	proj := doc.Project
	if proj == nil {
		ctx.Project = map[string]interface{}{}
		return ctx
	}

	packaging := proj.Packaging
	if packaging == "" {
		// Maven's default packaging.
		packaging = "jar"
	}
	ctx.Project = map[string]interface{}{
		"groupId":    proj.GroupID,
		"artifactId": proj.ArtifactID,
		"version":    proj.Version,
		"packaging":  packaging,
		"name":       proj.Name,
	}

	if proj.Properties != nil {
		for _, entry := range proj.Properties.Entries {
			ctx.Properties[entry.Name] = entry.Value
		}
	}
	return ctx
}

// Eval evaluates a compiled condition against the given context.
func Eval(compiled *CompiledExpr, ctx *Context) (interface{}, error) {
	if compiled == nil || compiled.program == nil {
		return nil, fmt.Errorf("nil compiled expression")
	}

	env := map[string]interface{}{
		"project":    ctx.Project,
		"properties": ctx.Properties,
		"file":       ctx.File,
	}

	result, err := expr.Run(compiled.program, env)
	if err != nil {
		return nil, fmt.Errorf("expression eval error for %q: %w", compiled.Source, err)
	}
	return result, nil
}

// EvalBool evaluates a compiled condition and returns a boolean result.
// Returns an error if the condition does not evaluate to a boolean.
func EvalBool(compiled *CompiledExpr, ctx *Context) (bool, error) {
	result, err := Eval(compiled, ctx)
	if err != nil {
		return false, err
	}

	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", compiled.Source, result)
	}
	return b, nil
}
