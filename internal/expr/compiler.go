// Package expr provides load-time compilation and per-document
// evaluation of the `when` conditions used in transformation recipes.
package expr

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CompiledExpr represents a compiled condition ready for evaluation.
type CompiledExpr struct {
	Source  string
	program *vm.Program
}

// Compile validates and compiles a condition against a typed
// environment. The env parameter defines the available variables and
// their types.
func Compile(source string, env map[string]interface{}) (*CompiledExpr, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("expression compile error: %w", err)
	}

	return &CompiledExpr{
		Source:  source,
		program: program,
	}, nil
}

// CompileUnchecked compiles a condition without type checking. Recipe
// conditions use this: the shape of a document's property map is not
// known until the document is loaded.
func CompileUnchecked(source string) (*CompiledExpr, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("expression compile error: %w", err)
	}

	return &CompiledExpr{
		Source:  source,
		program: program,
	}, nil
}
