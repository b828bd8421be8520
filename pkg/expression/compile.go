package expression

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/autobrr/tcm/pkg/config"
)

type evalContext struct {
	*config.Torrent
	ctx context.Context
}

func (e *evalContext) HasAllTags(tags ...string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.HasAllTags(tags...)
}

func (e *evalContext) HasAnyTag(tags ...string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.HasAnyTag(tags...)
}

func (e *evalContext) RegexMatch(pattern string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatch(pattern)
}

func (e *evalContext) RegexMatchAny(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatchAny(patternsStr)
}

func (e *evalContext) RegexMatchAll(patternsStr string) bool {
	if e.Torrent == nil {
		return false
	}
	return e.Torrent.RegexMatchAll(patternsStr)
}

func Compile(profile *config.ProfileConfiguration) (*Expressions, error) {
	exprEnv := &evalContext{}
	exp := new(Expressions)

	// compile ignores
	for _, ignoreExpr := range profile.Ignore {
		program, err := expr.Compile(ignoreExpr, expr.Env(exprEnv), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression: %q: %w", ignoreExpr, err)
		}

		exp.Ignores = append(exp.Ignores, CompiledExpression{Program: program, Text: ignoreExpr})
	}

	// compile removes
	for _, removeExpr := range profile.Remove {
		program, err := expr.Compile(removeExpr, expr.Env(exprEnv), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile remove expression: %q: %w", removeExpr, err)
		}

		exp.Removes = append(exp.Removes, CompiledExpression{Program: program, Text: removeExpr})
	}

	return exp, nil
}
