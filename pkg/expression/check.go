package expression

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/autobrr/tcm/pkg/config"
)

func CheckTorrentSingleMatch(ctx context.Context, t *config.Torrent, expressions []CompiledExpression) (bool, error) {
	match, _, err := CheckTorrentSingleMatchWithReason(ctx, t, expressions)
	return match, err
}

func CheckTorrentSingleMatchWithReason(ctx context.Context, t *config.Torrent, expressions []CompiledExpression) (bool, string, error) {
	env := &evalContext{Torrent: t, ctx: ctx}

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, env)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("type assert expression result: %q", expression.Text)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}
