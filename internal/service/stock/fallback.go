package stock

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// step is one entry in an ordered fallback chain.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// runChain evaluates steps in order and stops at the first success. Failures
// along the way are recoverable and logged at warning level; only exhausting
// the whole chain fails the caller, with the final step's error.
func (e *Engine) runChain(ctx context.Context, label string, steps []step) error {
	var err error
	for idx, s := range steps {
		if err = s.run(ctx); err == nil {
			if idx > 0 {
				e.logger.Info("fallback succeeded",
					zap.String("chain", label),
					zap.String("step", s.name))
			}
			return nil
		}
		e.logger.Warn("chain step failed",
			zap.String("chain", label),
			zap.String("step", s.name),
			zap.Error(err))
	}
	return fmt.Errorf("%s: all fallbacks exhausted: %w", label, err)
}
