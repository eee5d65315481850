package sessionpool

import (
	"context"
	"time"
)

func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, d)
}

// Waiting reports the number of callers suspended in admission.
func (p *Pool) Waiting() int64 {
	return p.waiting.Load()
}
