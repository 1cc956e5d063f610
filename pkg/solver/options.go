package solver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	timeLimit time.Duration
	nodeLimit int
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTimeLimit bounds the wall clock time of a single Solve or of each
// step of an enumeration. Zero means no limit.
func WithTimeLimit(d time.Duration) Option {
	return func(o *options) {
		o.timeLimit = d
	}
}

// WithNodeLimit bounds the number of branch and bound nodes explored by
// the MIP engine.
func WithNodeLimit(n int) Option {
	return func(o *options) {
		o.nodeLimit = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		nodeLimit: 200000,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeLimit > 0 {
		return context.WithTimeout(ctx, o.timeLimit)
	}
	return context.WithCancel(ctx)
}
