package bplustree

import (
	"fmt"
	"time"
)

type options struct {
	capacity    int
	lockTimeout time.Duration
	tracer      Tracer
}

func defaultOptions() options {
	return options{
		capacity:    DefaultCapacity,
		lockTimeout: DefaultLockTimeout,
		tracer:      NopTracer(),
	}
}

// Option configures a Tree.
type Option func(*options)

// WithCapacity sets the node capacity: the number of entries a leaf holds and
// the number of separator keys an internal node holds before it splits.
//
// Must be at least MinCapacity.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// WithLockTimeout bounds every blocking latch acquisition. An acquisition
// that waits longer fails with a *DeadlockError.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithTracer installs a sink for lock acquisition tracing.
//
// If nil is passed, tracing is disabled.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		if t == nil {
			t = NopTracer()
		}
		o.tracer = t
	}
}

func (o *options) validate() error {
	if o.capacity < MinCapacity {
		return fmt.Errorf("%w: capacity %d is below minimum %d", ErrInvalidOption, o.capacity, MinCapacity)
	}
	if o.lockTimeout <= 0 {
		return fmt.Errorf("%w: lock timeout must be positive, got %s", ErrInvalidOption, o.lockTimeout)
	}
	return nil
}
