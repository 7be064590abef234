package bplustree

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Tracer receives lock acquisition traces. It is fire-and-forget and has no
// influence on the outcome of an operation.
type Tracer interface {
	Trace(caller, message string)
}

type nopTracer struct{}

func (nopTracer) Trace(string, string) {}

// NopTracer returns a Tracer that discards everything.
func NopTracer() Tracer { return nopTracer{} }

// TracerFunc adapts a function to a Tracer.
type TracerFunc func(caller, message string)

func (f TracerFunc) Trace(caller, message string) { f(caller, message) }

// SlogTracer writes traces as debug records.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer creates a Tracer backed by logger. If logger is nil,
// slog.Default() is used.
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{logger: logger}
}

func (s *SlogTracer) Trace(caller, message string) {
	s.logger.Debug(message, slog.String("caller", caller))
}

// Enabled reports whether the underlying logger emits debug records.
func (s *SlogTracer) Enabled() bool {
	return s.logger.Enabled(context.Background(), slog.LevelDebug)
}

var opSeq atomic.Uint64

// operation 是一次 Get/GetRange/Put 的遍历上下文：持有的锁栈 + 观察者
type operation struct {
	id     uint64
	opts   *options
	tracer Tracer
	trace  bool
	stack  guardStack
}

func newOperation(opts *options) *operation {
	op := &operation{
		id:     opSeq.Add(1),
		opts:   opts,
		tracer: opts.tracer,
	}
	switch t := opts.tracer.(type) {
	case nopTracer:
	case interface{ Enabled() bool }:
		op.trace = t.Enabled()
	default:
		op.trace = true
	}
	op.stack.op = op
	return op
}

func (op *operation) logf(who fmt.Stringer, format string, args ...interface{}) {
	if !op.trace {
		return
	}
	op.tracer.Trace(fmt.Sprintf("op#%d %s", op.id, who), fmt.Sprintf(format, args...))
}
