package test

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"2024-11-bplustree-go/bplustree"
)

type Key_t = int
type Value_t = int

type Tree = bplustree.Tree[Key_t, Value_t]

const (
	WarmupThreads = 64
	Range         = 50
)

func generateShuffledKeys(n int) []Key_t {
	keys := generateSerializedKeys(n)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	return keys
}

func generateSerializedKeys(n int) []Key_t {
	keys := make([]Key_t, n)
	for i := 0; i < n; i++ {
		keys[i] = Key_t(i + 1)
	}
	return keys
}

func atoi(name, s string) (int, error) {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, s)
	}
	return val, nil
}

// parseCommon 解析 <num_data> <num_threads>
func parseCommon(args []string, usage string) (numData, numThreads int, err error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("usage: %s", usage)
	}
	if numData, err = atoi("num_data", args[0]); err != nil {
		return 0, 0, err
	}
	if numThreads, err = atoi("num_threads", args[1]); err != nil {
		return 0, 0, err
	}
	if numThreads == 0 {
		return 0, 0, fmt.Errorf("num_threads must be positive")
	}
	return numData, numThreads, nil
}

// chunkOf returns the [from, to) slice of n items handled by thread tid.
func chunkOf(n, numThreads, tid int) (int, int) {
	chunk := n / numThreads
	from, to := chunk*tid, chunk*(tid+1)
	if tid == numThreads-1 {
		to = n
	}
	return from, to
}

// startThreads runs fn on numThreads goroutines and returns the first error.
func startThreads(numThreads int, fn func(tid int) error) error {
	var g errgroup.Group
	for tid := 0; tid < numThreads; tid++ {
		tid := tid
		g.Go(func() error {
			return fn(tid)
		})
	}
	return g.Wait()
}

func newTree() (*Tree, error) {
	return bplustree.New[Key_t, Value_t](bplustree.WithTracer(bplustree.NewSlogTracer(slog.Default())))
}

func reportThroughput(phase string, ops int, elapsed time.Duration) {
	slog.Info(phase+" done",
		slog.Float64("elapsed_usec", float64(elapsed.Microseconds())),
		slog.Float64("ops_per_sec", float64(ops)/elapsed.Seconds()),
		slog.Float64("mops_per_sec", float64(ops)/elapsed.Seconds()/1e6),
	)
}

type shaped interface {
	Height() (int, error)
	Utilization() (float64, error)
	Verify() error
	Len() int
}

// reportShape 打印树高和叶子利用率，并做一次完整性检查
func reportShape(tree shaped) error {
	if err := tree.Verify(); err != nil {
		return err
	}
	height, err := tree.Height()
	if err != nil {
		return err
	}
	util, err := tree.Utilization()
	if err != nil {
		return err
	}
	slog.Info("tree shape",
		slog.Int("height", height),
		slog.Int("keys", tree.Len()),
		slog.Float64("leaf_utilization_pct", util),
	)
	return nil
}
