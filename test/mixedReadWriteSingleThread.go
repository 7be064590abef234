package test

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// dumpLimit 超过这个数量就不打印树结构了
const dumpLimit = 256

// SingleThreadTest loads the tree from one goroutine, runs repeated scans
// from the same start key and prints the tree when it is small.
func SingleThreadTest(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: single <num_data>")
	}
	numData, err := atoi("num_data", args[0])
	if err != nil {
		return err
	}
	if numData == 0 {
		return fmt.Errorf("num_data must be positive")
	}
	keys := generateShuffledKeys(numData)

	tree, err := newTree()
	if err != nil {
		return err
	}

	slog.Info("Warmup starts (single thread)")
	start := time.Now()
	for i := 0; i < numData; i++ {
		if err := tree.Put(keys[i], Value_t(keys[i])); err != nil {
			return err
		}
	}
	slog.Info("Warmup done", slog.Duration("elapsed", time.Since(start)))

	const lookups = 100
	slog.Info("Single-thread RangeLookups start", slog.Int("min_key", keys[0]))
	start = time.Now()
	for i := 0; i < lookups; i++ {
		if _, err := tree.GetRange(keys[0], keys[0]+99); err != nil {
			return err
		}
	}
	reportThroughput("RangeLookup", lookups, time.Since(start))

	if numData <= dumpLimit {
		if err := tree.Dump(os.Stdout); err != nil {
			return err
		}
	}
	return reportShape(tree)
}
