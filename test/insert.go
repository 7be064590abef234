package test

import (
	"fmt"
	"log/slog"
	"time"
)

// InsertTest inserts num_data shuffled keys from num_threads goroutines and
// checks that every key landed.
func InsertTest(args []string) error {
	numData, numThreads, err := parseCommon(args, "insert <num_data> <num_threads>")
	if err != nil {
		return err
	}

	keys := generateShuffledKeys(numData)
	tree, err := newTree()
	if err != nil {
		return err
	}

	insert := func(tid int) error {
		from, to := chunkOf(numData, numThreads, tid)
		for i := from; i < to; i++ {
			if err := tree.Put(keys[i], Value_t(keys[i])); err != nil {
				return err
			}
		}
		return nil
	}

	slog.Info("Insert starts", slog.Int("num_data", numData), slog.Int("num_threads", numThreads))
	start := time.Now()
	if err := startThreads(numThreads, insert); err != nil {
		return err
	}
	reportThroughput("Insert", numData, time.Since(start))

	if tree.Len() != numData {
		return fmt.Errorf("tree holds %d keys, inserted %d", tree.Len(), numData)
	}
	return reportShape(tree)
}
