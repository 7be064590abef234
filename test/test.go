package test

import (
	"fmt"
	"log/slog"
	"time"
)

// Test inserts num_data keys, optionally looks every one of them up again,
// and reports the shape of the resulting tree.
func Test(args []string) error {
	numData, numThreads, err := parseCommon(args, "lookup <num_data> <num_threads> [search]")
	if err != nil {
		return err
	}
	search := 1
	if len(args) >= 3 {
		if search, err = atoi("search", args[2]); err != nil {
			return err
		}
	}

	keys := generateShuffledKeys(numData)
	tree, err := newTree()
	if err != nil {
		return err
	}
	slog.Info("tree created", slog.Int("capacity", tree.Capacity()))

	// notFoundKeys 记录每个线程没有查到正确值的 key
	notFoundKeys := make([][]Key_t, numThreads)

	insertFunc := func(tid int) error {
		from, to := chunkOf(numData, numThreads, tid)
		for i := from; i < to; i++ {
			// key 本身作为 value
			if err := tree.Put(keys[i], Value_t(keys[i])); err != nil {
				return err
			}
		}
		return nil
	}

	searchFunc := func(tid int) error {
		from, to := chunkOf(numData, numThreads, tid)
		for i := from; i < to; i++ {
			ret, ok, err := tree.Get(keys[i])
			if err != nil {
				return err
			}
			if !ok || ret != Value_t(keys[i]) {
				notFoundKeys[tid] = append(notFoundKeys[tid], keys[i])
			}
		}
		return nil
	}

	slog.Info("Insertion starts")
	start := time.Now()
	if err := startThreads(numThreads, insertFunc); err != nil {
		return err
	}
	reportThroughput("Insertion", numData, time.Since(start))

	if search != 0 {
		slog.Info("Search starts")
		start = time.Now()
		if err := startThreads(numThreads, searchFunc); err != nil {
			return err
		}
		reportThroughput("Search", numData, time.Since(start))

		notFound := 0
		for _, ks := range notFoundKeys {
			notFound += len(ks)
		}
		slog.Info("Search check", slog.Int("not_found", notFound))
		if notFound > 0 {
			return fmt.Errorf("%d keys not found after insertion", notFound)
		}
	}

	return reportShape(tree)
}
