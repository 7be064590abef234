package test

import (
	"fmt"
	"log/slog"
	"time"
)

// RangeTest loads the tree with WarmupThreads writers, then runs scans of
// Range keys from num_threads readers, and finally overwrites every key.
func RangeTest(args []string) error {
	numData, numThreads, err := parseCommon(args, "range <num_data> <num_threads>")
	if err != nil {
		return err
	}

	keys := generateShuffledKeys(numData)
	tree, err := newTree()
	if err != nil {
		return err
	}
	slog.Info("BTree initialized", slog.String("tree", tree.String()))

	warmup := func(tid int) error {
		from, to := chunkOf(numData, WarmupThreads, tid)
		for i := from; i < to; i++ {
			if err := tree.Put(keys[i], Value_t(keys[i])); err != nil {
				return err
			}
		}
		return nil
	}

	// 扫描阶段：keys 是 1..numData 的排列，除靠近末尾的扫描外都应拿满 Range 个
	scan := func(tid int) error {
		from, to := chunkOf(numData, numThreads, tid)
		for i := from; i < to; i++ {
			got, err := tree.GetRange(keys[i], keys[i]+Range-1)
			if err != nil {
				return err
			}
			want := min(Range, numData-keys[i]+1)
			if len(got) != want {
				return fmt.Errorf("scan from %d returned %d entries, want %d", keys[i], len(got), want)
			}
		}
		return nil
	}

	slog.Info("Warmup starts", slog.Int("threads", WarmupThreads))
	if err := startThreads(WarmupThreads, warmup); err != nil {
		return err
	}
	if err := reportShape(tree); err != nil {
		return err
	}

	slog.Info("Scan starts", slog.Int("threads", numThreads))
	start := time.Now()
	if err := startThreads(numThreads, scan); err != nil {
		return err
	}
	reportThroughput("Scan", numData, time.Since(start))

	// 更新操作验证
	updateFail := 0
	for i := 0; i < numData; i++ {
		if err := tree.Put(keys[i], Value_t(keys[i])+1); err != nil {
			return err
		}
		v, ok, err := tree.Get(keys[i])
		if err != nil {
			return err
		}
		if !ok || v != Value_t(keys[i])+1 {
			updateFail++
		}
	}
	slog.Info("Update check", slog.Int("failures", updateFail))
	if updateFail > 0 {
		return fmt.Errorf("%d updates were lost", updateFail)
	}
	return nil
}
