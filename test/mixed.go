package test

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// MixedTest loads half of the keys, then runs inserts of the other half
// interleaved with scans. insert_ratio is the percentage of inserts;
// ops_per_sec, if set, throttles each thread.
func MixedTest(args []string) error {
	const usage = "mixed <num_data> <num_threads> <insert_ratio> [ops_per_sec]"
	numData, numThreads, err := parseCommon(args, usage)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: %s", usage)
	}
	insertRatio, err := atoi("insert_ratio", args[2])
	if err != nil {
		return err
	}
	limit := rate.Inf
	if len(args) >= 4 {
		opsPerSec, err := atoi("ops_per_sec", args[3])
		if err != nil {
			return err
		}
		if opsPerSec > 0 {
			limit = rate.Limit(opsPerSec)
		}
	}

	keys := generateShuffledKeys(numData)
	tree, err := newTree()
	if err != nil {
		return err
	}

	half := numData / 2

	warmup := func(tid int) error {
		from, to := chunkOf(half, numThreads, tid)
		for i := from; i < to; i++ {
			if err := tree.Put(keys[i], Value_t(keys[i])); err != nil {
				return err
			}
		}
		return nil
	}

	mixed := func(tid int) error {
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(tid)))
		limiter := rate.NewLimiter(limit, 1)
		from, to := chunkOf(half, numThreads, tid)
		for i := from; i < to; i++ {
			if err := limiter.Wait(context.Background()); err != nil {
				return err
			}
			if rng.Intn(100) < insertRatio {
				if err := tree.Put(keys[i+half], Value_t(keys[i+half])); err != nil {
					return err
				}
				continue
			}

			results, err := tree.GetRange(keys[i], keys[i]+99)
			if err != nil {
				return err
			}
			for j := 1; j < len(results); j++ {
				if results[j-1].Key >= results[j].Key {
					return fmt.Errorf("scan from %d not ascending at %d", keys[i], j)
				}
			}
			slog.Debug("RangeLookup", slog.Int("min_key", keys[i]), slog.Int("results", len(results)))
		}
		return nil
	}

	slog.Info("Warmup starts", slog.Int("keys", half))
	if err := startThreads(numThreads, warmup); err != nil {
		return err
	}

	slog.Info("Mixed starts", slog.Int("insert_ratio", insertRatio), slog.Float64("ops_per_sec", float64(limit)))
	start := time.Now()
	if err := startThreads(numThreads, mixed); err != nil {
		return err
	}
	reportThroughput("Mixed", half, time.Since(start))
	return reportShape(tree)
}
