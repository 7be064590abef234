package test

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"2024-11-bplustree-go/bplustree"
)

// KVPair 定义键值对结构
type KVPair struct {
	Key   uint64
	Value uint64
}

// 操作类型常量
const (
	OP_INSERT = iota
	OP_READ
	OP_SCAN
)

// 模式说明
const (
	modeScan     = iota // 仅扫描
	modeRead            // 仅读取
	modeBalanced        // 平衡模式
	modeInsert          // 仅插入
)

// timestampKey 模拟时序数据的 key：纳秒时间戳 | 传感器 | 线程
func timestampKey(sensorID, tid int) uint64 {
	return uint64(time.Now().UnixNano())<<16 | uint64(sensorID%1024)<<6 | uint64(tid%64)
}

// TimeStampTest loads timestamp-shaped keys (clustered at the right end of
// the key space) and then runs a scan, read or balanced workload over them.
// In insert-only mode every thread stops as soon as the first one finishes.
func TimeStampTest(args []string) error {
	numData, numThreads, err := parseCommon(args, "timestamp <num_data> <num_threads> [mode]")
	if err != nil {
		return err
	}
	mode := modeScan
	if len(args) >= 3 {
		if mode, err = atoi("mode", args[2]); err != nil {
			return err
		}
	}
	if mode > modeInsert {
		return fmt.Errorf("invalid workload mode %d", mode)
	}

	tree, err := bplustree.New[uint64, uint64](bplustree.WithTracer(bplustree.NewSlogTracer(slog.Default())))
	if err != nil {
		return err
	}

	chunk := numData / numThreads
	keys := make([][]KVPair, numThreads)
	loadNum := make([]int, numThreads)
	var earliest atomic.Bool

	load := func(tid int) error {
		keys[tid] = make([]KVPair, 0, chunk)
		for i := 0; i < chunk; i++ {
			kv := KVPair{Key: timestampKey(i, tid), Value: uint64(i)}
			if err := tree.Put(kv.Key, kv.Value); err != nil {
				return err
			}
			keys[tid] = append(keys[tid], kv)
			if mode == modeInsert && earliest.Load() {
				loadNum[tid] = i + 1
				return nil
			}
		}
		loadNum[tid] = chunk
		earliest.Store(true)
		return nil
	}

	start := time.Now()
	if err := startThreads(numThreads, load); err != nil {
		return err
	}
	loaded := 0
	for _, n := range loadNum {
		loaded += n
	}
	reportThroughput("Insertion", loaded, time.Since(start))

	if mode == modeInsert {
		return reportShape(tree)
	}

	// 准备操作集合
	type operation struct {
		pair  KVPair
		op    int
		width int
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var ops []operation
	for _, pairs := range keys {
		for _, v := range pairs {
			switch mode {
			case modeScan:
				ops = append(ops, operation{pair: v, op: OP_SCAN, width: rng.Intn(100)})
			case modeRead:
				ops = append(ops, operation{pair: v, op: OP_READ})
			default:
				switch r := rng.Intn(100); {
				case r < 50:
					ops = append(ops, operation{pair: v, op: OP_INSERT})
				case r < 80:
					ops = append(ops, operation{pair: v, op: OP_SCAN, width: rng.Intn(5) + 5})
				case r < 90:
					ops = append(ops, operation{pair: v, op: OP_SCAN, width: rng.Intn(90) + 10})
				default:
					ops = append(ops, operation{pair: v, op: OP_READ})
				}
			}
		}
	}
	rng.Shuffle(len(ops), func(i, j int) {
		ops[i], ops[j] = ops[j], ops[i]
	})

	phase := "Mix"
	switch mode {
	case modeScan:
		phase = "Scan"
		slog.Info("Scan 100%")
	case modeRead:
		phase = "Read"
		slog.Info("Read 100%")
	default:
		slog.Info("Insert 50%, Short scan 30%, Long scan 10%, Read 10%")
	}

	run := func(tid int) error {
		from, to := chunkOf(len(ops), numThreads, tid)
		for i := from; i < to; i++ {
			o := ops[i]
			switch o.op {
			case OP_INSERT:
				if err := tree.Put(timestampKey(i, tid), uint64(i)); err != nil {
					return err
				}
			case OP_SCAN:
				// scan 的 key 由时间戳组成，按 key 空间中的宽度近似条目数
				if _, err := tree.GetRange(o.pair.Key, o.pair.Key+uint64(o.width)<<16); err != nil {
					return err
				}
			case OP_READ:
				_, ok, err := tree.Get(o.pair.Key)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("loaded key %d not found", o.pair.Key)
				}
			}
		}
		return nil
	}

	start = time.Now()
	if err := startThreads(numThreads, run); err != nil {
		return err
	}
	reportThroughput(phase, len(ops), time.Since(start))
	return reportShape(tree)
}
