package main

import (
	"fmt"
	"log/slog"
	"os"

	"2024-11-bplustree-go/test"
)

const usage = `usage: go run . <mode> <num_data> <num_threads> [args...]

modes:
  insert    <num_data> <num_threads>
  range     <num_data> <num_threads>
  mixed     <num_data> <num_threads> <insert_ratio> [ops_per_sec]
  lookup    <num_data> <num_threads> [search]
  timestamp <num_data> <num_threads> [mode: 0 scan, 1 read, 2 balanced, 3 insert]
  single    <num_data>

Set BPLUSTREE_DEBUG=1 to trace every latch acquisition.`

var workloads = map[string]func([]string) error{
	"insert":    test.InsertTest,
	"range":     test.RangeTest,
	"mixed":     test.MixedTest,
	"lookup":    test.Test,
	"timestamp": test.TimeStampTest,
	"single":    test.SingleThreadTest,
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("BPLUSTREE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	run, ok := workloads[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}

	if err := run(os.Args[2:]); err != nil {
		slog.Error("workload failed", slog.String("mode", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}
