// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command pcp-solve searches for a solution to a Post Correspondence
// Problem instance by breadth-first brute force, fanning each iteration's
// work out across a worker pool.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	_ "github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/minio/highwayhash"
	"github.com/timnn/pcp-go/pcp"
)

var (
	maxIter     int64
	problemPath string
	workers     int
	analyze     bool
	verbose     bool
	fingerprint bool
)

func usage() {
	fmt.Fprintln(os.Stderr, `
pcp-solve searches for a solution to a Post Correspondence Problem instance:
given a set of (top, bottom) string pairs, one per line of the problem file,
find an ordered sequence of lines whose tops concatenate to the same string
as their bottoms.

Usage:
  pcp-solve [flags]

Problem file format: one pair per line, two whitespace-separated tokens.
Blank lines are skipped; malformed lines are reported and skipped.

Flags:`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Int64Var(&maxIter, "n", 0, "maximum number of iterations to perform (default: unbounded)")
	flag.StringVar(&problemPath, "f", "", "read the problem from the specified path instead of stdin (local path, s3:// URL, or .gz of either)")
	flag.IntVar(&workers, "t", runtime.NumCPU(), "number of worker goroutines per iteration")
	flag.BoolVar(&analyze, "analyze", false, "print a residual-bucket breakdown of the final working set")
	flag.BoolVar(&verbose, "verbose", false, "print extra startup diagnostics (problem size, worker count); finer-grained log levels are vlog's own -v=N flag")
	flag.BoolVar(&fingerprint, "fingerprint", false, "print a highwayhash digest of the parsed problem before the search starts")

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	pairs, err := readProblem(ctx, problemPath)
	if err != nil {
		log.Fatalf("pcp-solve: %v", err)
	}

	if verbose {
		log.Printf("pcp-solve: %d pairs loaded, %d workers", len(pairs), workers)
	}

	if fingerprint {
		printFingerprint(os.Stdout, pairs)
	}

	pool := pcp.NewChunkPool()
	defer pool.Close()

	stats := pcp.NewIterStats(os.Stdout)
	iters := uint64(maxIter)
	if maxIter <= 0 {
		iters = 0
	}
	engine := pcp.NewEngine(pairs, workers, iters, pool, stats)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-sigCh; ok {
			log.Printf("pcp-solve: interrupted, finishing current iteration")
			engine.Stop()
		}
	}()

	_, _ = engine.Run(ctx)
	signal.Stop(sigCh)
	close(sigCh)

	if analyze {
		fmt.Println("Extended analysis requested.")
		analyzeWorkingSet(os.Stdout, engine.LastChunks())
	}

	fmt.Println()
	fmt.Println("-- Statistics --")
	stats.Print(os.Stdout, len(engine.LastChunks()))
}

// printFingerprint hashes a deterministic encoding of the parsed problem
// (symbol width is folded in implicitly via each pair's packed bits) so two
// runs against nominally the same problem file can be confirmed identical
// from their logs, grounded on fusion/postprocess.go's use of highwayhash
// for table fingerprinting.
func printFingerprint(w *os.File, pairs []pcp.ConfiguredPair) {
	var zeroKey [highwayhash.Size]byte
	buf := make([]byte, 0, len(pairs)*16)
	for _, p := range pairs {
		buf = appendUint64(buf, uint64(p.Pair.A))
		buf = appendUint64(buf, uint64(p.Pair.B))
	}
	sum := highwayhash.Sum(buf, zeroKey[:])
	fmt.Fprintf(w, "problem fingerprint: %x\n", sum)
}

func appendUint64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}
