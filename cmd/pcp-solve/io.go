// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"io"
	"math/bits"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/timnn/pcp-go/pcp"
	"golang.org/x/sys/unix"
	"v.io/x/lib/vlog"
)

// rawPair is one whitespace-split line of a problem file, before alphabet
// encoding.
type rawPair struct {
	line int
	a, b string
}

// readProblem loads and parses a problem file. path == "" reads from
// stdin, matching config.rs's pairs_from_stdin/pairs_from_file split.
func readProblem(ctx context.Context, path string) ([]pcp.ConfiguredPair, error) {
	reader, closeFn, err := openProblemSource(ctx, path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	raw, err := rawPairsFromStream(reader)
	if err != nil {
		return nil, err
	}

	pairs, err := pairsFromRaw(raw)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, errors.New("no pairs: the problem file contains no usable lines")
	}
	return pairs, nil
}

// openProblemSource resolves path through github.com/grailbio/base/file
// (so an s3:// path works transparently once s3file is blank-imported in
// main), transparently gunzipping a .gz path. An empty path reads stdin
// directly, printing the same "Now reading problem from stdin."/"Done
// reading problem." bracket the original prints when stdin is a tty.
func openProblemSource(ctx context.Context, path string) (io.Reader, func(), error) {
	if path == "" {
		tty := stdinIsTTY()
		if tty {
			vlog.Infof("Now reading problem from stdin.")
		}
		return os.Stdin, func() {
			if tty {
				vlog.Infof("Done reading problem.")
			}
		}, nil
	}

	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening problem file %q", path)
	}
	reader := f.Reader(ctx)
	closeFn := func() {
		if err := f.Close(ctx); err != nil {
			vlog.Errorf("closing %q: %v", path, err)
		}
	}

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			closeFn()
			return nil, nil, errors.Wrapf(err, "opening gzip problem file %q", path)
		}
		return gz, closeFn, nil
	}
	return reader, closeFn, nil
}

// stdinIsTTY mirrors util.rs's stdin_isatty(): golang.org/x/sys/unix is
// already part of the stack (fusion/kmer_index.go uses it for mmap), so the
// isatty check is a plain ioctl rather than a new dependency.
func stdinIsTTY() bool {
	_, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)
	return err == nil
}

// rawPairsFromStream scans r line by line: blank lines are skipped
// silently, lines without exactly two whitespace-separated fields are
// reported via vlog.Errorf and skipped, matching config.rs's
// raw_pairs_from_stream.
func rawPairsFromStream(r io.Reader) ([]rawPair, error) {
	var raw []rawPair
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			vlog.Errorf("line %d: expected two whitespace-separated fields, got %d; skipping", lineNo, len(fields))
			continue
		}
		raw = append(raw, rawPair{line: lineNo, a: fields[0], b: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading problem input")
	}
	return raw, nil
}

// alphabet assigns symbol IDs in first-seen order (scanning a pair's top
// token, then its bottom token, in file order) and derives the bit width
// every token is encoded at: max(1, ceil(log2(distinct symbols))), exactly
// config.rs's Alphabet::from_iter.
type alphabet struct {
	width uint8
	ids   map[rune]uint64
}

func newAlphabet(raw []rawPair) alphabet {
	ids := make(map[rune]uint64)
	var nextID uint64
	assign := func(s string) {
		for _, c := range s {
			if _, ok := ids[c]; !ok {
				ids[c] = nextID
				nextID++
			}
		}
	}
	for _, p := range raw {
		assign(p.a)
		assign(p.b)
	}

	width := bits.TrailingZeros64(nextPowerOfTwo(nextID))
	if width < 1 {
		width = 1
	}
	return alphabet{width: uint8(width), ids: ids}
}

// nextPowerOfTwo mirrors Rust's u64::next_power_of_two: the smallest power
// of two >= n, with next_power_of_two(0) == 1 (there is always at least one
// symbol once alphabet-building has run, but 0 is handled the same way the
// original's cmp::max(1, ...) does).
func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return uint64(1) << bits.Len64(n-1)
}

// encode packs s into a Part, iterating characters in reverse so the
// first character of s ends up in the low bits of the result and the last
// character in the high bits — config.rs's encode() builds val via
// `val = (val << width) | id` while walking chars().rev(), which has
// exactly that effect once the shifts are traced through.
func (al alphabet) encode(s string) (pcp.Part, int) {
	runes := []rune(s)
	var val uint64
	var length int
	for i := len(runes) - 1; i >= 0; i-- {
		val = (val << al.width) | al.ids[runes[i]]
		length += int(al.width)
	}
	return pcp.NewPart(uint8(length), val), length
}

// pairsFromRaw encodes every raw pair against a shared alphabet, assigning
// each pair a 1-based SumInc (its position in the problem file) and a
// DepthInc of 1, matching config.rs's pairs_from_raw.
func pairsFromRaw(raw []rawPair) ([]pcp.ConfiguredPair, error) {
	al := newAlphabet(raw)
	vlog.Infof("Found %d symbols.", len(al.ids))
	vlog.Infof("Using %d bit(s) to encode each symbol.", al.width)

	pairs := make([]pcp.ConfiguredPair, 0, len(raw))
	for i, rp := range raw {
		aPart, aBits := al.encode(rp.a)
		if aBits > pcp.ValBits {
			return nil, &pcp.TokenTooLongError{Line: rp.line, Token: rp.a, Bits: aBits}
		}
		bPart, bBits := al.encode(rp.b)
		if bBits > pcp.ValBits {
			return nil, &pcp.TokenTooLongError{Line: rp.line, Token: rp.b, Bits: bBits}
		}

		pairs = append(pairs, pcp.ConfiguredPair{
			Pair:     pcp.Pair{A: aPart, B: bPart},
			SumInc:   uint64(i + 1),
			DepthInc: 1,
		})
	}
	return pairs, nil
}
