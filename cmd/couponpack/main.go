// Command couponpack builds a bloom-filter coupon pack from gzipped
// promo-code lists (one code per line). The gateway loads the pack to
// pre-screen coupon codes locally before spending a network round trip on
// remote validation.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const (
	// falsePositiveRate trades pack size against wasted validation calls.
	// A false positive only costs one extra round trip.
	falsePositiveRate = 0.001
	progressEvery     = 1_000_000
)

func main() {
	var out string
	flag.StringVar(&out, "out", "coupons.pack", "output pack file")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: couponpack -out coupons.pack codes1.gz [codes2.gz ...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, out, files); err != nil {
		slog.Error("coupon pack build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon pack written", slog.String("path", out))
}

func run(ctx context.Context, out string, files []string) error {
	// Pass 1: count codes across all files concurrently to size the filter.
	slog.Info("pass 1: counting codes", slog.Int("files", len(files)))

	var total atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			n, err := countCodes(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "count %s", f)
			}
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	count := total.Load()
	if count == 0 {
		return errors.New("no codes found")
	}
	slog.Info("codes counted", slog.Uint64("count", count))

	// Pass 2: populate the filter.
	filter := bloom.NewWithEstimates(uint(count), falsePositiveRate)
	for _, f := range files {
		if err := addCodes(ctx, f, filter); err != nil {
			return errors.Wrapf(err, "ingest %s", f)
		}
	}

	dst, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create pack file")
	}
	if _, err := filter.WriteTo(dst); err != nil {
		dst.Close()
		return errors.Wrap(err, "write pack file")
	}
	return dst.Close()
}

func countCodes(ctx context.Context, path string) (uint64, error) {
	var n uint64
	err := scanCodes(ctx, path, func(string) {
		n++
	})
	return n, err
}

func addCodes(ctx context.Context, path string, filter *bloom.BloomFilter) error {
	var n uint64
	return scanCodes(ctx, path, func(code string) {
		filter.AddString(code)
		n++
		if n%progressEvery == 0 {
			slog.Info("ingesting", slog.String("file", path), slog.Uint64("codes", n))
		}
	})
}

// scanCodes streams normalized codes from a gzipped list.
func scanCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if code == "" {
			continue
		}
		fn(code)
	}
	return errors.Wrap(scanner.Err(), "scan")
}
