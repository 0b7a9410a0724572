// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// cnd-dump decodes and displays Clock-and-Data capture files.
//
// Usage: cnd-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> cnd-dump -cats=leadin,card,lrc ./testdata/card.cnd
//	=== ./testdata/card.cnd ===
//	         1         39 leadin    Lead in
//	        61        119 card      123
//	       141        179 card      45
//	       201        219 lrc       8
//	       221        259 leadin    Lead out
//
//	$> cnd-dump -swipes ./testdata/card.cnd
//	=== ./testdata/card.cnd ===
//	         1        259 ok     card="123:45" lrc=8 parity-errors=0
package main // import "github.com/go-lpc/paxton/cmd/cnd-dump"

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/go-lpc/paxton/capture"
	"github.com/go-lpc/paxton/cnd"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("cnd-dump: ")
	log.SetFlags(0)

	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

type options struct {
	cfg    cnd.Config
	swipes bool
	cats   []cnd.Category
}

func xmain(w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("cnd-dump", flag.ContinueOnError)
		def  = cnd.DefaultConfig()

		leadin  = fset.Int("leadin", def.LeadIn, "number of lead-in zero bits")
		leadout = fset.Int("leadout", def.LeadOut, "number of lead-out zero bits")
		cfgname = fset.String("cfg", "", "path to a YAML decoder configuration file")
		swipes  = fset.Bool("swipes", false, "display decoded swipes instead of annotations")
		cats    = fset.String("cats", "", "comma-separated list of annotation categories to display")

		edge   = def.Edge
		pol    = def.Polarity
		policy = def.Policy
	)
	fset.TextVar(&edge, "edge", def.Edge, "clock edge on which data is valid (rising|falling)")
	fset.TextVar(&pol, "polarity", def.Polarity, "data line polarity (normal|inverted)")
	fset.TextVar(&policy, "policy", def.Policy, "error reporting policy (current|legacy)")

	fset.Usage = func() {
		fmt.Fprintf(fset.Output(), `cnd-dump decodes and displays Clock-and-Data capture files.

Usage: cnd-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> cnd-dump -cats=leadin,card,lrc ./testdata/card.cnd
 $> cnd-dump -swipes ./testdata/card.cnd

Options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return err
	}

	if fset.NArg() == 0 {
		fset.Usage()
		return fmt.Errorf("missing path to input capture file")
	}

	opts := options{cfg: def, swipes: *swipes}
	if *cfgname != "" {
		opts.cfg, err = loadConfig(*cfgname)
		if err != nil {
			return err
		}
	}

	// explicitly set flags override the configuration file.
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "leadin":
			opts.cfg.LeadIn = *leadin
		case "leadout":
			opts.cfg.LeadOut = *leadout
		case "edge":
			opts.cfg.Edge = edge
		case "polarity":
			opts.cfg.Polarity = pol
		case "policy":
			opts.cfg.Policy = policy
		}
	})

	err = opts.cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid decoder configuration: %w", err)
	}

	if *cats != "" {
		for _, v := range strings.Split(*cats, ",") {
			var cat cnd.Category
			err := cat.UnmarshalText([]byte(v))
			if err != nil {
				return fmt.Errorf("could not parse -cats: %w", err)
			}
			opts.cats = append(opts.cats, cat)
		}
	}

	return dump(context.Background(), w, fset.Args(), opts)
}

func loadConfig(fname string) (cnd.Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return cnd.Config{}, fmt.Errorf("could not open configuration file: %w", err)
	}
	defer f.Close()

	cfg, err := cnd.LoadConfig(f)
	if err != nil {
		return cfg, fmt.Errorf("could not load configuration file %q: %w", fname, err)
	}
	return cfg, nil
}

// dump decodes all the files concurrently and displays them in order.
func dump(ctx context.Context, w io.Writer, fnames []string, opts options) error {
	var (
		outs     = make([]bytes.Buffer, len(fnames))
		grp, gtx = errgroup.WithContext(ctx)
	)
	grp.SetLimit(runtime.GOMAXPROCS(0))

	for i := range fnames {
		i := i
		grp.Go(func() error {
			err := process(gtx, &outs[i], fnames[i], opts)
			if err != nil {
				return fmt.Errorf("could not dump file %q: %w", fnames[i], err)
			}
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return err
	}

	wbuf := bufio.NewWriter(w)
	for i := range outs {
		fmt.Fprintf(wbuf, "=== %s ===\n", fnames[i])
		_, err = wbuf.Write(outs[i].Bytes())
		if err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	}
	return wbuf.Flush()
}

func process(ctx context.Context, w io.Writer, fname string, opts options) error {
	f, err := capture.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	var sink interface {
		cnd.Sink
		Err() error
	}
	switch {
	case opts.swipes:
		sink = newSwipeSink(w)
	default:
		sink = cnd.NewTextSink(w, opts.cats...)
	}

	err = cnd.Decode(ctx, f, sink, cnd.WithConfig(opts.cfg))
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", fname, err)
	}

	err = sink.Err()
	if err != nil {
		return fmt.Errorf("could not write annotations: %w", err)
	}

	return nil
}

type swipeSink struct {
	*cnd.Swipes
	err error
}

func newSwipeSink(w io.Writer) *swipeSink {
	sink := new(swipeSink)
	sink.Swipes = cnd.NewSwipes(func(sw cnd.Swipe) {
		if sink.err != nil {
			return
		}
		status := "ok"
		if !sw.Valid() {
			status = "error"
		}
		_, sink.err = fmt.Fprintf(
			w, "%10d %10d %-6s card=%q lrc=%X parity-errors=%d\n",
			sw.Start, sw.End, status, sw.Number(), sw.LRC, sw.ParityErrors,
		)
	})
	return sink
}

func (sink *swipeSink) Err() error {
	return sink.err
}
