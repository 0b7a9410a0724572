// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// cnd-gen generates Clock-and-Data capture files from card numbers.
//
// Usage: cnd-gen [OPTIONS] [CARD1 [CARD2 [CARD3 ...]]]
//
// Card number fields are separated by ':'.
// When no card number is given on the command line, cnd-gen reads them
// from an interactive prompt.
//
// Example:
//
//	$> cnd-gen -o card.cnd 123:45 :6
//	cnd-gen: wrote 2 card(s) to "card.cnd" (540 samples)
package main // import "github.com/go-lpc/paxton/cmd/cnd-gen"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-lpc/paxton/capture"
	"github.com/go-lpc/paxton/cnd"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("cnd-gen: ")
	log.SetFlags(0)

	err := xmain(os.Args[1:])
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// prompt reads card numbers interactively, until EOF or an empty line.
var prompt = func() ([]string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	var cards []string
	for {
		card, err := line.Prompt("card> ")
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, liner.ErrPromptAborted):
				return cards, nil
			}
			return nil, fmt.Errorf("could not read card number: %w", err)
		}
		card = strings.TrimSpace(card)
		if card == "" {
			return cards, nil
		}
		line.AppendHistory(card)
		cards = append(cards, card)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("cnd-gen", flag.ContinueOnError)
		def  = cnd.DefaultConfig()

		oname   = fset.String("o", "out.cnd", "path to the output capture file")
		rate    = fset.Uint64("rate", 1_000_000, "sample rate (in Hz)")
		gap     = fset.Uint64("gap", 100, "number of idle samples between cards")
		flip    = fset.Int("flip", -1, "index of a frame bit to corrupt in every card (-1 to disable)")
		leadin  = fset.Int("leadin", def.LeadIn, "number of lead-in zero bits")
		leadout = fset.Int("leadout", def.LeadOut, "number of lead-out zero bits")

		cfg = def
	)
	fset.TextVar(&cfg.Edge, "edge", def.Edge, "clock edge on which data is valid (rising|falling)")
	fset.TextVar(&cfg.Polarity, "polarity", def.Polarity, "data line polarity (normal|inverted)")

	err := fset.Parse(args)
	if err != nil {
		return err
	}
	cfg.LeadIn = *leadin
	cfg.LeadOut = *leadout

	cards := fset.Args()
	if len(cards) == 0 {
		cards, err = prompt()
		if err != nil {
			return err
		}
	}
	if len(cards) == 0 {
		return fmt.Errorf("missing card number")
	}

	n, err := generate(*oname, *rate, *gap, *flip, cfg, cards)
	if err != nil {
		return err
	}
	log.Printf("wrote %d card(s) to %q (%d samples)", len(cards), *oname, n)
	return nil
}

// generate writes the waveforms of the provided cards to the named file.
// generate returns the number of generated samples.
func generate(oname string, rate, gap uint64, flip int, cfg cnd.Config, cards []string) (uint64, error) {
	syn, err := cnd.NewSynth(cnd.WithConfig(cfg))
	if err != nil {
		return 0, fmt.Errorf("could not create synthesizer: %w", err)
	}

	f, err := os.Create(oname)
	if err != nil {
		return 0, fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	var (
		enc = capture.NewEncoder(f, rate)
		beg uint64
	)
	for _, card := range cards {
		bits, err := syn.Card(strings.Split(card, ":")...)
		if err != nil {
			return 0, fmt.Errorf("could not generate card %q: %w", card, err)
		}
		if flip >= 0 {
			if flip >= len(bits) {
				return 0, fmt.Errorf("invalid bit index %d for card %q (bits=%d)", flip, card, len(bits))
			}
			bits[flip] ^= 1
		}

		samples := syn.Samples(bits, beg)
		for _, s := range samples {
			err := enc.Write(s)
			if err != nil {
				return 0, fmt.Errorf("could not write card %q: %w", card, err)
			}
		}
		beg += uint64(len(samples)) + gap
	}

	err = enc.Close()
	if err != nil {
		return 0, fmt.Errorf("could not close capture stream: %w", err)
	}

	err = f.Close()
	if err != nil {
		return 0, fmt.Errorf("could not close output file: %w", err)
	}

	return beg - gap, nil
}
