// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"fmt"
	"io"
	"strings"
)

// Category is the kind of a decoded annotation.
type Category uint8

const (
	CatBit       Category = iota // a single bit
	CatLeadInOut                 // lead-in or lead-out marker
	CatDigit                     // a card number digit
	CatCard                      // a card number field
	CatParity                    // digit parity status
	CatLrc                       // the LRC digit
	CatBegin                     // begin control digit
	CatSeparator                 // separator control digit
	CatEnd                       // end control digit
	CatUnknown                   // digit outside of card data
	CatError                     // parity, LRC or unknown digit errors (legacy policy)

	nCategories
)

var categories = [nCategories]struct {
	id   string
	desc string
	row  Row
}{
	CatBit:       {"bit", "Bit", RowBits},
	CatLeadInOut: {"leadin", "Lead In/Out", RowDigits},
	CatDigit:     {"digit", "Digit", RowDigits},
	CatCard:      {"card", "Number", RowCards},
	CatParity:    {"parity", "Parity", RowParity},
	CatLrc:       {"lrc", "LRC", RowDigits},
	CatBegin:     {"begin", "Begin", RowDigits},
	CatSeparator: {"separator", "Separator", RowDigits},
	CatEnd:       {"end", "End", RowDigits},
	CatUnknown:   {"unknown", "Unknown", RowDigits},
	CatError:     {"error", "Error", RowParity},
}

// ID returns the short identifier of the category.
func (cat Category) ID() string {
	if cat >= nCategories {
		return fmt.Sprintf("cat-%d", uint8(cat))
	}
	return categories[cat].id
}

// Desc returns the human readable description of the category.
func (cat Category) Desc() string {
	if cat >= nCategories {
		return fmt.Sprintf("Category(%d)", uint8(cat))
	}
	return categories[cat].desc
}

// Row returns the display row the category belongs to.
func (cat Category) Row() Row {
	if cat >= nCategories {
		return RowDigits
	}
	return categories[cat].row
}

func (cat Category) String() string { return cat.ID() }

// MarshalText implements encoding.TextMarshaler.
func (cat Category) MarshalText() ([]byte, error) {
	if cat >= nCategories {
		return nil, fmt.Errorf("cnd: invalid category %d", uint8(cat))
	}
	return []byte(cat.ID()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (cat *Category) UnmarshalText(txt []byte) error {
	id := strings.ToLower(strings.TrimSpace(string(txt)))
	for i, v := range categories {
		if v.id == id {
			*cat = Category(i)
			return nil
		}
	}
	return fmt.Errorf("cnd: invalid category %q", txt)
}

// Categories returns all the annotation categories.
func Categories() []Category {
	cats := make([]Category, nCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Row groups categories for display.
type Row uint8

const (
	RowBits Row = iota
	RowDigits
	RowCards
	RowParity
)

func (row Row) String() string {
	switch row {
	case RowBits:
		return "bits"
	case RowDigits:
		return "digits"
	case RowCards:
		return "cards"
	case RowParity:
		return "parity"
	}
	return fmt.Sprintf("Row(%d)", uint8(row))
}

// Annotation texts.
const (
	txtLeadIn      = "Lead in"
	txtLeadOut     = "Lead out"
	txtOdd         = "Odd"
	txtEven        = "Even"
	txtParityError = "Parity Error"
	txtLRCError    = "LRC Error"
	txtNoData      = "No Data"
)

// Annotation is a decoded unit spanning the [Start, End) sample indices.
type Annotation struct {
	Start uint64
	End   uint64
	Cat   Category
	Text  []string
}

func (ann Annotation) String() string {
	return fmt.Sprintf("[%d, %d) %s %s", ann.Start, ann.End, ann.Cat, strings.Join(ann.Text, "|"))
}

// Sink receives annotations from a decoder.
type Sink interface {
	Emit(ann Annotation)
}

// SinkFunc is an adapter to use a function as a Sink.
type SinkFunc func(ann Annotation)

func (f SinkFunc) Emit(ann Annotation) { f(ann) }

// Sinks returns a sink that forwards annotations to all sinks.
func Sinks(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (ms multiSink) Emit(ann Annotation) {
	for _, sink := range ms {
		sink.Emit(ann)
	}
}

// TextSink writes annotations, one per line, to an underlying writer.
type TextSink struct {
	w    io.Writer
	err  error
	keep [nCategories]bool
}

// NewTextSink returns a sink writing annotations of the provided
// categories to w.
// All categories are written if none is provided.
func NewTextSink(w io.Writer, cats ...Category) *TextSink {
	sink := &TextSink{w: w}
	if len(cats) == 0 {
		cats = Categories()
	}
	for _, cat := range cats {
		if cat < nCategories {
			sink.keep[cat] = true
		}
	}
	return sink
}

func (sink *TextSink) Emit(ann Annotation) {
	if sink.err != nil || ann.Cat >= nCategories || !sink.keep[ann.Cat] {
		return
	}
	_, sink.err = fmt.Fprintf(
		sink.w, "%10d %10d %-9s %s\n",
		ann.Start, ann.End, ann.Cat.ID(), strings.Join(ann.Text, " "),
	)
}

// Err returns the first error encountered while writing annotations.
func (sink *TextSink) Err() error {
	return sink.err
}

var (
	_ Sink = (SinkFunc)(nil)
	_ Sink = (multiSink)(nil)
	_ Sink = (*TextSink)(nil)
)
