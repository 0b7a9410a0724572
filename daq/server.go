// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/paxton/cnd"
	"github.com/go-lpc/paxton/sample"
	"github.com/go-lpc/paxton/swipedb"
)

// Store stores decoded swipes.
type Store interface {
	Insert(ctx context.Context, sw swipedb.Swipe) error
}

// Notifier notifies about decoded swipes.
type Notifier interface {
	Send(name string, sw cnd.Swipe) error
}

// Option configures a Server.
type Option func(srv *Server)

// WithStore stores the decoded swipes into db.
func WithStore(db Store) Option {
	return func(srv *Server) {
		srv.db = db
	}
}

// WithNotifier sends the decoded swipes to n.
func WithNotifier(n Notifier) Option {
	return func(srv *Server) {
		srv.alert = n
	}
}

// WithConfig sets the initial decoder configuration.
func WithConfig(cfg cnd.Config) Option {
	return func(srv *Server) {
		srv.cfg = cfg
	}
}

// Server is a TDAQ process decoding Clock-and-Data captures.
type Server struct {
	name string

	cfg   cnd.Config
	db    Store
	alert Notifier

	mu   sync.Mutex
	run  int    // current run number
	runs string // name of the current run

	samples chan []sample.Sample
	swipes  chan cnd.Swipe

	nframes int // number of received sample frames
	nswipes int // number of decoded swipes
}

// New creates a new TDAQ decoder process.
func New(name string, opts ...Option) *Server {
	srv := &Server{
		name: name,
		cfg:  cnd.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.reset()
	return srv
}

// Register registers the commands, inputs, outputs and run loop of the
// decoder process with the TDAQ server.
func (srv *Server) Register(s *tdaq.Server) {
	s.CmdHandle("/config", srv.OnConfig)
	s.CmdHandle("/init", srv.OnInit)
	s.CmdHandle("/reset", srv.OnReset)
	s.CmdHandle("/start", srv.OnStart)
	s.CmdHandle("/stop", srv.OnStop)
	s.CmdHandle("/quit", srv.OnQuit)

	s.InputHandle("/samples", srv.Samples)
	s.OutputHandle("/swipes", srv.Swipes)

	s.RunHandle(srv.Run)
}

func (srv *Server) reset() {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.samples = make(chan []sample.Sample, 1024)
	srv.swipes = make(chan cnd.Swipe, 1024)
	srv.nframes = 0
	srv.nswipes = 0
}

// Config returns the current decoder configuration.
func (srv *Server) Config() cnd.Config {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.cfg
}

// OnConfig loads the YAML decoder configuration carried by the request,
// if any.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	if len(req.Body) == 0 {
		return nil
	}

	cfg, err := cnd.LoadConfig(bytes.NewReader(req.Body))
	if err != nil {
		ctx.Msg.Errorf("could not load configuration: %+v", err)
		return fmt.Errorf("could not load configuration: %w", err)
	}

	srv.mu.Lock()
	srv.cfg = cfg
	srv.mu.Unlock()

	ctx.Msg.Infof(
		"configuration: lead-in=%d lead-out=%d edge=%v polarity=%v policy=%v",
		cfg.LeadIn, cfg.LeadOut, cfg.Edge, cfg.Polarity, cfg.Policy,
	)
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	srv.reset()
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.reset()
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	srv.run++
	srv.runs = fmt.Sprintf("%s-run-%d", srv.name, srv.run)
	name := srv.runs
	srv.mu.Unlock()

	ctx.Msg.Debugf("received /start command... (run=%q)", name)
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	var (
		frames = srv.nframes
		swipes = srv.nswipes
	)
	srv.mu.Unlock()

	ctx.Msg.Debugf("received /stop command... -> frames=%d, swipes=%d", frames, swipes)
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

// Samples receives a frame of samples, encoded as a capture stream.
func (srv *Server) Samples(ctx tdaq.Context, src tdaq.Frame) error {
	samples, err := DecodeSamples(src.Body)
	if err != nil {
		ctx.Msg.Errorf("could not decode samples frame: %+v", err)
		return fmt.Errorf("could not decode samples frame: %w", err)
	}

	srv.mu.Lock()
	ch := srv.samples
	srv.nframes++
	srv.mu.Unlock()

	select {
	case <-ctx.Ctx.Done():
		return nil
	case ch <- samples:
	}
	return nil
}

// Swipes sends the next decoded swipe.
func (srv *Server) Swipes(ctx tdaq.Context, dst *tdaq.Frame) error {
	srv.mu.Lock()
	ch := srv.swipes
	srv.mu.Unlock()

	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case sw := <-ch:
		raw, err := EncodeSwipe(sw)
		if err != nil {
			ctx.Msg.Errorf("could not encode swipe: %+v", err)
			return fmt.Errorf("could not encode swipe: %w", err)
		}
		dst.Body = raw
	}
	return nil
}

// Run decodes the received samples until the end of the run.
func (srv *Server) Run(ctx tdaq.Context) error {
	srv.mu.Lock()
	var (
		cfg  = srv.cfg
		name = srv.runs
		src  = &chanSource{ctx: ctx.Ctx, ch: srv.samples}
		out  = srv.swipes
	)
	srv.mu.Unlock()

	sink := cnd.NewSwipes(func(sw cnd.Swipe) {
		srv.mu.Lock()
		srv.nswipes++
		srv.mu.Unlock()

		ctx.Msg.Infof("swipe: card=%q lrc=0x%x valid=%v samples=[%d, %d)",
			sw.Number(), sw.LRC, sw.Valid(), sw.Start, sw.End,
		)

		if srv.db != nil {
			err := srv.db.Insert(ctx.Ctx, swipedb.New(name, sw))
			if err != nil {
				ctx.Msg.Errorf("could not store swipe: %+v", err)
			}
		}

		if srv.alert != nil && !sw.Valid() {
			err := srv.alert.Send(name, sw)
			if err != nil {
				ctx.Msg.Warnf("could not send swipe alert: %+v", err)
			}
		}

		select {
		case out <- sw:
		default:
			ctx.Msg.Warnf("swipes output full: dropping swipe %q", sw.Number())
		}
	})

	err := cnd.Decode(ctx.Ctx, src, sink, cnd.WithConfig(cfg))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		ctx.Msg.Errorf("could not decode samples: %+v", err)
		return fmt.Errorf("could not decode samples: %w", err)
	}
}

// chanSource is a source of samples received over a channel.
// It is exhausted when its context is done.
type chanSource struct {
	ctx context.Context
	ch  <-chan []sample.Sample
	buf []sample.Sample

	seen bool
	last uint64
}

func (src *chanSource) Next() (sample.Sample, error) {
	for len(src.buf) == 0 {
		select {
		case <-src.ctx.Done():
			return sample.Sample{}, io.EOF
		case src.buf = <-src.ch:
		}
	}

	s := src.buf[0]
	src.buf = src.buf[1:]
	if src.seen && s.Index <= src.last {
		return s, fmt.Errorf(
			"daq: non-increasing sample index (got=%d, prev=%d)",
			s.Index, src.last,
		)
	}
	src.seen = true
	src.last = s.Index
	return s, nil
}

var (
	_ sample.Source = (*chanSource)(nil)
)
