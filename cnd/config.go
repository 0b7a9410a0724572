// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"fmt"
	"io"

	"github.com/go-lpc/paxton/sample"
	"gopkg.in/yaml.v3"
)

// Polarity describes how levels of the data line map to logical bits.
type Polarity uint8

const (
	Normal   Polarity = iota // high level is a logical 1
	Inverted                 // high level is a logical 0
)

func (p Polarity) String() string {
	switch p {
	case Normal:
		return "normal"
	case Inverted:
		return "inverted"
	}
	return fmt.Sprintf("Polarity(%d)", uint8(p))
}

func (p Polarity) MarshalText() ([]byte, error) {
	switch p {
	case Normal, Inverted:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("cnd: invalid polarity %d", uint8(p))
}

func (p *Polarity) UnmarshalText(txt []byte) error {
	switch string(txt) {
	case "normal":
		*p = Normal
	case "inverted":
		*p = Inverted
	default:
		return fmt.Errorf("cnd: invalid polarity %q", txt)
	}
	return nil
}

// table returns the mapping from raw data levels to logical bits.
func (p Polarity) table() [2]uint8 {
	if p == Inverted {
		return [2]uint8{1, 0}
	}
	return [2]uint8{0, 1}
}

// Policy selects how decoding anomalies are reported.
//
// Two flavours of the decoder have been deployed:
// the current one reports parity mismatches as plain "Even" parity
// annotations and unknown digits under their own category, while the
// legacy one flags parity mismatches as "Parity Error" and folds unknown
// digits and parity/LRC errors into a single Error category.
type Policy struct {
	ParityErrors bool `yaml:"parity-errors"` // flag parity mismatches as "Parity Error"
	FoldErrors   bool `yaml:"fold-errors"`   // report unknown digits and errors under the Error category
}

var (
	PolicyCurrent = Policy{}
	PolicyLegacy  = Policy{ParityErrors: true, FoldErrors: true}
)

func (p Policy) String() string {
	switch p {
	case PolicyCurrent:
		return "current"
	case PolicyLegacy:
		return "legacy"
	}
	return fmt.Sprintf("Policy{ParityErrors:%v FoldErrors:%v}", p.ParityErrors, p.FoldErrors)
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(txt []byte) error {
	switch string(txt) {
	case "current":
		*p = PolicyCurrent
	case "legacy":
		*p = PolicyLegacy
	default:
		return fmt.Errorf("cnd: invalid policy %q", txt)
	}
	return nil
}

// UnmarshalYAML accepts either a policy name or a mapping of policy flags.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return p.UnmarshalText([]byte(node.Value))
	}
	type raw Policy
	var v raw
	err := node.Decode(&v)
	if err != nil {
		return fmt.Errorf("cnd: could not decode policy: %w", err)
	}
	*p = Policy(v)
	return nil
}

// Config holds the configuration of a decoding session.
type Config struct {
	LeadIn   int         `yaml:"leadin"`   // number of lead-in bits
	LeadOut  int         `yaml:"leadout"`  // number of lead-out bits
	Edge     sample.Edge `yaml:"edge"`     // clock edge on which data is valid
	Polarity Polarity    `yaml:"polarity"` // data line polarity
	Policy   Policy      `yaml:"policy"`
}

// DefaultConfig returns the configuration suitable for Paxton readers.
func DefaultConfig() Config {
	return Config{
		LeadIn:   10,
		LeadOut:  10,
		Edge:     sample.Falling,
		Polarity: Inverted,
		Policy:   PolicyCurrent,
	}
}

// Validate checks the configuration values.
func (cfg Config) Validate() error {
	if cfg.LeadIn <= 0 {
		return fmt.Errorf("cnd: invalid lead-in length %d", cfg.LeadIn)
	}
	if cfg.LeadOut <= 0 {
		return fmt.Errorf("cnd: invalid lead-out length %d", cfg.LeadOut)
	}
	switch cfg.Edge {
	case sample.Rising, sample.Falling:
	default:
		return fmt.Errorf("cnd: invalid clock edge %v", cfg.Edge)
	}
	switch cfg.Polarity {
	case Normal, Inverted:
	default:
		return fmt.Errorf("cnd: invalid polarity %v", cfg.Polarity)
	}
	return nil
}

// LoadConfig reads a YAML configuration from r.
// Missing values are taken from DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	err := yaml.NewDecoder(r).Decode(&cfg)
	if err != nil && err != io.EOF {
		return cfg, fmt.Errorf("cnd: could not decode configuration: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Option configures a decoding session.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(v Config) Option {
	return func(cfg *Config) {
		*cfg = v
	}
}

// WithLeadIn sets the number of lead-in bits.
func WithLeadIn(n int) Option {
	return func(cfg *Config) {
		cfg.LeadIn = n
	}
}

// WithLeadOut sets the number of lead-out bits.
func WithLeadOut(n int) Option {
	return func(cfg *Config) {
		cfg.LeadOut = n
	}
}

// WithEdge sets the clock edge on which data is captured.
func WithEdge(e sample.Edge) Option {
	return func(cfg *Config) {
		cfg.Edge = e
	}
}

// WithPolarity sets the data line polarity.
func WithPolarity(p Polarity) Option {
	return func(cfg *Config) {
		cfg.Polarity = p
	}
}

// WithPolicy sets the anomaly reporting policy.
func WithPolicy(p Policy) Option {
	return func(cfg *Config) {
		cfg.Policy = p
	}
}

func newConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	err := cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}
