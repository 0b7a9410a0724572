// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alert sends e-mail alerts about corrupted card swipes.
package alert // import "github.com/go-lpc/paxton/internal/alert"

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-lpc/paxton/cnd"
	mail "gopkg.in/gomail.v2"
)

// MaxAlerts is the maximum number of alerts sent per capture.
const MaxAlerts = 5

var errNoCredentials = errors.New("alert: missing credentials")

// Mailer sends e-mail alerts.
type Mailer struct {
	Server   string
	Port     int
	User     string
	Password string
	To       []string

	mu     sync.Mutex
	alerts map[string]int // number of alerts sent per capture

	send func(msg *mail.Message) error
}

// FromEnv creates a mailer configured from the MAIL_SERVER, MAIL_PORT,
// MAIL_USERNAME, MAIL_PASSWORD and MAIL_TGTS environment variables.
func FromEnv() *Mailer {
	port, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	var tgts []string
	for _, v := range strings.Split(os.Getenv("MAIL_TGTS"), ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tgts = append(tgts, v)
	}
	return &Mailer{
		Server:   os.Getenv("MAIL_SERVER"),
		Port:     port,
		User:     os.Getenv("MAIL_USERNAME"),
		Password: os.Getenv("MAIL_PASSWORD"),
		To:       tgts,
	}
}

// Ok reports whether the mailer has all the credentials needed to send
// alerts.
func (m *Mailer) Ok() bool {
	return m.Server != "" && m.Port != 0 &&
		m.User != "" && m.Password != "" &&
		len(m.To) != 0
}

// Message creates the alert message for a swipe of the named capture.
func (m *Mailer) Message(name string, sw cnd.Swipe) *mail.Message {
	status, lrc := "LRC error", "invalid"
	if sw.LRCValid {
		status, lrc = "parity error", "valid"
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.User)
	msg.SetHeader("Bcc", m.To...)
	msg.SetHeader("Subject", fmt.Sprintf("[cnd] swipe alert: %q (%s)", name, status))
	msg.SetBody("text/plain", fmt.Sprintf(
		"capture: %q\nsamples: [%d, %d)\ncard:    %q\nlrc:     0x%x (%s)\nparity:  %d error(s)\n",
		name, sw.Start, sw.End, sw.Number(),
		sw.LRC, lrc, sw.ParityErrors,
	))
	return msg
}

// Send sends an alert for a corrupted swipe of the named capture.
// Send does nothing for valid swipes, or once MaxAlerts alerts were sent
// for the capture.
func (m *Mailer) Send(name string, sw cnd.Swipe) error {
	if sw.Valid() {
		return nil
	}

	if !m.Ok() {
		return errNoCredentials
	}

	m.mu.Lock()
	if m.alerts == nil {
		m.alerts = make(map[string]int)
	}
	n := m.alerts[name]
	if n >= MaxAlerts {
		m.mu.Unlock()
		return nil
	}
	m.alerts[name]++
	m.mu.Unlock()

	send := m.send
	if send == nil {
		send = m.dialAndSend
	}

	err := send(m.Message(name, sw))
	if err != nil {
		return fmt.Errorf("alert: could not send mail alert for %q: %w", name, err)
	}
	return nil
}

func (m *Mailer) dialAndSend(msg *mail.Message) error {
	dial := mail.NewDialer(m.Server, m.Port, m.User, m.Password)
	dial.TLSConfig = &tls.Config{
		ServerName:         m.Server,
		InsecureSkipVerify: true,
	}
	return dial.DialAndSend(msg)
}
