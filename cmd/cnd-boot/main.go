// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cnd-boot (re)starts the processes of a Clock-and-Data acquisition.
//
// Usage: cnd-boot [OPTIONS] [CMD1 [CMD2 ...]]
//
// Each command is started with its output redirected to a log file under
// the $CNDLOGDIR directory (/var/log/cnd by default).
// By default, cnd-boot starts the TDAQ run-control and a cnd-srv process.
//
// Example:
//
//	$> cnd-boot -pmon "tdaq-runctl -lvl=dbg" "cnd-srv -id=cnd-srv -db=cndsrv"
package main // import "github.com/go-lpc/paxton/cmd/cnd-boot"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

var defaultCmds = []string{
	"tdaq-runctl",
	"cnd-srv -id=cnd-srv",
}

func main() {
	log.SetPrefix("cnd-boot: ")
	log.SetFlags(0)

	var (
		doMon   = flag.Bool("pmon", false, "enable pmon monitoring")
		doFreq  = flag.Duration("freq", 1*time.Second, "pmon frequency")
		restart = flag.Bool("restart", false, "kill already running instances of the commands")
	)

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		args = defaultCmds
	}

	cmds, err := commands(args)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	if *restart {
		killall(cmds)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	err = run(*doMon, *doFreq, cmds, os.Getenv("CNDLOGDIR"), stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func commands(args []string) ([]*exec.Cmd, error) {
	cmds := make([]*exec.Cmd, 0, len(args))
	for _, arg := range args {
		toks := strings.Fields(arg)
		if len(toks) == 0 {
			return nil, fmt.Errorf("invalid empty command")
		}
		cmds = append(cmds, exec.Command(toks[0], toks[1:]...))
	}
	return cmds, nil
}

func killall(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		name := filepath.Base(cmd.Path)
		kill := exec.Command("killall", name)
		kill.Stderr = os.Stderr
		kill.Stdout = os.Stdout
		err := kill.Run()
		if err != nil {
			log.Printf("could not kill %q: %+v", name, err)
		}
	}
}

func run(doMon bool, freq time.Duration, cmds []*exec.Cmd, dir string, stop chan os.Signal) error {
	if dir == "" {
		dir = "/var/log/cnd"
	}

	var (
		grp  errgroup.Group
		kill = make(chan int)
		done = make(chan int)
	)
	defer close(done)

	for i := range cmds {
		cmd := cmds[i]
		grp.Go(func() error {
			return start(cmd, dir, kill, doMon, freq)
		})
	}

	go func() {
		select {
		case <-stop:
			close(kill)
		case <-done:
		}
	}()

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not boot DAQ: %w", err)
	}
	return nil
}

func start(cmd *exec.Cmd, dir string, kill chan int, doMon bool, freq time.Duration) error {
	name := filepath.Base(cmd.Path)
	out, err := os.Create(filepath.Join(dir, name+".log"))
	if err != nil {
		return fmt.Errorf("could not create output log file for %q: %w", name, err)
	}
	defer out.Close()

	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("starting %q...", name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			_ = cmd.Process.Kill()
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(filepath.Join(dir, name+"-pmon.log"))
		if err != nil {
			_ = cmd.Process.Kill()
			return fmt.Errorf("could not create pmon log file for command %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			err := p.Run()
			if err != nil {
				log.Printf("could not monitor %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error, 1)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-kill:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %w", name, err)
		}
		<-errch
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}
