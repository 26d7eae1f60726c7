// /home/krylon/go/src/github.com/blicero/ariadne/main.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-26 18:09:41 krylon>

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blicero/ariadne/agent"
	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/server"
)

func main() {
	fmt.Printf("%s %s (built %s)\n",
		common.AppName,
		common.Version,
		common.BuildStamp)

	var (
		err                       error
		appDir, mode, addr, token string
	)

	flag.StringVar(
		&appDir,
		"appdir",
		common.BaseDir,
		"The directory where application-specific files live")

	flag.StringVar(
		&mode,
		"mode",
		"server",
		"Whether to run the *server* or the *agent*",
	)

	flag.StringVar(
		&addr,
		"address",
		fmt.Sprintf("localhost:%d", common.DefaultPort),
		"Address to either listen on (server) or connect to (agent)",
	)

	flag.StringVar(
		&token,
		"token",
		"",
		"Session token to authenticate the agent with",
	)

	flag.Parse()

	if appDir != common.BaseDir {
		if err = common.SetBaseDir(appDir); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Cannot set application directory to %s: %s\n",
				appDir,
				err.Error())
			os.Exit(1)
		}
	}

	var sigQ = make(chan os.Signal, 1)
	signal.Notify(sigQ, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	if mode == "server" {
		var daemon *server.Daemon

		if daemon, err = server.Summon(addr); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Failed to initialize server: %s\n",
				err.Error())
			os.Exit(1)
		}

		var ticker = time.NewTicker(time.Second * 2)

		for daemon.IsAlive() {
			select {
			case sig := <-sigQ:
				fmt.Printf("Quitting on signal %s\n", sig)
				daemon.Banish() // nolint: errcheck
				os.Exit(0)
			case <-ticker.C:
				continue
			}
		}
	} else if mode == "agent" {
		var a *agent.Agent

		if addr == fmt.Sprintf("localhost:%d", common.DefaultPort) {
			// No explicit address, see if we can find a server on
			// the local network.
			var remotes []objects.Remote

			if remotes, err = agent.Discover(context.Background(), time.Second*2); err == nil && len(remotes) > 0 {
				addr = remotes[0].Spec()
				fmt.Printf("Discovered server %s\n", addr)
			}
		}

		if a, err = agent.Summon(addr); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Failed to initialize agent: %s\n",
				err.Error())
			os.Exit(1)
		}

		if token != "" {
			if err = a.Login(token); err != nil {
				fmt.Fprintf(
					os.Stderr,
					"Login failed: %s\n",
					err.Error())
				os.Exit(1)
			}
		}

		var ticker = time.NewTicker(time.Second * 2)

		for a.IsAlive() {
			select {
			case sig := <-sigQ:
				fmt.Printf("Quitting on signal %s\n", sig)
				a.Banish()
				os.Exit(0)
			case <-ticker.C:
				continue
			}
		}
	} else {
		fmt.Fprintf(
			os.Stderr,
			"Unknown mode %q",
			mode,
		)

		os.Exit(1)
	}
}
