// /home/krylon/go/src/github.com/blicero/ariadne/agent/discover.go
// -*- mode: go; coding: utf-8; -*-
// Created on 02. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 20:31:09 krylon>

package agent

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/objects"
	"github.com/grandcat/zeroconf"
)

const (
	srvService = "_http._tcp"
	srvDomain  = "local."
)

var instancePat = regexp.MustCompile(fmt.Sprintf("^%s@(\\S+)", common.AppName))

// Discover browses the local network via DNS-SD for server instances
// an agent could connect to. It blocks for the given timeout and
// returns whatever it found.
func Discover(ctx context.Context, timeout time.Duration) ([]objects.Remote, error) {
	var (
		err      error
		resolver *zeroconf.Resolver
		entries  chan *zeroconf.ServiceEntry
		remotes  = make([]objects.Remote, 0, 4)
		done     = make(chan struct{})
	)

	if resolver, err = zeroconf.NewResolver(nil); err != nil {
		return nil, err
	}

	entries = make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(done)
		for entry := range entries {
			if !instancePat.MatchString(entry.Instance) {
				continue
			}

			var r = objects.Remote{
				Instance: entry.Instance,
				Hostname: entry.HostName,
				Domain:   entry.Domain,
				Port:     entry.Port,
			}

			if len(entry.AddrIPv4) > 0 {
				r.IPv4 = entry.AddrIPv4[0].String()
			}
			if len(entry.AddrIPv6) > 0 {
				r.IPv6 = entry.AddrIPv6[0].String()
			}

			remotes = append(remotes, r)
		}
	}()

	bctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err = resolver.Browse(bctx, srvService, srvDomain, entries); err != nil {
		return nil, err
	}

	<-bctx.Done()
	<-done

	return remotes, nil
} // func Discover(ctx context.Context, timeout time.Duration) ([]objects.Remote, error)
