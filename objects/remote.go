// /home/krylon/go/src/github.com/blicero/ariadne/objects/remote.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-18 20:11:48 krylon>

package objects

import "fmt"

//go:generate ffjson remote.go

// Remote describes a server instance discovered on the local network
// that an agent can connect to.
type Remote struct {
	Instance string
	Hostname string
	IPv4     string
	IPv6     string
	Domain   string
	Port     int
}

// Spec returns a string representing the Remote suitable to pass as an
// address to net.Dial or http.Get/http.Post
func (r *Remote) Spec() string {
	return fmt.Sprintf("%s:%d",
		r.Hostname,
		r.Port)
} // func (r *Remote) Spec() string

func (r *Remote) String() string {
	return fmt.Sprintf("Remote{ Instance: %q, Hostname: %q, Domain: %q, Port: %d }",
		r.Instance,
		r.Hostname,
		r.Domain,
		r.Port)
} // func (r *Remote) String() string
