// /home/krylon/go/src/github.com/blicero/ariadne/logdomain/logdomain.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-04 18:22:41 krylon>

// Package logdomain provides symbolic constants to identify the various
// parts of the application that perform logging.
package logdomain

//go:generate stringer -type=ID

// ID represents an area of concern.
type ID uint8

// These constants identify the various logging domains.
const (
	Common ID = iota
	Agent
	Alert
	Client
	Connection
	Database
	DBPool
	Mirror
	Server
)

// AllDomains returns a slice of all the known log sources.
func AllDomains() []ID {
	return []ID{
		Common,
		Agent,
		Alert,
		Client,
		Connection,
		Database,
		DBPool,
		Mirror,
		Server,
	}
} // func AllDomains() []ID
