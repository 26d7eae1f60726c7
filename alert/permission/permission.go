// /home/krylon/go/src/github.com/blicero/ariadne/alert/permission/permission.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-08 18:02:19 krylon>

//go:generate stringer -type=State

// Package permission contains symbolic constants for the lifecycle of
// the user's consent to system-level notifications.
package permission

// State describes where we are in the consent lifecycle.
//
// Unknown means we have not asked, yet. Requested means a query is in
// flight. Granted and Denied are the terminal answers, and Denied is
// sticky: once the user said no, we do not ask again during this run.
type State uint8

const (
	Unknown State = iota
	Requested
	Granted
	Denied
)
