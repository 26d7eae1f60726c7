// /home/krylon/go/src/github.com/blicero/ariadne/objects/frequency/frequency.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-05 17:48:33 krylon>

//go:generate stringer -type=Frequency

// Package frequency contains symbolic constants to specify how often
// the user wants to be alerted about incoming notifications.
package frequency

// Frequency describes the user's appetite for being alerted.
type Frequency uint8

// All means every incoming event is admitted.
// Important means only events the server flagged for delivery (sound
// or push) are admitted.
// Never means incoming events are dropped entirely.
const (
	All Frequency = iota
	Important
	Never
)
