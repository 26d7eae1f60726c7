// /home/krylon/go/src/github.com/blicero/ariadne/agent/errors.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-16 14:21:55 krylon>

package agent

import "fmt"

// ConnectionError indicates a failure of the persistent event
// transport. It is never surfaced to the user, the agent logs it and
// keeps working with on-demand fetches.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Connection error during %s: %s",
		e.Op,
		e.Err.Error())
} // func (e *ConnectionError) Error() string

func (e *ConnectionError) Unwrap() error {
	return e.Err
} // func (e *ConnectionError) Unwrap() error

// RequestError indicates that a REST request failed or was rejected by
// the server. Unlike connection errors, these are meant to be shown to
// the user.
type RequestError struct {
	Path    string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Request to %s failed (status %d): %s",
		e.Path,
		e.Status,
		e.Message)
} // func (e *RequestError) Error() string
