// /home/krylon/go/src/github.com/blicero/ariadne/objects/notification.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-20 21:34:56 krylon>

// Package objects provides the data types used by the application.
package objects

import (
	"fmt"
	"time"

	"github.com/pquerna/ffjson/ffjson"
)

//go:generate ffjson notification.go

// Notification is a single entry in a user's notification feed.
//
// SenderID, TaskID and ProjectID are correlation references only, they
// do not imply ownership. PlaySound and SendPush are delivery hints set
// by the server per event.
type Notification struct {
	ID        int64
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
	SenderID  int64
	TaskID    int64
	ProjectID int64
	PlaySound bool
	SendPush  bool
	UUID      string
}

// Payload returns the Notification's Title and Body.
func (n *Notification) Payload() (string, string) {
	return n.Title, n.Body
} // func (n *Notification) Payload() (string, string)

// Validate checks that a Notification received from the outside world
// carries the fields the rest of the application relies on.
func (n *Notification) Validate() error {
	switch {
	case n.ID == 0:
		return fmt.Errorf("Notification has no ID")
	case n.Title == "":
		return fmt.Errorf("Notification #%d has an empty Title", n.ID)
	case n.CreatedAt.IsZero():
		return fmt.Errorf("Notification #%d (%q) has no creation time",
			n.ID,
			n.Title)
	default:
		return nil
	}
} // func (n *Notification) Validate() error

// ParseEvent parses and validates the payload of an inbound push event.
// Malformed payloads are rejected here, at the ingestion boundary, so
// nothing downstream ever sees a half-baked Notification.
func ParseEvent(buf []byte) (*Notification, error) {
	var (
		err error
		n   Notification
	)

	if err = ffjson.Unmarshal(buf, &n); err != nil {
		return nil, fmt.Errorf("Cannot parse event payload: %s",
			err.Error())
	} else if err = n.Validate(); err != nil {
		return nil, err
	}

	return &n, nil
} // func ParseEvent(buf []byte) (*Notification, error)
