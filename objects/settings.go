// /home/krylon/go/src/github.com/blicero/ariadne/objects/settings.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-20 21:36:12 krylon>

package objects

import (
	"fmt"

	"github.com/blicero/ariadne/objects/frequency"
)

//go:generate ffjson settings.go

// Settings is a user's alert policy. It never transforms notification
// content, it only decides what gets through.
type Settings struct {
	SoundAlerts       bool
	PushNotifications bool
	Frequency         frequency.Frequency
}

// Admit returns true if the given Notification passes the user's
// frequency gate. Events flagged for neither sound nor push do not
// count as important.
func (s *Settings) Admit(n *Notification) bool {
	switch s.Frequency {
	case frequency.Never:
		return false
	case frequency.Important:
		return n.PlaySound || n.SendPush
	default:
		return true
	}
} // func (s *Settings) Admit(n *Notification) bool

func (s *Settings) String() string {
	return fmt.Sprintf("Settings{ SoundAlerts: %t, PushNotifications: %t, Frequency: %s }",
		s.SoundAlerts,
		s.PushNotifications,
		s.Frequency)
} // func (s *Settings) String() string
