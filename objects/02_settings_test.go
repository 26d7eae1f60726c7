// /home/krylon/go/src/github.com/blicero/ariadne/objects/02_settings_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-20 22:04:48 krylon>

package objects

import (
	"testing"
	"time"

	"github.com/blicero/ariadne/objects/frequency"
)

func TestAdmit(t *testing.T) {
	var (
		plain = Notification{
			ID:        1,
			Title:     "FYI",
			CreatedAt: time.Now(),
		}
		loud = Notification{
			ID:        2,
			Title:     "Heads up",
			CreatedAt: time.Now(),
			PlaySound: true,
		}
		pushy = Notification{
			ID:        3,
			Title:     "Look at me",
			CreatedAt: time.Now(),
			SendPush:  true,
		}
	)

	type testCase struct {
		freq     frequency.Frequency
		n        *Notification
		expected bool
	}

	var cases = []testCase{
		{frequency.All, &plain, true},
		{frequency.All, &loud, true},
		{frequency.All, &pushy, true},
		{frequency.Important, &plain, false},
		{frequency.Important, &loud, true},
		{frequency.Important, &pushy, true},
		{frequency.Never, &plain, false},
		{frequency.Never, &loud, false},
		{frequency.Never, &pushy, false},
	}

	for _, c := range cases {
		var s = Settings{
			SoundAlerts:       true,
			PushNotifications: true,
			Frequency:         c.freq,
		}

		if got := s.Admit(c.n); got != c.expected {
			t.Errorf("Admit(%q) with Frequency %s returned %t, expected %t",
				c.n.Title,
				c.freq,
				got,
				c.expected)
		}
	}
} // func TestAdmit(t *testing.T)
