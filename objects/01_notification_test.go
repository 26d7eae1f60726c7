// /home/krylon/go/src/github.com/blicero/ariadne/objects/01_notification_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-20 21:58:13 krylon>

package objects

import (
	"testing"
	"time"

	"github.com/pquerna/ffjson/ffjson"
)

func TestParseEvent(t *testing.T) {
	type testCase struct {
		n           Notification
		expectError bool
	}

	var cases = []testCase{
		{
			n: Notification{
				ID:        1,
				Title:     "Deploy finished",
				Body:      "Build 1442 is live",
				CreatedAt: time.Now(),
			},
		},
		{
			n: Notification{
				Title:     "No ID",
				CreatedAt: time.Now(),
			},
			expectError: true,
		},
		{
			n: Notification{
				ID:        3,
				CreatedAt: time.Now(),
			},
			expectError: true,
		},
		{
			n: Notification{
				ID:    4,
				Title: "No timestamp",
			},
			expectError: true,
		},
	}

	for _, c := range cases {
		var (
			err error
			buf []byte
			n   *Notification
		)

		if buf, err = ffjson.Marshal(&c.n); err != nil {
			t.Fatalf("Cannot serialize Notification %q: %s",
				c.n.Title,
				err.Error())
		}

		n, err = ParseEvent(buf)

		if c.expectError {
			if err == nil {
				t.Errorf("Malformed event %q was not rejected",
					c.n.Title)
			}
		} else if err != nil {
			t.Errorf("Valid event %q was rejected: %s",
				c.n.Title,
				err.Error())
		} else if n.ID != c.n.ID || n.Title != c.n.Title {
			t.Errorf("Parsed event does not match input: %d/%q vs %d/%q",
				n.ID,
				n.Title,
				c.n.ID,
				c.n.Title)
		}
	}
} // func TestParseEvent(t *testing.T)

func TestParseEventGarbage(t *testing.T) {
	var garbage = []string{
		"",
		"Wer das liest, ist doof.",
		"{",
		`{"ID": "not a number"}`,
	}

	for _, g := range garbage {
		if n, err := ParseEvent([]byte(g)); err == nil {
			t.Errorf("Garbage payload %q was accepted as %#v",
				g,
				n)
		}
	}
} // func TestParseEventGarbage(t *testing.T)
