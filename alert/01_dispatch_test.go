// /home/krylon/go/src/github.com/blicero/ariadne/alert/01_dispatch_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-26 20:10:34 krylon>

package alert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blicero/ariadne/alert/permission"
	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/objects/frequency"
)

func TestMain(m *testing.M) {
	var baseDir = filepath.Join(
		os.TempDir(),
		fmt.Sprintf("ariadne_alert_test_%d", time.Now().Unix()))

	if err := common.SetBaseDir(baseDir); err != nil {
		fmt.Printf("Cannot set BaseDir to %s: %s\n",
			baseDir,
			err.Error())
		os.Exit(1)
	}

	var result = m.Run()

	os.RemoveAll(baseDir) // nolint: errcheck
	os.Exit(result)
} // func TestMain(m *testing.M)

type fakeChime struct {
	played int
	err    error
}

func (c *fakeChime) Play() error {
	c.played++
	return c.err
} // func (c *fakeChime) Play() error

type fakePusher struct {
	pushed   int
	probeErr error
}

func (p *fakePusher) Probe() error {
	return p.probeErr
} // func (p *fakePusher) Probe() error

func (p *fakePusher) Push(n *objects.Notification) error {
	p.pushed++
	return nil
} // func (p *fakePusher) Push(n *objects.Notification) error

func mkNotification(sound, push bool) *objects.Notification {
	return &objects.Notification{
		ID:        1,
		Title:     "Test",
		CreatedAt: time.Now(),
		PlaySound: sound,
		SendPush:  push,
	}
} // func mkNotification(sound, push bool) *objects.Notification

func TestDispatchGating(t *testing.T) {
	type testCase struct {
		set          objects.Settings
		sound, push  bool
		expectChime  bool
		expectPushed bool
	}

	var cases = []testCase{
		// Both channels on, event asks for both.
		{
			set:          objects.Settings{SoundAlerts: true, PushNotifications: true, Frequency: frequency.All},
			sound:        true,
			push:         true,
			expectChime:  true,
			expectPushed: true,
		},
		// Event asks for nothing, nothing fires.
		{
			set: objects.Settings{SoundAlerts: true, PushNotifications: true, Frequency: frequency.All},
		},
		// User turned sound off, event asks for it anyway.
		{
			set:          objects.Settings{SoundAlerts: false, PushNotifications: true, Frequency: frequency.All},
			sound:        true,
			push:         true,
			expectPushed: true,
		},
		// User turned push off.
		{
			set:         objects.Settings{SoundAlerts: true, PushNotifications: false, Frequency: frequency.All},
			sound:       true,
			push:        true,
			expectChime: true,
		},
	}

	for idx, c := range cases {
		var (
			err    error
			chime  = new(fakeChime)
			pusher = new(fakePusher)
			d      *Dispatcher
		)

		if d, err = NewDispatcher(chime, pusher); err != nil {
			t.Fatalf("Cannot create Dispatcher: %s",
				err.Error())
		}

		d.RequestPermission()

		d.Dispatch(mkNotification(c.sound, c.push), c.set)

		if c.expectChime && chime.played != 1 {
			t.Errorf("Case %d: chime played %d times, expected 1",
				idx,
				chime.played)
		} else if !c.expectChime && chime.played != 0 {
			t.Errorf("Case %d: chime played %d times, expected 0",
				idx,
				chime.played)
		}

		if c.expectPushed && pusher.pushed != 1 {
			t.Errorf("Case %d: pusher fired %d times, expected 1",
				idx,
				pusher.pushed)
		} else if !c.expectPushed && pusher.pushed != 0 {
			t.Errorf("Case %d: pusher fired %d times, expected 0",
				idx,
				pusher.pushed)
		}
	}
} // func TestDispatchGating(t *testing.T)

func TestDispatchChimeFailure(t *testing.T) {
	var (
		err    error
		chime  = &fakeChime{err: ErrAudioUnavailable}
		pusher = new(fakePusher)
		d      *Dispatcher
		set    = objects.Settings{
			SoundAlerts:       true,
			PushNotifications: true,
			Frequency:         frequency.All,
		}
	)

	if d, err = NewDispatcher(chime, pusher); err != nil {
		t.Fatalf("Cannot create Dispatcher: %s",
			err.Error())
	}

	d.RequestPermission()

	// A broken chime must not keep the push from going out.
	d.Dispatch(mkNotification(true, true), set)

	if pusher.pushed != 1 {
		t.Errorf("Pusher fired %d times, expected 1",
			pusher.pushed)
	}
} // func TestDispatchChimeFailure(t *testing.T)

func TestPermissionDenied(t *testing.T) {
	var (
		err    error
		chime  = new(fakeChime)
		pusher = &fakePusher{probeErr: errors.New("no notification daemon")}
		d      *Dispatcher
		set    = objects.Settings{
			SoundAlerts:       true,
			PushNotifications: true,
			Frequency:         frequency.All,
		}
	)

	if d, err = NewDispatcher(chime, pusher); err != nil {
		t.Fatalf("Cannot create Dispatcher: %s",
			err.Error())
	}

	if s := d.RequestPermission(); s != permission.Denied {
		t.Fatalf("RequestPermission returned %s, expected %s",
			s,
			permission.Denied)
	}

	// Denial is sticky, even if the probe would succeed now.
	pusher.probeErr = nil

	if s := d.RequestPermission(); s != permission.Denied {
		t.Errorf("RequestPermission returned %s on second call, expected %s",
			s,
			permission.Denied)
	}

	// No permission, no push. The chime is unaffected.
	d.Dispatch(mkNotification(true, true), set)

	if pusher.pushed != 0 {
		t.Errorf("Pusher fired %d times without permission",
			pusher.pushed)
	} else if chime.played != 1 {
		t.Errorf("Chime played %d times, expected 1",
			chime.played)
	}
} // func TestPermissionDenied(t *testing.T)

func TestPermissionGranted(t *testing.T) {
	var (
		err error
		d   *Dispatcher
	)

	if d, err = NewDispatcher(new(fakeChime), new(fakePusher)); err != nil {
		t.Fatalf("Cannot create Dispatcher: %s",
			err.Error())
	}

	if d.Permission() != permission.Unknown {
		t.Fatalf("Fresh Dispatcher has permission %s, expected %s",
			d.Permission(),
			permission.Unknown)
	}

	if s := d.RequestPermission(); s != permission.Granted {
		t.Errorf("RequestPermission returned %s, expected %s",
			s,
			permission.Granted)
	}
} // func TestPermissionGranted(t *testing.T)
