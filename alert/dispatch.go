// /home/krylon/go/src/github.com/blicero/ariadne/alert/dispatch.go
// -*- mode: go; coding: utf-8; -*-
// Created on 09. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-24 19:02:37 krylon>

// Package alert turns admitted notification events into user-visible
// alerts, a short chime and/or a system notification, subject to the
// user's settings and the desktop's consent.
package alert

import (
	"log"
	"sync"

	"github.com/blicero/ariadne/alert/permission"
	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
)

// Dispatcher fires alerts for inbound events.
//
// Alerting is best-effort across the board: a failing chime or a
// refused system notification is logged and swallowed, it must never
// disturb event processing itself.
type Dispatcher struct {
	log   *log.Logger
	chime Chime
	push  Pusher
	lock  sync.RWMutex
	state permission.State
}

// NewDispatcher creates a Dispatcher using the given Chime and Pusher.
// Either may be nil, in which case the respective alert channel is
// simply off.
func NewDispatcher(chime Chime, push Pusher) (*Dispatcher, error) {
	var (
		err error
		d   = &Dispatcher{
			chime: chime,
			push:  push,
		}
	)

	if d.log, err = common.GetLogger(logdomain.Alert); err != nil {
		return nil, err
	}

	return d, nil
} // func NewDispatcher(chime Chime, push Pusher) (*Dispatcher, error)

// Permission returns the current consent state for system
// notifications.
func (d *Dispatcher) Permission() permission.State {
	d.lock.RLock()
	var s = d.state
	d.lock.RUnlock()

	return s
} // func (d *Dispatcher) Permission() permission.State

// RequestPermission runs the consent probe, once. A denial is sticky,
// we do not nag the user again during this run. Called at login, never
// from the event path.
func (d *Dispatcher) RequestPermission() permission.State {
	d.lock.Lock()

	if d.state != permission.Unknown {
		var s = d.state
		d.lock.Unlock()
		return s
	}

	d.state = permission.Requested
	d.lock.Unlock()

	var next = permission.Denied

	if d.push != nil && d.push.Probe() == nil {
		next = permission.Granted
	}

	d.lock.Lock()
	d.state = next
	d.lock.Unlock()

	d.log.Printf("[INFO] Permission for system notifications: %s\n",
		next)

	return next
} // func (d *Dispatcher) RequestPermission() permission.State

// Dispatch fires the alerts an admitted event calls for. Which
// channels fire is the conjunction of the user's settings and the
// event's own flags; the push channel additionally requires granted
// permission.
func (d *Dispatcher) Dispatch(n *objects.Notification, set objects.Settings) {
	if set.SoundAlerts && n.PlaySound && d.chime != nil {
		if err := d.chime.Play(); err != nil {
			d.log.Printf("[ERROR] Cannot play alert chime for event %d: %s\n",
				n.ID,
				err.Error())
		}
	}

	if set.PushNotifications && n.SendPush && d.push != nil {
		if d.Permission() != permission.Granted {
			d.log.Printf("[DEBUG] Suppressing system notification for event %d, permission is %s\n",
				n.ID,
				d.Permission())
			return
		}

		if err := d.push.Push(n); err != nil {
			d.log.Printf("[ERROR] Cannot post system notification for event %d: %s\n",
				n.ID,
				err.Error())
		}
	}
} // func (d *Dispatcher) Dispatch(n *objects.Notification, set objects.Settings)
