// /home/krylon/go/src/github.com/blicero/ariadne/agent/agent.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-25 21:18:46 krylon>

// Package agent implements the client side of the application: it
// keeps a local mirror of the user's notifications in sync with the
// server, listens for pushed events, and hands admitted events to the
// alert dispatcher.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/blicero/ariadne/alert"
	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ariadne_agent_events_received_total",
		Help: "Number of pushed events the agent has received.",
	})
	eventsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ariadne_agent_events_admitted_total",
		Help: "Number of pushed events that passed the settings gate.",
	})
)

// Agent is the centerpiece of the client, coordinating between the
// event transport, the local mirror, the settings gate, and the alert
// dispatcher.
//
// Its session lifecycle is explicit: Login opens the event transport
// and primes mirror and settings, Logout tears all of that down.
type Agent struct {
	log      *log.Logger
	srv      string
	lock     sync.RWMutex
	active   bool
	mirror   *Mirror
	settings *SettingsStore
	dispatch *alert.Dispatcher
	conn     *Connection
	rec      *Reconciler
	ctx      context.Context
	cancel   context.CancelFunc
}

// Summon summons an Agent and returns it. No sacrifice or idolatry is required.
func Summon(srv string) (*Agent, error) {
	var (
		err error
		a   = &Agent{
			srv:      srv,
			active:   true,
			settings: new(SettingsStore),
		}
	)

	if a.log, err = common.GetLogger(logdomain.Agent); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	} else if a.mirror, err = NewMirror(); err != nil {
		a.log.Printf("[ERROR] Cannot initialize Mirror: %s\n",
			err.Error())
		return nil, err
	}

	var pusher alert.Pusher

	if pusher, err = alert.NewDBusPusher(); err != nil {
		// No session bus, no system notifications. The chime still
		// works, and so does everything else.
		a.log.Printf("[WARN] Cannot connect to session bus: %s\n",
			err.Error())
		pusher = nil
	}

	if a.dispatch, err = alert.NewDispatcher(alert.NewTwoTone(), pusher); err != nil {
		a.log.Printf("[ERROR] Cannot initialize alert Dispatcher: %s\n",
			err.Error())
		return nil, err
	}

	return a, nil
} // func Summon(srv string) (*Agent, error)

// IsAlive returns true if the Agent's active flag is set.
func (a *Agent) IsAlive() bool {
	a.lock.RLock()
	var alive = a.active
	a.lock.RUnlock()

	return alive
} // func (a *Agent) IsAlive() bool

// Mirror returns the Agent's notification Mirror. Views subscribe
// there.
func (a *Agent) Mirror() *Mirror {
	return a.mirror
} // func (a *Agent) Mirror() *Mirror

// Reconciler returns the Reconciler of the current session, or nil if
// no session is active.
func (a *Agent) Reconciler() *Reconciler {
	a.lock.RLock()
	var rec = a.rec
	a.lock.RUnlock()

	return rec
} // func (a *Agent) Reconciler() *Reconciler

// Settings returns the settings of the current session.
func (a *Agent) Settings() objects.Settings {
	return a.settings.Current()
} // func (a *Agent) Settings() objects.Settings

// Login opens a session: it starts the event transport, asks for
// notification permission, and primes settings and mirror from the
// server.
func (a *Agent) Login(token string) error {
	var err error

	a.lock.Lock()

	if a.conn != nil {
		a.lock.Unlock()
		return errors.New("A session is already active")
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())

	if a.rec, err = NewReconciler(a.srv, token, a.mirror); err != nil {
		a.lock.Unlock()
		return err
	} else if a.conn, err = NewConnection(a.srv, token); err != nil {
		a.rec = nil
		a.lock.Unlock()
		return err
	}

	a.conn.SetHandler(a.handleEvent)

	if err = a.conn.Open(); err != nil {
		a.conn = nil
		a.rec = nil
		a.lock.Unlock()
		return err
	}

	var (
		ctx = a.ctx
		rec = a.rec
	)
	a.lock.Unlock()

	// Ask once, at login. Never from the event path.
	a.dispatch.RequestPermission()

	var set *objects.Settings

	if set, err = rec.FetchSettings(ctx); err != nil {
		a.log.Printf("[ERROR] Cannot fetch settings: %s\n",
			err.Error())
	} else {
		a.settings.Load(set)
	}

	if err = rec.Reload(ctx); err != nil {
		a.log.Printf("[ERROR] Initial reload failed: %s\n",
			err.Error())
	}

	return nil
} // func (a *Agent) Login(token string) error

// Logout tears the session down: transport, settings, and mirror are
// all cleared.
func (a *Agent) Logout() {
	a.lock.Lock()

	if a.conn == nil {
		a.lock.Unlock()
		return
	}

	a.conn.Close()
	a.cancel()
	a.conn = nil
	a.rec = nil
	a.lock.Unlock()

	a.settings.Clear()
	a.mirror.Clear()

	a.log.Println("[INFO] Session closed")
} // func (a *Agent) Logout()

// Banish clears the Agent's active flag and closes any active session.
func (a *Agent) Banish() {
	a.lock.Lock()
	a.active = false
	a.lock.Unlock()

	a.Logout()
} // func (a *Agent) Banish()

// UpdateSettings stores new settings on the server and, on success,
// makes them effective locally.
func (a *Agent) UpdateSettings(ctx context.Context, set *objects.Settings) error {
	var (
		err error
		rec = a.Reconciler()
	)

	if rec == nil {
		return errors.New("No session is active")
	}

	if err = rec.UpdateSettings(ctx, set); err != nil {
		return err
	}

	a.settings.Load(set)

	return nil
} // func (a *Agent) UpdateSettings(ctx context.Context, set *objects.Settings) error

// handleEvent is the single inbound handler for pushed events: gate,
// mirror, alert, in that order.
func (a *Agent) handleEvent(n *objects.Notification) {
	eventsReceived.Inc()

	if !a.settings.Admit(n) {
		a.log.Printf("[DEBUG] Event %d was not admitted by settings (%s)\n",
			n.ID,
			a.settings.Current().String())
		return
	}

	eventsAdmitted.Inc()

	if !a.mirror.InsertPushed(n) {
		// Already mirrored means already alerted.
		return
	}

	a.dispatch.Dispatch(n, a.settings.Current())
} // func (a *Agent) handleEvent(n *objects.Notification)
