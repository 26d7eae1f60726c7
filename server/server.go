// /home/krylon/go/src/github.com/blicero/ariadne/server/server.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-22 17:38:21 krylon>

// Package server implements the authoritative side of the application:
// it owns the notification store and feeds connected agents over a
// server-sent event stream.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/database"
	"github.com/blicero/ariadne/logdomain"
	"github.com/gorilla/mux"
	"github.com/grandcat/zeroconf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const poolSize = 4

var (
	notificationsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ariadne_server_notifications_stored_total",
		Help: "Number of notifications stored by the server.",
	})
	eventsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ariadne_server_events_pushed_total",
		Help: "Number of events delivered to subscribed agents.",
	})
)

// Daemon is the centerpiece of the server, coordinating between the
// database, the REST surface, and the event stream subscribers.
type Daemon struct {
	log        *log.Logger
	pool       *database.Pool
	router     *mux.Router
	web        http.Server
	listenAddr string
	hostname   string
	dnssd      *zeroconf.Server
	lock       sync.RWMutex
	active     bool
	subLock    sync.RWMutex
	subs       map[string]*subscriber
	idLock     sync.Mutex
	idCnt      int64
}

// Summon summons a Daemon and returns it. No sacrifice or idolatry is required.
func Summon(addr string) (*Daemon, error) {
	var (
		err error
		d   = &Daemon{
			listenAddr: addr,
			active:     true,
			router:     mux.NewRouter(),
			subs:       make(map[string]*subscriber),
		}
	)

	if d.log, err = common.GetLogger(logdomain.Server); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	} else if d.pool, err = database.NewPool(poolSize); err != nil {
		d.log.Printf("[ERROR] Cannot initialize database pool: %s\n",
			err.Error())
		return nil, err
	} else if d.hostname, err = os.Hostname(); err != nil {
		d.log.Printf("[ERROR] Cannot determine hostname: %s\n",
			err.Error())
		return nil, err
	}

	d.web.Addr = addr
	d.web.ErrorLog = d.log
	d.web.Handler = d.router

	if err = d.initWebHandlers(); err != nil {
		d.log.Printf("[ERROR] Failed to initialize web server: %s\n",
			err.Error())
		return nil, err
	}

	if err = d.initDNSSd(); err != nil {
		// Not being discoverable is not fatal, agents can still
		// connect to an explicit address.
		d.log.Printf("[ERROR] Failed to register with DNS-SD: %s\n",
			err.Error())
	}

	go d.serveHTTP()

	return d, nil
} // func Summon(addr string) (*Daemon, error)

// IsAlive returns true if the Daemon's active flag is set.
func (d *Daemon) IsAlive() bool {
	d.lock.RLock()
	var alive = d.active
	d.lock.RUnlock()

	return alive
} // func (d *Daemon) IsAlive() bool

// Banish clears the Daemon's active flag and shuts down the web server,
// telling components to shut down.
func (d *Daemon) Banish() error {
	var (
		err         error
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	)
	defer cancel()

	d.lock.Lock()
	d.active = false
	d.lock.Unlock()

	if d.dnssd != nil {
		d.dnssd.Shutdown()
	}

	d.dropSubscribers()

	if err = d.web.Shutdown(ctx); err != nil {
		d.log.Printf("[ERROR] Failed to shutdown web server: %s\n",
			err.Error())
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		d.log.Printf("[ERROR] Failed to gracefully shut down web server: %s\n",
			ctx.Err().Error())
		d.web.Close() // nolint: errcheck
	}

	return err
} // func (d *Daemon) Banish() error

func (d *Daemon) serveHTTP() {
	var err error

	defer d.log.Println("[INFO] Web server is shutting down")

	d.log.Printf("[INFO] Server is going online at %s\n", d.web.Addr)

	d.router.Handle("/metrics", promhttp.Handler())

	if err = d.web.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			d.log.Printf("[ERROR] ListenAndServe returned an error: %s\n",
				err.Error())
		} else {
			d.log.Println("[INFO] HTTP Server has shut down.")
		}
	}
} // func (d *Daemon) serveHTTP()

// RegisterSession makes a session token known to the server, scoping it
// to the given user. Authentication proper is handled by the web
// application, all we care about is the token-to-user mapping.
func (d *Daemon) RegisterSession(token string, user int64) error {
	var (
		err error
		db  *database.Database
	)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.SessionAdd(token, user); err != nil {
		d.log.Printf("[ERROR] Cannot register session for user %d: %s\n",
			user,
			err.Error())
		return err
	}

	return nil
} // func (d *Daemon) RegisterSession(token string, user int64) error

func (d *Daemon) getID() int64 {
	d.idLock.Lock()
	d.idCnt++
	var id = d.idCnt
	d.idLock.Unlock()
	return id
} // func (d *Daemon) getID() int64
