// /home/krylon/go/src/github.com/blicero/ariadne/server/events.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-22 19:27:03 krylon>

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/database"
	"github.com/blicero/ariadne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	subQueueDepth     = 16
	keepaliveInterval = time.Second * 30
)

// subscriber is one agent attached to the event stream.
// Until the agent has joined with a valid session token, user is 0 and
// no events are delivered to it.
type subscriber struct {
	id    string
	user  atomic.Int64
	queue chan []byte
}

func (d *Daemon) addSubscriber() *subscriber {
	var sub = &subscriber{
		id:    common.GetUUID(),
		queue: make(chan []byte, subQueueDepth),
	}

	d.subLock.Lock()
	d.subs[sub.id] = sub
	d.subLock.Unlock()

	return sub
} // func (d *Daemon) addSubscriber() *subscriber

func (d *Daemon) removeSubscriber(sub *subscriber) {
	d.subLock.Lock()
	delete(d.subs, sub.id)
	d.subLock.Unlock()
} // func (d *Daemon) removeSubscriber(sub *subscriber)

func (d *Daemon) dropSubscribers() {
	d.subLock.Lock()
	for id, sub := range d.subs {
		close(sub.queue)
		delete(d.subs, id)
	}
	d.subLock.Unlock()
} // func (d *Daemon) dropSubscribers()

// publish delivers a freshly stored Notification to all joined
// subscribers of the given user. Slow subscribers have their event
// dropped rather than blocking the caller.
func (d *Daemon) publish(user int64, n *objects.Notification) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(n); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Notification %d: %s\n",
			n.ID,
			err.Error())
		return
	}

	d.subLock.RLock()
	defer d.subLock.RUnlock()

	for _, sub := range d.subs {
		if sub.user.Load() != user {
			continue
		}

		select {
		case sub.queue <- buf:
			eventsPushed.Inc()
		default:
			d.log.Printf("[WARN] Queue of subscriber %s is full, dropping event %d\n",
				sub.id,
				n.ID)
		}
	}
} // func (d *Daemon) publish(user int64, n *objects.Notification)

func (d *Daemon) handleEvents(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		flusher http.Flusher
		ok      bool
	)

	if flusher, ok = w.(http.Flusher); !ok {
		d.log.Println("[CANTHAPPEN] ResponseWriter does not support flushing")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var sub = d.addSubscriber()
	defer d.removeSubscriber(sub)

	// The hello event tells the agent its stream ID, which it needs
	// to join.
	fmt.Fprintf(w, "event: hello\ndata: %s\n\n", sub.id)
	flusher.Flush()

	var tick = time.NewTicker(keepaliveInterval)
	defer tick.Stop()

	for d.IsAlive() {
		select {
		case <-r.Context().Done():
			d.log.Printf("[DEBUG] Subscriber %s disconnected\n",
				sub.id)
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case buf, ok := <-sub.queue:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", buf)
			flusher.Flush()
		}
	}
} // func (d *Daemon) handleEvents(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleEventsJoin(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err    error
		db     *database.Database
		user   int64
		msg    string
		stream string
		sub    *subscriber
		found  bool
		res    = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		res.Message = err.Error()
		goto SEND_RESPONSE
	}

	stream = r.FormValue("stream")

	db = d.pool.Get()
	defer d.pool.Put(db)

	if user, err = db.SessionGetUser(r.FormValue("token")); err != nil {
		msg = fmt.Sprintf("Cannot resolve session token: %s",
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if user == 0 {
		msg = "Invalid session token"
		d.log.Printf("[INFO] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	d.subLock.RLock()
	sub, found = d.subs[stream]
	d.subLock.RUnlock()

	if !found {
		msg = fmt.Sprintf("Unknown stream %q", stream)
		d.log.Printf("[INFO] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	sub.user.Store(user)
	d.log.Printf("[DEBUG] Stream %s joined by user %d\n",
		stream,
		user)

	res.Message = "OK"
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleEventsJoin(w http.ResponseWriter, r *http.Request)

// handleEventsPoll is the fallback transport for agents that cannot
// keep an event stream open. It returns all of the user's
// Notifications created after the given point in time.
func (d *Daemon) handleEventsPoll(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err   error
		db    *database.Database
		user  int64
		stamp int64
		list  []objects.Notification
		buf   []byte
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	if stamp, err = strconv.ParseInt(r.FormValue("since"), 10, 64); err != nil {
		stamp = time.Now().Unix()
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if list, err = db.NotificationGetSince(user, time.Unix(stamp, 0)); err != nil {
		d.log.Printf("[ERROR] Cannot load Notifications: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if buf, err = ffjson.Marshal(list); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Notification list: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleEventsPoll(w http.ResponseWriter, r *http.Request)
