// /home/krylon/go/src/github.com/blicero/ariadne/agent/mirror.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 16:55:31 krylon>

package agent

import (
	"log"
	"sync"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
)

// Mirror is the client-local ordered copy of a user's notifications,
// most recent first, plus the derived unread count.
//
// Invariant: after any bulk load, unread equals the number of entries
// whose Read flag is false. The only other operation that touches the
// counter is InsertPushed, which increments it by one for a freshly
// pushed event until the next bulk load recomputes it.
//
// Mirror is the single subscription surface for all views: anyone who
// needs to know about changes registers a callback via Subscribe.
type Mirror struct {
	log     *log.Logger
	lock    sync.RWMutex
	entries []objects.Notification
	ids     map[int64]bool
	unread  int
	tickets uint64
	applied uint64
	subs    map[int64]func()
	subCnt  int64
}

// NewMirror creates a fresh, empty Mirror.
func NewMirror() (*Mirror, error) {
	var (
		err error
		m   = &Mirror{
			entries: make([]objects.Notification, 0, 64),
			ids:     make(map[int64]bool),
			subs:    make(map[int64]func()),
		}
	)

	if m.log, err = common.GetLogger(logdomain.Mirror); err != nil {
		return nil, err
	}

	return m, nil
} // func NewMirror() (*Mirror, error)

// BeginReload hands out a ticket for a reload about to be issued.
// Tickets impose an order on reloads, so a response that arrives after
// a younger reload has already been applied is recognized as stale and
// discarded.
func (m *Mirror) BeginReload() uint64 {
	m.lock.Lock()
	m.tickets++
	var t = m.tickets
	m.lock.Unlock()

	return t
} // func (m *Mirror) BeginReload() uint64

// BulkLoad replaces the Mirror's contents wholesale with the given
// server snapshot and recomputes the unread counter from it. This is
// the only operation that changes the counter authoritatively.
//
// The return value tells the caller whether the snapshot was applied
// or discarded as stale.
func (m *Mirror) BulkLoad(ticket uint64, list []objects.Notification) bool {
	m.lock.Lock()

	if ticket <= m.applied {
		m.lock.Unlock()
		m.log.Printf("[DEBUG] Discarding stale reload #%d (current is #%d)\n",
			ticket,
			m.applied)
		return false
	}

	m.applied = ticket
	m.entries = make([]objects.Notification, len(list))
	copy(m.entries, list)

	m.ids = make(map[int64]bool, len(list))
	m.unread = 0

	for idx := range m.entries {
		m.ids[m.entries[idx].ID] = true
		if !m.entries[idx].Read {
			m.unread++
		}
	}

	m.lock.Unlock()
	m.notifySubscribers()

	return true
} // func (m *Mirror) BulkLoad(ticket uint64, list []objects.Notification) bool

// InsertPushed prepends a freshly pushed event to the Mirror and
// increments the unread counter by one.
//
// If an entry with the same ID is already mirrored - which can happen
// when a push races a reload - the event is dropped; the next reload is
// authoritative either way.
func (m *Mirror) InsertPushed(n *objects.Notification) bool {
	m.lock.Lock()

	if m.ids[n.ID] {
		m.lock.Unlock()
		m.log.Printf("[DEBUG] Notification %d is already mirrored, dropping pushed duplicate\n",
			n.ID)
		return false
	}

	m.entries = append([]objects.Notification{*n}, m.entries...)
	m.ids[n.ID] = true
	m.unread++

	m.lock.Unlock()
	m.notifySubscribers()

	return true
} // func (m *Mirror) InsertPushed(n *objects.Notification) bool

// Clear empties the Mirror, e.g. on logout.
func (m *Mirror) Clear() {
	m.lock.Lock()
	m.entries = m.entries[:0]
	m.ids = make(map[int64]bool)
	m.unread = 0
	m.lock.Unlock()
	m.notifySubscribers()
} // func (m *Mirror) Clear()

// Unread returns the derived unread counter.
func (m *Mirror) Unread() int {
	m.lock.RLock()
	var cnt = m.unread
	m.lock.RUnlock()

	return cnt
} // func (m *Mirror) Unread() int

// Len returns the number of mirrored entries.
func (m *Mirror) Len() int {
	m.lock.RLock()
	var cnt = len(m.entries)
	m.lock.RUnlock()

	return cnt
} // func (m *Mirror) Len() int

// Head returns a copy of the first (i.e. most recent) n entries.
func (m *Mirror) Head(n int) []objects.Notification {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if n > len(m.entries) {
		n = len(m.entries)
	}

	var list = make([]objects.Notification, n)
	copy(list, m.entries[:n])

	return list
} // func (m *Mirror) Head(n int) []objects.Notification

// All returns a copy of all mirrored entries.
func (m *Mirror) All() []objects.Notification {
	m.lock.RLock()
	defer m.lock.RUnlock()

	var list = make([]objects.Notification, len(m.entries))
	copy(list, m.entries)

	return list
} // func (m *Mirror) All() []objects.Notification

// Subscribe registers a callback to be invoked whenever the Mirror's
// contents change. It returns a handle to pass to Unsubscribe.
func (m *Mirror) Subscribe(fn func()) int64 {
	m.lock.Lock()
	m.subCnt++
	var id = m.subCnt
	m.subs[id] = fn
	m.lock.Unlock()

	return id
} // func (m *Mirror) Subscribe(fn func()) int64

// Unsubscribe removes a callback registered via Subscribe.
func (m *Mirror) Unsubscribe(id int64) {
	m.lock.Lock()
	delete(m.subs, id)
	m.lock.Unlock()
} // func (m *Mirror) Unsubscribe(id int64)

func (m *Mirror) notifySubscribers() {
	m.lock.RLock()
	var list = make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		list = append(list, fn)
	}
	m.lock.RUnlock()

	for _, fn := range list {
		fn()
	}
} // func (m *Mirror) notifySubscribers()
