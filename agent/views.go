// /home/krylon/go/src/github.com/blicero/ariadne/agent/views.go
// -*- mode: go; coding: utf-8; -*-
// Created on 01. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 20:12:33 krylon>

package agent

import (
	"context"
	"log"
	"sync"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
)

// recentViewSize is the window the recent view shows, the newest few
// entries plus the unread badge.
const recentViewSize = 10

// RecentView is the adapter behind the dropdown-style quick view: the
// newest few notifications plus the unread count, straight from the
// Mirror. It holds no data of its own, so it can never disagree with
// the badge.
type RecentView struct {
	mirror *Mirror
	subID  int64
}

// NewRecentView attaches a RecentView to the given Mirror. The refresh
// callback fires whenever the Mirror changes, it is meant for a UI
// layer to schedule a redraw.
func NewRecentView(m *Mirror, refresh func()) *RecentView {
	var v = &RecentView{mirror: m}

	if refresh != nil {
		v.subID = m.Subscribe(refresh)
	}

	return v
} // func NewRecentView(m *Mirror, refresh func()) *RecentView

// Entries returns the window of most recent notifications.
func (v *RecentView) Entries() []objects.Notification {
	return v.mirror.Head(recentViewSize)
} // func (v *RecentView) Entries() []objects.Notification

// Unread returns the unread badge count.
func (v *RecentView) Unread() int {
	return v.mirror.Unread()
} // func (v *RecentView) Unread() int

// Close detaches the view from the Mirror.
func (v *RecentView) Close() {
	if v.subID != 0 {
		v.mirror.Unsubscribe(v.subID)
		v.subID = 0
	}
} // func (v *RecentView) Close()

// ListView is the adapter behind the full, paginated notification
// list, optionally filtered by read state. Pages are fetched from the
// server on demand, but the view still subscribes to the Mirror so a
// pushed event or a reload makes it refetch its current page.
type ListView struct {
	log    *log.Logger
	rec    *Reconciler
	mirror *Mirror
	subID  int64

	lock    sync.RWMutex
	page    int
	limit   int
	read    *bool
	entries []objects.Notification
	tickets uint64
	applied uint64
}

// NewListView creates a ListView on top of the given Reconciler and
// Mirror. The refresh callback fires after each completed page fetch.
func NewListView(rec *Reconciler, m *Mirror, refresh func()) (*ListView, error) {
	var (
		err error
		v   = &ListView{
			rec:    rec,
			mirror: m,
			page:   1,
			limit:  25,
		}
	)

	if v.log, err = common.GetLogger(logdomain.Agent); err != nil {
		return nil, err
	}

	v.subID = m.Subscribe(func() {
		go func() {
			if rerr := v.Refresh(context.Background()); rerr != nil {
				v.log.Printf("[ERROR] Cannot refresh list view: %s\n",
					rerr.Error())
			}
			if refresh != nil {
				refresh()
			}
		}()
	})

	return v, nil
} // func NewListView(rec *Reconciler, m *Mirror, refresh func()) (*ListView, error)

// SetPage switches the view to the given page and refetches.
func (v *ListView) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	v.lock.Lock()
	v.page = page
	v.lock.Unlock()

	return v.Refresh(ctx)
} // func (v *ListView) SetPage(ctx context.Context, page int) error

// SetFilter switches the read-state filter (nil means no filter) and
// refetches from page one.
func (v *ListView) SetFilter(ctx context.Context, read *bool) error {
	v.lock.Lock()
	v.read = read
	v.page = 1
	v.lock.Unlock()

	return v.Refresh(ctx)
} // func (v *ListView) SetFilter(ctx context.Context, read *bool) error

// Refresh refetches the current page. Like the Mirror's bulk load, it
// draws a ticket per fetch and discards responses that have been
// overtaken by a younger one.
func (v *ListView) Refresh(ctx context.Context) error {
	v.lock.Lock()
	v.tickets++
	var (
		ticket = v.tickets
		page   = v.page
		limit  = v.limit
		read   = v.read
	)
	v.lock.Unlock()

	var (
		err  error
		list []objects.Notification
	)

	if list, err = v.rec.FetchPage(ctx, page, limit, read); err != nil {
		return err
	}

	v.lock.Lock()
	defer v.lock.Unlock()

	if ticket <= v.applied {
		v.log.Printf("[DEBUG] Discarding stale page fetch #%d (current is #%d)\n",
			ticket,
			v.applied)
		return nil
	}

	v.applied = ticket
	v.entries = list

	return nil
} // func (v *ListView) Refresh(ctx context.Context) error

// Entries returns a copy of the currently displayed page.
func (v *ListView) Entries() []objects.Notification {
	v.lock.RLock()
	defer v.lock.RUnlock()

	var list = make([]objects.Notification, len(v.entries))
	copy(list, v.entries)

	return list
} // func (v *ListView) Entries() []objects.Notification

// Page returns the current page number.
func (v *ListView) Page() int {
	v.lock.RLock()
	var p = v.page
	v.lock.RUnlock()

	return p
} // func (v *ListView) Page() int

// Close detaches the view from the Mirror.
func (v *ListView) Close() {
	if v.subID != 0 {
		v.mirror.Unsubscribe(v.subID)
		v.subID = 0
	}
} // func (v *ListView) Close()
