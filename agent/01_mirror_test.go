// /home/krylon/go/src/github.com/blicero/ariadne/agent/01_mirror_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 16. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-25 22:41:37 krylon>

package agent

import (
	"fmt"
	"testing"
	"time"

	"github.com/blicero/ariadne/objects"
)

var tmirror *Mirror

func mkList(cnt, unread int) []objects.Notification {
	var list = make([]objects.Notification, cnt)

	for i := 0; i < cnt; i++ {
		list[i] = objects.Notification{
			ID:        int64(cnt - i),
			Title:     fmt.Sprintf("Notification #%d", cnt-i),
			Read:      i >= unread,
			CreatedAt: time.Now().Add(time.Duration(-i) * time.Minute),
		}
	}

	return list
} // func mkList(cnt, unread int) []objects.Notification

func TestMirrorCreate(t *testing.T) {
	var err error

	if tmirror, err = NewMirror(); err != nil {
		tmirror = nil
		t.Fatalf("Cannot create Mirror: %s",
			err.Error())
	}
} // func TestMirrorCreate(t *testing.T)

func TestMirrorBulkLoad(t *testing.T) {
	if tmirror == nil {
		t.SkipNow()
	}

	var (
		list   = mkList(10, 3)
		ticket = tmirror.BeginReload()
	)

	if !tmirror.BulkLoad(ticket, list) {
		t.Fatal("BulkLoad rejected a fresh snapshot")
	} else if tmirror.Len() != 10 {
		t.Errorf("Mirror has %d entries, expected 10",
			tmirror.Len())
	} else if tmirror.Unread() != 3 {
		t.Errorf("Unread counter is %d, expected 3",
			tmirror.Unread())
	}

	var head = tmirror.Head(1)
	if len(head) != 1 || head[0].ID != 10 {
		t.Errorf("Most recent entry should be #10, got %v",
			head)
	}
} // func TestMirrorBulkLoad(t *testing.T)

func TestMirrorStaleReload(t *testing.T) {
	if tmirror == nil {
		t.SkipNow()
	}

	var (
		older   = tmirror.BeginReload()
		younger = tmirror.BeginReload()
	)

	if !tmirror.BulkLoad(younger, mkList(5, 1)) {
		t.Fatal("BulkLoad rejected the younger snapshot")
	}

	// The response to the older reload arrives late. It must be
	// discarded, not clobber the younger data.
	if tmirror.BulkLoad(older, mkList(20, 20)) {
		t.Error("BulkLoad applied a stale snapshot")
	}

	if tmirror.Len() != 5 {
		t.Errorf("Mirror has %d entries, expected 5",
			tmirror.Len())
	} else if tmirror.Unread() != 1 {
		t.Errorf("Unread counter is %d, expected 1",
			tmirror.Unread())
	}
} // func TestMirrorStaleReload(t *testing.T)

func TestMirrorInsertPushed(t *testing.T) {
	if tmirror == nil {
		t.SkipNow()
	}

	var (
		before = tmirror.Unread()
		n      = objects.Notification{
			ID:        100,
			Title:     "Fresh off the wire",
			CreatedAt: time.Now(),
		}
	)

	if !tmirror.InsertPushed(&n) {
		t.Fatal("InsertPushed rejected a new Notification")
	} else if tmirror.Unread() != before+1 {
		t.Errorf("Unread counter is %d, expected %d",
			tmirror.Unread(),
			before+1)
	}

	var head = tmirror.Head(1)
	if len(head) != 1 || head[0].ID != 100 {
		t.Errorf("Pushed entry should be at the head, got %v",
			head)
	}

	// A duplicate push must be dropped and leave the counter alone.
	if tmirror.InsertPushed(&n) {
		t.Error("InsertPushed accepted a duplicate")
	} else if tmirror.Unread() != before+1 {
		t.Errorf("Unread counter is %d after duplicate, expected %d",
			tmirror.Unread(),
			before+1)
	}
} // func TestMirrorInsertPushed(t *testing.T)

func TestMirrorSubscribe(t *testing.T) {
	if tmirror == nil {
		t.SkipNow()
	}

	var fired int

	var id = tmirror.Subscribe(func() { fired++ })

	var ticket = tmirror.BeginReload()
	tmirror.BulkLoad(ticket, mkList(3, 0))

	if fired != 1 {
		t.Errorf("Subscriber fired %d times after BulkLoad, expected 1",
			fired)
	}

	tmirror.InsertPushed(&objects.Notification{
		ID:        200,
		Title:     "Ping",
		CreatedAt: time.Now(),
	})

	if fired != 2 {
		t.Errorf("Subscriber fired %d times after InsertPushed, expected 2",
			fired)
	}

	tmirror.Unsubscribe(id)
	tmirror.Clear()

	if fired != 2 {
		t.Errorf("Subscriber fired %d times after Unsubscribe, expected 2",
			fired)
	}
} // func TestMirrorSubscribe(t *testing.T)

func TestMirrorClear(t *testing.T) {
	if tmirror == nil {
		t.SkipNow()
	}

	tmirror.Clear()

	if tmirror.Len() != 0 {
		t.Errorf("Mirror has %d entries after Clear",
			tmirror.Len())
	} else if tmirror.Unread() != 0 {
		t.Errorf("Unread counter is %d after Clear",
			tmirror.Unread())
	}
} // func TestMirrorClear(t *testing.T)
