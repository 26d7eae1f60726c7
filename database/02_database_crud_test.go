// /home/krylon/go/src/github.com/blicero/ariadne/database/02_database_crud_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 07. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-15 19:10:44 krylon>

package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/objects/frequency"
)

const (
	itemCnt  = 32
	testUser = 23
)

var items []*objects.Notification

func init() {
	items = make([]*objects.Notification, itemCnt)

	var now = time.Now()

	for i := range items {
		var n = &objects.Notification{
			Title: fmt.Sprintf("TEST #%03d", i),
			Body: fmt.Sprintf("This is just another test, the %dth one",
				i+1),
			CreatedAt: now.Add(time.Second * time.Duration(i-itemCnt)),
			TaskID:    int64(i + 1),
			PlaySound: i%2 == 0,
			UUID:      common.GetUUID(),
		}

		items[i] = n
	}
}

func TestNotificationAdd(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	for _, n := range items {
		var err error

		if err = db.NotificationAdd(testUser, n); err != nil {
			t.Fatalf("Cannot add Notification %s: %s",
				n.Title,
				err.Error())
		} else if n.ID == 0 {
			t.Errorf("ID of Notification %q is 0", n.Title)
		}
	}
} // func TestNotificationAdd(t *testing.T)

func TestNotificationGetRecent(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err  error
		list []objects.Notification
	)

	if list, err = db.NotificationGetRecent(testUser, itemCnt*2); err != nil {
		t.Fatalf("Cannot fetch recent Notifications: %s",
			err.Error())
	} else if len(list) != len(items) {
		t.Fatalf("Unexpected number of Notifications: %d (expected %d)",
			len(list),
			len(items))
	}

	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Errorf("Notification %d (%q) is newer than its predecessor",
				list[i].ID,
				list[i].Title)
		}
	}

	// A different user must not see these entries.
	if list, err = db.NotificationGetRecent(testUser+1, itemCnt); err != nil {
		t.Fatalf("Cannot fetch recent Notifications: %s",
			err.Error())
	} else if len(list) != 0 {
		t.Errorf("User %d should have no Notifications, but has %d",
			testUser+1,
			len(list))
	}
} // func TestNotificationGetRecent(t *testing.T)

func TestNotificationGetPage(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err      error
		list     []objects.Notification
		pageSize = itemCnt / 4
	)

	if list, err = db.NotificationGetPage(testUser, 2, pageSize, nil); err != nil {
		t.Fatalf("Cannot fetch page 2: %s", err.Error())
	} else if len(list) != pageSize {
		t.Errorf("Unexpected page size: %d (expected %d)",
			len(list),
			pageSize)
	}

	var unread = false
	if list, err = db.NotificationGetPage(testUser, 1, itemCnt, &unread); err != nil {
		t.Fatalf("Cannot fetch unread page: %s", err.Error())
	} else if len(list) != itemCnt {
		t.Errorf("Expected %d unread Notifications, got %d",
			itemCnt,
			len(list))
	}
} // func TestNotificationGetPage(t *testing.T)

func TestNotificationMarkRead(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		cnt int64
	)

	if err = db.NotificationMarkRead(testUser, items[0].ID); err != nil {
		t.Fatalf("Cannot mark Notification %d as read: %s",
			items[0].ID,
			err.Error())
	} else if cnt, err = db.NotificationUnreadCount(testUser); err != nil {
		t.Fatalf("Cannot count unread Notifications: %s",
			err.Error())
	} else if cnt != itemCnt-1 {
		t.Errorf("Unexpected unread count: %d (expected %d)",
			cnt,
			itemCnt-1)
	}
} // func TestNotificationMarkRead(t *testing.T)

func TestNotificationMarkAllRead(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		cnt int64
	)

	if err = db.NotificationMarkAllRead(testUser); err != nil {
		t.Fatalf("Cannot mark all Notifications as read: %s",
			err.Error())
	} else if cnt, err = db.NotificationUnreadCount(testUser); err != nil {
		t.Fatalf("Cannot count unread Notifications: %s",
			err.Error())
	} else if cnt != 0 {
		t.Errorf("Unread count should be 0 after marking all read, got %d",
			cnt)
	}

	// Doing it again must not fail.
	if err = db.NotificationMarkAllRead(testUser); err != nil {
		t.Errorf("Second MarkAllRead should be a no-op, but failed: %s",
			err.Error())
	}
} // func TestNotificationMarkAllRead(t *testing.T)

func TestNotificationDelete(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		n   *objects.Notification
	)

	if err = db.NotificationDelete(testUser, items[0].ID); err != nil {
		t.Fatalf("Cannot delete Notification %d: %s",
			items[0].ID,
			err.Error())
	} else if n, err = db.NotificationGetByID(testUser, items[0].ID); err != nil {
		t.Fatalf("Cannot look up Notification %d: %s",
			items[0].ID,
			err.Error())
	} else if n != nil {
		t.Errorf("Notification %d should be gone, but is still there",
			items[0].ID)
	}
} // func TestNotificationDelete(t *testing.T)

func TestSettings(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err error
		set *objects.Settings
	)

	// A user without stored settings gets the default policy.
	if set, err = db.SettingsGet(testUser); err != nil {
		t.Fatalf("Cannot load settings: %s", err.Error())
	} else if !set.SoundAlerts || !set.PushNotifications || set.Frequency != frequency.All {
		t.Errorf("Unexpected default settings: %s", set)
	}

	set.SoundAlerts = false
	set.Frequency = frequency.Important

	if err = db.SettingsUpdate(testUser, set); err != nil {
		t.Fatalf("Cannot update settings: %s", err.Error())
	} else if set, err = db.SettingsGet(testUser); err != nil {
		t.Fatalf("Cannot re-load settings: %s", err.Error())
	} else if set.SoundAlerts || set.Frequency != frequency.Important {
		t.Errorf("Settings were not stored properly: %s", set)
	}
} // func TestSettings(t *testing.T)

func TestSession(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err   error
		user  int64
		token = common.GetUUID()
	)

	if err = db.SessionAdd(token, testUser); err != nil {
		t.Fatalf("Cannot add session: %s", err.Error())
	} else if user, err = db.SessionGetUser(token); err != nil {
		t.Fatalf("Cannot look up session: %s", err.Error())
	} else if user != testUser {
		t.Errorf("Session belongs to user %d, expected %d",
			user,
			testUser)
	}

	if user, err = db.SessionGetUser("no-such-token"); err != nil {
		t.Fatalf("Lookup of bogus token should not fail: %s",
			err.Error())
	} else if user != 0 {
		t.Errorf("Bogus token resolved to user %d", user)
	}

	if err = db.SessionDelete(token); err != nil {
		t.Fatalf("Cannot delete session: %s", err.Error())
	} else if user, err = db.SessionGetUser(token); err != nil {
		t.Fatalf("Cannot look up deleted session: %s", err.Error())
	} else if user != 0 {
		t.Errorf("Deleted session still resolves to user %d", user)
	}
} // func TestSession(t *testing.T)
