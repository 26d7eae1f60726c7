// /home/krylon/go/src/github.com/blicero/ariadne/alert/push.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-24 18:30:55 krylon>

package alert

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/objects"
	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
	notifyInfo   = "org.freedesktop.Notifications.GetServerInformation"
)

// ErrPermissionDenied indicates the user has not consented to
// system-level notifications, or the desktop refuses to talk to us.
var ErrPermissionDenied = errors.New("permission for system notifications was denied")

// Pusher delivers a notification to the operating system's
// notification facility.
type Pusher interface {
	// Probe asks whether we may post notifications at all.
	Probe() error
	// Push posts a single notification.
	Push(n *objects.Notification) error
}

// DBusPusher posts notifications to the desktop via the
// org.freedesktop.Notifications interface on the session bus.
type DBusPusher struct {
	bus *dbus.Conn
}

// NewDBusPusher connects to the session bus.
func NewDBusPusher() (*DBusPusher, error) {
	var (
		err error
		p   = new(DBusPusher)
	)

	if p.bus, err = dbus.SessionBus(); err != nil {
		return nil, err
	}

	return p, nil
} // func NewDBusPusher() (*DBusPusher, error)

// Probe checks whether a notification daemon is listening on the
// session bus. This is the closest thing the desktop has to asking the
// user for permission, a missing or unresponsive daemon counts as a
// denial.
func (p *DBusPusher) Probe() error {
	var obj = p.bus.Object(notifyObj, notifyPath)

	if obj == nil {
		return ErrPermissionDenied
	}

	var (
		name, vendor, version, spec string
		res                         = obj.Call(notifyInfo, 0)
	)

	if res.Err != nil {
		return ErrPermissionDenied
	} else if err := res.Store(&name, &vendor, &version, &spec); err != nil {
		return ErrPermissionDenied
	}

	return nil
} // func (p *DBusPusher) Probe() error

// Push posts the given notification to the desktop.
//
// The replacement tag is derived from the event's UUID, so if the same
// event somehow gets pushed twice, the desktop collapses the two into
// one instead of stacking them.
func (p *DBusPusher) Push(n *objects.Notification) error {
	var obj = p.bus.Object(notifyObj, notifyPath)

	if obj == nil {
		return fmt.Errorf("Did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
	}

	var (
		head, body = n.Payload()
		tag        = crc32.ChecksumIEEE([]byte(n.UUID))
	)

	var res = obj.Call(
		notifyMethod,
		0,
		common.AppName,
		tag,
		"",
		head,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)

	if res.Err != nil {
		return res.Err
	}

	return nil
} // func (p *DBusPusher) Push(n *objects.Notification) error
