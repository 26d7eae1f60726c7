// /home/krylon/go/src/github.com/blicero/ariadne/agent/reconcile.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 19:41:52 krylon>

package agent

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

// recentWindow is the number of notifications a reload fetches. It
// covers the recent view and then some, older entries are fetched page
// by page on demand.
const recentWindow = 50

// Reconciler keeps the Mirror consistent with the server.
//
// Writes follow a strict reload-after-write discipline: after any
// mutation - mark read, mark all read, delete - the Reconciler fetches
// a fresh snapshot and bulk-loads it into the Mirror instead of
// patching the local copy. Counting locally invites drift, asking the
// server does not.
type Reconciler struct {
	log    *log.Logger
	srv    string
	token  string
	web    http.Client
	mirror *Mirror
}

// NewReconciler creates a Reconciler talking to the given server on
// behalf of the session identified by token, feeding the given Mirror.
func NewReconciler(srv, token string, m *Mirror) (*Reconciler, error) {
	var (
		err error
		rec = &Reconciler{
			srv:    srv,
			token:  token,
			mirror: m,
			web: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if rec.log, err = common.GetLogger(logdomain.Agent); err != nil {
		return nil, err
	}

	return rec, nil
} // func NewReconciler(srv, token string, m *Mirror) (*Reconciler, error)

// Reload fetches a fresh snapshot of the user's recent notifications
// and bulk-loads it into the Mirror.
//
// The ticket is drawn before the request goes out, so a response that
// is overtaken by a younger reload gets discarded by the Mirror rather
// than clobbering fresher data.
func (rec *Reconciler) Reload(ctx context.Context) error {
	var (
		err    error
		list   []objects.Notification
		ticket = rec.mirror.BeginReload()
		values = make(url.Values)
	)

	values["limit"] = []string{fmt.Sprintf("%d", recentWindow)}

	if err = rec.getJSON(ctx, "/notification/recent", values, &list); err != nil {
		rec.log.Printf("[ERROR] Reload #%d failed: %s\n",
			ticket,
			err.Error())
		return err
	}

	rec.mirror.BulkLoad(ticket, list)

	return nil
} // func (rec *Reconciler) Reload(ctx context.Context) error

// MarkRead marks a single notification as read on the server, then
// reloads.
func (rec *Reconciler) MarkRead(ctx context.Context, id int64) error {
	var (
		err  error
		path = fmt.Sprintf("/notification/%d/read", id)
	)

	if err = rec.postCommand(ctx, path, nil); err != nil {
		return err
	}

	return rec.Reload(ctx)
} // func (rec *Reconciler) MarkRead(ctx context.Context, id int64) error

// MarkAllRead marks all of the user's notifications as read on the
// server, then reloads.
func (rec *Reconciler) MarkAllRead(ctx context.Context) error {
	var err error

	if err = rec.postCommand(ctx, "/notification/read_all", nil); err != nil {
		return err
	}

	return rec.Reload(ctx)
} // func (rec *Reconciler) MarkAllRead(ctx context.Context) error

// Delete removes a notification on the server, then reloads.
func (rec *Reconciler) Delete(ctx context.Context, id int64) error {
	var (
		err  error
		path = fmt.Sprintf("/notification/%d/delete", id)
	)

	if err = rec.postCommand(ctx, path, nil); err != nil {
		return err
	}

	return rec.Reload(ctx)
} // func (rec *Reconciler) Delete(ctx context.Context, id int64) error

// FetchPage fetches one page of the user's notification history,
// optionally filtered by read state (nil means no filter). The result
// bypasses the Mirror, it is meant for the scrollable list view.
func (rec *Reconciler) FetchPage(ctx context.Context, page, limit int, read *bool) ([]objects.Notification, error) {
	var (
		err    error
		list   []objects.Notification
		values = make(url.Values)
	)

	values["page"] = []string{fmt.Sprintf("%d", page)}
	values["limit"] = []string{fmt.Sprintf("%d", limit)}

	if read != nil {
		values["read"] = []string{fmt.Sprintf("%t", *read)}
	}

	if err = rec.getJSON(ctx, "/notification/all", values, &list); err != nil {
		return nil, err
	}

	return list, nil
} // func (rec *Reconciler) FetchPage(...) ([]objects.Notification, error)

// UnreadCount asks the server for the authoritative unread count.
func (rec *Reconciler) UnreadCount(ctx context.Context) (int64, error) {
	var (
		err error
		res objects.CountResponse
	)

	if err = rec.getJSON(ctx, "/notification/unread_count", nil, &res); err != nil {
		return 0, err
	} else if !res.Status {
		return 0, &RequestError{
			Path:    "/notification/unread_count",
			Status:  200,
			Message: "Server refused the request",
		}
	}

	return res.Count, nil
} // func (rec *Reconciler) UnreadCount(ctx context.Context) (int64, error)

// FetchSettings loads the user's notification settings from the server.
func (rec *Reconciler) FetchSettings(ctx context.Context) (*objects.Settings, error) {
	var (
		err error
		set objects.Settings
	)

	if err = rec.getJSON(ctx, "/settings/get", nil, &set); err != nil {
		return nil, err
	}

	return &set, nil
} // func (rec *Reconciler) FetchSettings(ctx context.Context) (*objects.Settings, error)

// UpdateSettings stores the given settings on the server.
func (rec *Reconciler) UpdateSettings(ctx context.Context, set *objects.Settings) error {
	var values = make(url.Values)

	values["sound_alerts"] = []string{fmt.Sprintf("%t", set.SoundAlerts)}
	values["push_notifications"] = []string{fmt.Sprintf("%t", set.PushNotifications)}
	values["frequency"] = []string{fmt.Sprintf("%d", set.Frequency)}

	return rec.postCommand(ctx, "/settings/update", values)
} // func (rec *Reconciler) UpdateSettings(ctx context.Context, set *objects.Settings) error

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

// getJSON performs a GET request and decodes the JSON response body
// into dst.
func (rec *Reconciler) getJSON(ctx context.Context, path string, values url.Values, dst interface{}) error {
	var (
		err  error
		req  *http.Request
		res  *http.Response
		body []byte
	)

	if values == nil {
		values = make(url.Values)
	}
	values["token"] = []string{rec.token}

	var uri = fmt.Sprintf("http://%s%s?%s",
		rec.srv,
		path,
		values.Encode())

	if req, err = http.NewRequestWithContext(ctx, http.MethodGet, uri, nil); err != nil {
		return err
	} else if res, err = rec.web.Do(req); err != nil {
		return err
	}

	defer res.Body.Close() // nolint: errcheck

	if res.StatusCode != 200 {
		body, _ = io.ReadAll(res.Body) // nolint: errcheck
		return &RequestError{
			Path:    path,
			Status:  res.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	} else if body, err = io.ReadAll(res.Body); err != nil {
		return err
	} else if err = ffjson.Unmarshal(body, dst); err != nil {
		rec.log.Printf("[ERROR] Cannot parse response from %s: %s\n%s\n",
			path,
			err.Error(),
			body)
		return err
	}

	return nil
} // func (rec *Reconciler) getJSON(...) error

// postCommand performs a POST request that is expected to return a
// plain Response object, and turns a negative Status into an error.
func (rec *Reconciler) postCommand(ctx context.Context, path string, values url.Values) error {
	var (
		err  error
		req  *http.Request
		res  *http.Response
		body []byte
		ores objects.Response
		uri  = fmt.Sprintf("http://%s%s", rec.srv, path)
	)

	if values == nil {
		values = make(url.Values)
	}
	values["token"] = []string{rec.token}

	if req, err = http.NewRequestWithContext(ctx, http.MethodPost, uri, strings.NewReader(values.Encode())); err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if res, err = rec.web.Do(req); err != nil {
		return err
	}

	defer res.Body.Close() // nolint: errcheck

	if body, err = io.ReadAll(res.Body); err != nil {
		return err
	} else if res.StatusCode != 200 {
		return &RequestError{
			Path:    path,
			Status:  res.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	} else if err = ffjson.Unmarshal(body, &ores); err != nil {
		return err
	} else if !ores.Status {
		return &RequestError{
			Path:    path,
			Status:  res.StatusCode,
			Message: ores.Message,
		}
	}

	return nil
} // func (rec *Reconciler) postCommand(...) error
