// /home/krylon/go/src/github.com/blicero/ariadne/server/web.go
// -*- mode: go; coding: utf-8; -*-
// Created on 08. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-22 18:51:36 krylon>

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blicero/ariadne/database"
	"github.com/blicero/ariadne/objects"
	"github.com/blicero/ariadne/objects/frequency"
	"github.com/gorilla/mux"
	"github.com/pquerna/ffjson/ffjson"
)

func (d *Daemon) initWebHandlers() error {
	d.router.HandleFunc("/notification/add", d.handleNotificationAdd)
	d.router.HandleFunc("/notification/all", d.handleNotificationGetPage)
	d.router.HandleFunc("/notification/recent", d.handleNotificationGetRecent)
	d.router.HandleFunc("/notification/unread_count", d.handleUnreadCount)
	d.router.HandleFunc("/notification/read_all", d.handleNotificationMarkAllRead)
	d.router.HandleFunc("/notification/{id:(?:\\d+)}/read", d.handleNotificationMarkRead)
	d.router.HandleFunc("/notification/{id:(?:\\d+)}/delete", d.handleNotificationDelete)
	d.router.HandleFunc("/settings/get", d.handleSettingsGet)
	d.router.HandleFunc("/settings/update", d.handleSettingsUpdate)
	d.router.HandleFunc("/events", d.handleEvents)
	d.router.HandleFunc("/events/join", d.handleEventsJoin)
	d.router.HandleFunc("/events/poll", d.handleEventsPoll)

	return nil
} // func (d *Daemon) initWebHandlers() error

// sessionUser resolves the session token attached to a request to the
// user it is scoped to. A return value of 0 means the token is missing
// or unknown.
func (d *Daemon) sessionUser(r *http.Request) (int64, error) {
	var (
		err   error
		user  int64
		db    *database.Database
		token = r.FormValue("token")
	)

	if token == "" {
		return 0, nil
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if user, err = db.SessionGetUser(token); err != nil {
		d.log.Printf("[ERROR] Cannot resolve session token: %s\n",
			err.Error())
		return 0, err
	}

	return user, nil
} // func (d *Daemon) sessionUser(r *http.Request) (int64, error)

func (d *Daemon) handleNotificationAdd(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err      error
		n        objects.Notification
		db       *database.Database
		msg      string
		user     int64
		response = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		response.Message = err.Error()
		goto SEND_RESPONSE
	} else if user, err = strconv.ParseInt(r.PostFormValue("user"), 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse user ID %q: %s",
			r.PostFormValue("user"),
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	n.Title = r.PostFormValue("title")
	n.Body = r.PostFormValue("body")
	n.PlaySound = r.PostFormValue("play_sound") == "true"
	n.SendPush = r.PostFormValue("send_push") == "true"
	n.SenderID, _ = strconv.ParseInt(r.PostFormValue("sender"), 10, 64)  // nolint: errcheck
	n.TaskID, _ = strconv.ParseInt(r.PostFormValue("task"), 10, 64)     // nolint: errcheck
	n.ProjectID, _ = strconv.ParseInt(r.PostFormValue("project"), 10, 64) // nolint: errcheck
	n.CreatedAt = time.Now()

	if n.Title == "" {
		msg = "Notification has no title"
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.NotificationAdd(user, &n); err != nil {
		msg = fmt.Sprintf("Cannot add Notification %q to database: %s",
			n.Title,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	notificationsStored.Inc()
	d.publish(user, &n)

	response.ID = n.ID
	response.Message = n.UUID
	response.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleNotificationAdd(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleNotificationGetRecent(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err   error
		db    *database.Database
		user  int64
		limit int64
		list  []objects.Notification
		buf   []byte
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	if limit, err = strconv.ParseInt(r.FormValue("limit"), 10, 32); err != nil || limit < 1 {
		limit = 50
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if list, err = db.NotificationGetRecent(user, int(limit)); err != nil {
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
} // func (d *Daemon) handleNotificationGetRecent(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleNotificationGetPage(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err         error
		db          *database.Database
		user        int64
		page, limit int64
		read        *bool
		list        []objects.Notification
		buf         []byte
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	if page, err = strconv.ParseInt(r.FormValue("page"), 10, 32); err != nil || page < 1 {
		page = 1
	}
	if limit, err = strconv.ParseInt(r.FormValue("limit"), 10, 32); err != nil || limit < 1 {
		limit = 25
	}

	switch r.FormValue("read") {
	case "true":
		var v = true
		read = &v
	case "false":
		var v = false
		read = &v
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if list, err = db.NotificationGetPage(user, int(page), int(limit), read); err != nil {
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
} // func (d *Daemon) handleNotificationGetPage(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err  error
		db   *database.Database
		user int64
		res  = objects.CountResponse{ID: d.getID()}
		buf  []byte
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if res.Count, err = db.NotificationUnreadCount(user); err != nil {
		d.log.Printf("[ERROR] Cannot count unread Notifications: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	res.Status = true

	if buf, err = ffjson.Marshal(&res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize response: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleUnreadCount(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleNotificationMarkRead(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err        error
		db         *database.Database
		user, id   int64
		idstr, msg string
		res        = objects.Response{ID: d.getID()}
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	idstr = mux.Vars(r)["id"]

	if id, err = strconv.ParseInt(idstr, 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse ID %q: %s",
			idstr,
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.NotificationMarkRead(user, id); err != nil {
		msg = fmt.Sprintf("Cannot mark Notification %d as read: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = "OK"
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleNotificationMarkRead(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleNotificationMarkAllRead(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err  error
		db   *database.Database
		user int64
		msg  string
		res  = objects.Response{ID: d.getID()}
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.NotificationMarkAllRead(user); err != nil {
		msg = fmt.Sprintf("Cannot mark Notifications of user %d as read: %s",
			user,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = "OK"
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleNotificationMarkAllRead(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleNotificationDelete(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err        error
		db         *database.Database
		user, id   int64
		idstr, msg string
		n          *objects.Notification
		res        = objects.Response{ID: d.getID()}
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	idstr = mux.Vars(r)["id"]

	if id, err = strconv.ParseInt(idstr, 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse ID %q: %s",
			idstr,
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if n, err = db.NotificationGetByID(user, id); err != nil {
		msg = fmt.Sprintf("Cannot look up Notification %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if n == nil {
		msg = fmt.Sprintf("Did not find Notification %d in database", id)
		d.log.Printf("[INFO] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if err = db.NotificationDelete(user, id); err != nil {
		msg = fmt.Sprintf("Failed to delete Notification %d (%q): %s",
			id,
			n.Title,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("Notification %d (%q) was deleted",
		id,
		n.Title)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleNotificationDelete(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err  error
		db   *database.Database
		user int64
		set  *objects.Settings
		buf  []byte
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if set, err = db.SettingsGet(user); err != nil {
		d.log.Printf("[ERROR] Cannot load settings for user %d: %s\n",
			user,
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if buf, err = ffjson.Marshal(set); err != nil {
		d.log.Printf("[ERROR] Cannot serialize settings: %s\n",
			err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleSettingsGet(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err  error
		db   *database.Database
		user int64
		freq int64
		msg  string
		set  objects.Settings
		res  = objects.Response{ID: d.getID()}
	)

	if user, err = d.sessionUser(r); err != nil || user == 0 {
		http.Error(w, "Invalid session token", http.StatusForbidden)
		return
	}

	set.SoundAlerts = r.FormValue("sound_alerts") == "true"
	set.PushNotifications = r.FormValue("push_notifications") == "true"

	if freq, err = strconv.ParseInt(r.FormValue("frequency"), 10, 8); err != nil || freq > int64(frequency.Never) {
		msg = fmt.Sprintf("Invalid frequency %q",
			r.FormValue("frequency"))
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	set.Frequency = frequency.Frequency(freq)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.SettingsUpdate(user, &set); err != nil {
		msg = fmt.Sprintf("Cannot update settings for user %d: %s",
			user,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = "OK"
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleSettingsUpdate(w http.ResponseWriter, r *http.Request)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Response object %#v: %s\n",
			res,
			err.Error())
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response)
