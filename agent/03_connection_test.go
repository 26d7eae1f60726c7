// /home/krylon/go/src/github.com/blicero/ariadne/agent/03_connection_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 22. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-26 19:48:22 krylon>

package agent

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blicero/ariadne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

// streamServer emulates the server side of the event stream: hello,
// join, then a single pushed Notification.
type streamServer struct {
	srv    *httptest.Server
	joined chan string
}

func newStreamServer() *streamServer {
	var s = &streamServer{
		joined: make(chan string, 1),
	}

	var mux = http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/events/join", s.handleJoin)

	s.srv = httptest.NewServer(mux)
	return s
} // func newStreamServer() *streamServer

func (s *streamServer) addr() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
} // func (s *streamServer) addr() string

func (s *streamServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	var flusher = w.(http.Flusher)

	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprint(w, "event: hello\ndata: stream-one\n\n")
	flusher.Flush()

	select {
	case <-s.joined:
		// got our join, send one event
	case <-r.Context().Done():
		return
	case <-time.After(time.Second * 5):
		return
	}

	var n = objects.Notification{
		ID:        42,
		Title:     "Streamed",
		CreatedAt: time.Now(),
		PlaySound: true,
	}

	var buf, _ = ffjson.Marshal(&n) // nolint: errcheck
	fmt.Fprintf(w, "event: notification\ndata: %s\n\n", buf)
	flusher.Flush()

	<-r.Context().Done()
} // func (s *streamServer) handleEvents(w http.ResponseWriter, r *http.Request)

func (s *streamServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	var res = objects.Response{}

	if r.FormValue("token") == "" || r.FormValue("stream") != "stream-one" {
		res.Message = "Invalid join request"
	} else {
		res.Status = true
		res.Message = "OK"
		s.joined <- r.FormValue("stream")
	}

	var buf, _ = ffjson.Marshal(&res) // nolint: errcheck
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf) // nolint: errcheck
} // func (s *streamServer) handleJoin(w http.ResponseWriter, r *http.Request)

func TestConnectionStream(t *testing.T) {
	var srv = newStreamServer()
	defer srv.srv.Close()

	var (
		err   error
		conn  *Connection
		inbox = make(chan *objects.Notification, 4)
		decoy int
	)

	if conn, err = NewConnection(srv.addr(), "s3cr3t"); err != nil {
		t.Fatalf("Cannot create Connection: %s",
			err.Error())
	}

	// The handler slot must replace, not accumulate.
	conn.SetHandler(func(n *objects.Notification) { decoy++ })
	conn.SetHandler(func(n *objects.Notification) { inbox <- n })

	if err = conn.Open(); err != nil {
		t.Fatalf("Cannot open Connection: %s",
			err.Error())
	}

	defer conn.Close()

	select {
	case n := <-inbox:
		if n.ID != 42 || n.Title != "Streamed" {
			t.Errorf("Unexpected Notification: %d / %q",
				n.ID,
				n.Title)
		}
	case <-time.After(time.Second * 5):
		t.Fatal("No Notification arrived within 5 seconds")
	}

	if decoy != 0 {
		t.Errorf("Replaced handler fired %d times",
			decoy)
	}
} // func TestConnectionStream(t *testing.T)

func TestConnectionGivesUp(t *testing.T) {
	var oldDelay = reconnectDelay
	reconnectDelay = time.Millisecond * 10
	defer func() { reconnectDelay = oldDelay }()

	var (
		err  error
		conn *Connection
	)

	// Nothing is listening on this port, hopefully.
	if conn, err = NewConnection("127.0.0.1:1", "s3cr3t"); err != nil {
		t.Fatalf("Cannot create Connection: %s",
			err.Error())
	} else if err = conn.Open(); err != nil {
		t.Fatalf("Cannot open Connection: %s",
			err.Error())
	}

	var deadline = time.Now().Add(time.Second * 10)

	for time.Now().Before(deadline) {
		if conn.Failed() {
			break
		}
		time.Sleep(time.Millisecond * 25)
	}

	if !conn.Failed() {
		t.Fatal("Connection did not give up within 10 seconds")
	} else if conn.IsAlive() {
		t.Error("Connection claims to be alive after giving up")
	}

	// A failed Connection must be revivable by an explicit Open.
	if err = conn.Open(); err != nil {
		t.Errorf("Cannot re-open failed Connection: %s",
			err.Error())
	}

	conn.Close()
} // func TestConnectionGivesUp(t *testing.T)

func TestConnectionPollFallback(t *testing.T) {
	var (
		oldInterval = pollInterval
		oldDelay    = reconnectDelay
	)
	pollInterval = time.Millisecond * 50
	reconnectDelay = time.Millisecond * 10
	defer func() {
		pollInterval = oldInterval
		reconnectDelay = oldDelay
	}()

	var mux = http.NewServeMux()

	// No event stream on this server, just the polling endpoint.
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No streaming here", http.StatusNotFound)
	})
	mux.HandleFunc("/events/poll", func(w http.ResponseWriter, r *http.Request) {
		var list = []objects.Notification{
			{
				ID:        23,
				Title:     "Polled",
				CreatedAt: time.Now().Add(time.Hour),
			},
		}
		var buf, _ = ffjson.Marshal(list) // nolint: errcheck
		w.Header().Set("Content-Type", "application/json")
		w.Write(buf) // nolint: errcheck
	})

	var srv = httptest.NewServer(mux)
	defer srv.Close()

	var (
		err   error
		conn  *Connection
		inbox = make(chan *objects.Notification, 4)
	)

	if conn, err = NewConnection(strings.TrimPrefix(srv.URL, "http://"), "s3cr3t"); err != nil {
		t.Fatalf("Cannot create Connection: %s",
			err.Error())
	}

	conn.SetHandler(func(n *objects.Notification) { inbox <- n })

	if err = conn.Open(); err != nil {
		t.Fatalf("Cannot open Connection: %s",
			err.Error())
	}

	defer conn.Close()

	select {
	case n := <-inbox:
		if n.ID != 23 || n.Title != "Polled" {
			t.Errorf("Unexpected Notification: %d / %q",
				n.ID,
				n.Title)
		}
	case <-time.After(time.Second * 5):
		t.Fatal("No Notification arrived via polling within 5 seconds")
	}
} // func TestConnectionPollFallback(t *testing.T)
