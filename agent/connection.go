// /home/krylon/go/src/github.com/blicero/ariadne/agent/connection.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-23 18:20:14 krylon>

package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
	"github.com/cenkalti/backoff"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	uriEvents     = "/events"
	uriEventsJoin = "/events/join"
	uriEventsPoll = "/events/poll"

	maxReconnectAttempts = 5
)

// reconnectDelay is the fixed pause between reconnection attempts,
// pollInterval the period of the fallback transport. They are
// variables so tests do not have to wait around.
var (
	reconnectDelay = time.Millisecond * 1000
	pollInterval   = time.Second * 5
)

// errStreamUnsupported indicates the server does not offer the event
// stream, so the Connection falls back to polling.
var errStreamUnsupported = errors.New("event stream is not available")

// Handler consumes inbound push events.
type Handler func(n *objects.Notification)

// eventStream is an established, joined event stream.
type eventStream struct {
	body io.ReadCloser
	rdr  *bufio.Reader
}

// Connection maintains the persistent event transport to the server.
//
// At most one transport is active per Connection, and an application
// is expected to hold at most one Connection per session. Its
// lifecycle is explicit: Open on login, Close on logout.
//
// Live delivery is a best-effort enhancement. Transport errors are
// logged, never surfaced; after a bounded number of failed
// reconnection attempts the Connection stays down until the next
// explicit Open.
type Connection struct {
	log     *log.Logger
	srv     string
	token   string
	web     http.Client // stream transport, no timeout
	rest    http.Client // join/poll requests
	lock    sync.RWMutex
	handler Handler
	active  bool
	failed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewConnection creates a Connection to the given server, authenticated
// by the given session token. It does not open the transport, yet.
func NewConnection(srv, token string) (*Connection, error) {
	var (
		err error
		c   = &Connection{
			srv:   srv,
			token: token,
			rest: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if token == "" {
		return nil, errors.New("Session token must not be empty")
	}

	if c.log, err = common.GetLogger(logdomain.Connection); err != nil {
		return nil, err
	}

	return c, nil
} // func NewConnection(srv, token string) (*Connection, error)

// SetHandler registers the handler for inbound notification events.
// There is exactly one handler slot: registering a new handler
// replaces the previous one, it never accumulates. Otherwise a
// remounted consumer would cause duplicate alerts per event.
func (c *Connection) SetHandler(h Handler) {
	c.lock.Lock()
	c.handler = h
	c.lock.Unlock()
} // func (c *Connection) SetHandler(h Handler)

func (c *Connection) getHandler() Handler {
	c.lock.RLock()
	var h = c.handler
	c.lock.RUnlock()

	return h
} // func (c *Connection) getHandler() Handler

// IsAlive returns true while the Connection is open.
func (c *Connection) IsAlive() bool {
	c.lock.RLock()
	var alive = c.active
	c.lock.RUnlock()

	return alive
} // func (c *Connection) IsAlive() bool

// Failed returns true if the Connection has given up reconnecting.
func (c *Connection) Failed() bool {
	c.lock.RLock()
	var failed = c.failed
	c.lock.RUnlock()

	return failed
} // func (c *Connection) Failed() bool

// Open starts the transport. It returns an error if the Connection is
// already open, the transport itself is established asynchronously.
func (c *Connection) Open() error {
	c.lock.Lock()
	if c.active {
		c.lock.Unlock()
		return errors.New("Connection is already open")
	}

	c.active = true
	c.failed = false
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.lock.Unlock()

	go c.run()

	return nil
} // func (c *Connection) Open() error

// Close shuts the transport down.
func (c *Connection) Close() {
	c.lock.Lock()
	if !c.active {
		c.lock.Unlock()
		return
	}

	c.active = false
	c.cancel()
	c.lock.Unlock()
} // func (c *Connection) Close()

func (c *Connection) markFailed(e error) {
	c.lock.Lock()
	c.active = false
	c.failed = true
	c.lock.Unlock()

	c.log.Printf("[ERROR] Giving up on the event stream: %s\n",
		e.Error())
} // func (c *Connection) markFailed(e error)

func (c *Connection) run() {
	defer c.log.Println("[TRACE] Connection loop is quitting")

	var (
		err error
		s   *eventStream
	)

	for c.IsAlive() {
		if s, err = c.connect(); err != nil {
			if errors.Is(err, errStreamUnsupported) {
				c.log.Println("[INFO] Event stream is unavailable, falling back to polling")
				c.pollLoop()
				return
			}

			c.log.Printf("[ERROR] Cannot establish event stream: %s\n",
				err.Error())

			if s, err = c.reconnect(); err != nil {
				if errors.Is(err, errStreamUnsupported) {
					c.log.Println("[INFO] Event stream is unavailable, falling back to polling")
					c.pollLoop()
					return
				}

				c.markFailed(err)
				return
			}
		}

		if err = c.consume(s); err == nil {
			return
		}

		c.log.Printf("[ERROR] Event stream broke: %s\n",
			err.Error())
	}
} // func (c *Connection) run()

// connect opens the event stream and performs the join handshake that
// scopes the stream to our session's user.
func (c *Connection) connect() (*eventStream, error) {
	var (
		err error
		req *http.Request
		res *http.Response
		uri = fmt.Sprintf("http://%s%s", c.srv, uriEvents)
	)

	if req, err = http.NewRequestWithContext(c.ctx, http.MethodGet, uri, nil); err != nil {
		return nil, &ConnectionError{Op: "connect", Err: err}
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	if res, err = c.web.Do(req); err != nil {
		return nil, &ConnectionError{Op: "connect", Err: err}
	} else if res.StatusCode != 200 {
		res.Body.Close() // nolint: errcheck
		return nil, errStreamUnsupported
	}

	var (
		s      = &eventStream{body: res.Body, rdr: bufio.NewReader(res.Body)}
		stream string
	)

	if stream, err = readHello(s.rdr); err != nil {
		s.body.Close() // nolint: errcheck
		return nil, &ConnectionError{Op: "handshake", Err: err}
	} else if err = c.join(stream); err != nil {
		s.body.Close() // nolint: errcheck
		return nil, err
	}

	c.log.Printf("[DEBUG] Event stream %s is up\n",
		stream)

	return s, nil
} // func (c *Connection) connect() (*eventStream, error)

// reconnect tries to re-establish the event stream after it broke:
// fixed-delay retry, 1000ms apart, bounded to 5 attempts. No
// exponential growth - after the final failure, the stream stays down
// until the next explicit Open.
func (c *Connection) reconnect() (*eventStream, error) {
	var (
		err error
		s   *eventStream
	)

	var op = func() error {
		var oerr error

		if !c.IsAlive() {
			return nil
		} else if s, oerr = c.connect(); oerr != nil {
			c.log.Printf("[DEBUG] Reconnect attempt failed: %s\n",
				oerr.Error())
			return oerr
		}

		return nil
	}

	var bo = backoff.WithMaxRetries(
		backoff.NewConstantBackOff(reconnectDelay),
		maxReconnectAttempts-1)

	time.Sleep(reconnectDelay)

	if err = backoff.Retry(op, bo); err != nil {
		return nil, err
	} else if s == nil {
		return nil, &ConnectionError{Op: "reconnect", Err: errors.New("Connection was closed")}
	}

	return s, nil
} // func (c *Connection) reconnect() (*eventStream, error)

// join sends the control message that authenticates the stream.
func (c *Connection) join(stream string) error {
	var (
		err    error
		res    *http.Response
		body   []byte
		ores   objects.Response
		values = make(url.Values)
		uri    = fmt.Sprintf("http://%s%s", c.srv, uriEventsJoin)
	)

	values["stream"] = []string{stream}
	values["token"] = []string{c.token}

	if res, err = c.rest.PostForm(uri, values); err != nil {
		return &ConnectionError{Op: "join", Err: err}
	}

	defer res.Body.Close() // nolint: errcheck

	if body, err = io.ReadAll(res.Body); err != nil {
		return &ConnectionError{Op: "join", Err: err}
	} else if err = ffjson.Unmarshal(body, &ores); err != nil {
		return &ConnectionError{Op: "join", Err: err}
	} else if !ores.Status {
		return &ConnectionError{Op: "join", Err: errors.New(ores.Message)}
	}

	return nil
} // func (c *Connection) join(stream string) error

// readHello reads the hello event off a freshly opened stream and
// returns the stream ID it carries.
func readHello(rdr *bufio.Reader) (string, error) {
	var event, data string

	for {
		var (
			err  error
			line string
		)

		if line, err = rdr.ReadString('\n'); err != nil {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if event != "hello" || data == "" {
				return "", fmt.Errorf("Unexpected first event %q on stream",
					event)
			}
			return data, nil
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(line[5:])
		}
	}
} // func readHello(rdr *bufio.Reader) (string, error)

// consume reads events off the established stream until it breaks or
// the Connection is closed.
func (c *Connection) consume(s *eventStream) error {
	defer s.body.Close() // nolint: errcheck

	var event, data string

	for c.IsAlive() {
		var (
			err  error
			line string
		)

		if line, err = s.rdr.ReadString('\n'); err != nil {
			if !c.IsAlive() {
				return nil
			}
			return &ConnectionError{Op: "stream", Err: err}
		}

		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			c.dispatch(event, data)
			event, data = "", ""
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(line[5:])
		}
	}

	return nil
} // func (c *Connection) consume(s *eventStream) error

func (c *Connection) dispatch(event, data string) {
	if event != "notification" {
		return
	}

	var (
		err error
		n   *objects.Notification
	)

	if n, err = objects.ParseEvent([]byte(data)); err != nil {
		c.log.Printf("[ERROR] Rejecting malformed event payload: %s\n",
			err.Error())
		return
	}

	if h := c.getHandler(); h != nil {
		h(n)
	}
} // func (c *Connection) dispatch(event, data string)

// pollLoop is the fallback transport: ask the server periodically for
// anything new. Errors are logged only, per the usual rule that live
// delivery must never get in the user's way.
func (c *Connection) pollLoop() {
	defer c.log.Println("[TRACE] Poll loop is quitting")

	var (
		since = time.Now()
		tick  = time.NewTicker(pollInterval)
	)
	defer tick.Stop()

	for c.IsAlive() {
		select {
		case <-c.ctx.Done():
			return
		case <-tick.C:
			// poll below
		}

		var (
			err  error
			req  *http.Request
			res  *http.Response
			body []byte
			list []objects.Notification
			uri  = fmt.Sprintf("http://%s%s?token=%s&since=%d",
				c.srv,
				uriEventsPoll,
				url.QueryEscape(c.token),
				since.Unix())
		)

		if req, err = http.NewRequestWithContext(c.ctx, http.MethodGet, uri, nil); err != nil {
			c.log.Printf("[CANTHAPPEN] Cannot create poll request: %s\n",
				err.Error())
			return
		} else if res, err = c.rest.Do(req); err != nil {
			c.log.Printf("[ERROR] Poll request failed: %s\n",
				err.Error())
			continue
		} else if res.StatusCode != 200 {
			c.log.Printf("[ERROR] Unexpected HTTP status from poll: %s\n",
				res.Status)
			res.Body.Close() // nolint: errcheck
			continue
		}

		body, err = io.ReadAll(res.Body)
		res.Body.Close() // nolint: errcheck

		if err != nil {
			c.log.Printf("[ERROR] Cannot read poll response: %s\n",
				err.Error())
			continue
		} else if err = ffjson.Unmarshal(body, &list); err != nil {
			c.log.Printf("[ERROR] Cannot parse poll response: %s\n",
				err.Error())
			continue
		}

		// The server returns newest first, we deliver oldest first so
		// consumers see events in their natural order.
		for i := len(list) - 1; i >= 0; i-- {
			var n = list[i]

			if err = n.Validate(); err != nil {
				c.log.Printf("[ERROR] Rejecting malformed event: %s\n",
					err.Error())
				continue
			}

			if n.CreatedAt.After(since) {
				since = n.CreatedAt
			}

			if h := c.getHandler(); h != nil {
				h(&n)
			}
		}
	}
} // func (c *Connection) pollLoop()
