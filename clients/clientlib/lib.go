// /home/krylon/go/src/github.com/blicero/ariadne/clients/clientlib/lib.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-25 22:03:11 krylon>

// Package clientlib provides the basic framework for
// building clients that create new Notifications.
package clientlib

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
	"github.com/blicero/ariadne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	addPath = "/notification/add"
)

// Client is the basic implementation of an Ariadne producer client,
// it implements the fundamental communication with the Server.
type Client struct {
	Server *url.URL
	Client http.Client
	log    *log.Logger
}

// NewClient creates a new Client.
func NewClient(srv string) (*Client, error) {
	var (
		err error
		c   = &Client{
			Client: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if c.log, err = common.GetLogger(logdomain.Client); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot create Logger: %s\n",
			err.Error())
		return nil, err
	} else if c.Server, err = url.Parse(srv); err != nil {
		c.log.Printf("[ERROR] Cannot parse URL %q: %s\n",
			srv,
			err.Error())
		return nil, err
	}

	c.Server.Scheme = "http"
	c.Server.Path = addPath

	return c, nil
} // func NewClient(srv string) (*Client, error)

func (c *Client) GetLogger() *log.Logger {
	return c.log
} // func (c *Client) GetLogger() *log.Logger

// SubmitNotification creates a new Notification for the given user on
// the server. On success, the Notification's ID and UUID are filled in
// from the server's response.
func (c *Client) SubmitNotification(user int64, n *objects.Notification) error {
	var (
		err    error
		msg    string
		body   []byte
		hres   *http.Response
		ores   objects.Response
		values = make(url.Values)
	)

	values["user"] = []string{strconv.FormatInt(user, 10)}
	values["title"] = []string{n.Title}
	values["body"] = []string{n.Body}
	values["sender"] = []string{strconv.FormatInt(n.SenderID, 10)}
	values["task"] = []string{strconv.FormatInt(n.TaskID, 10)}
	values["project"] = []string{strconv.FormatInt(n.ProjectID, 10)}
	values["play_sound"] = []string{strconv.FormatBool(n.PlaySound)}
	values["send_push"] = []string{strconv.FormatBool(n.SendPush)}

	if hres, err = c.Client.PostForm(c.Server.String(), values); err != nil {
		c.log.Printf("[ERROR] Failed to POST Notification to %s: %s\n",
			c.Server,
			err.Error())
		return err
	}

	defer hres.Body.Close() // nolint: errcheck

	if hres.StatusCode != http.StatusOK {
		msg = fmt.Sprintf("Unexpected status from %s: %s",
			c.Server,
			hres.Status)
		c.log.Printf("[ERROR] %s\n", msg)
		return errors.New(msg)
	} else if body, err = io.ReadAll(hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			c.Server,
			err.Error())
		return err
	} else if err = ffjson.Unmarshal(body, &ores); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Response from %s: %s\n",
			c.Server,
			err.Error())
		return err
	} else if !ores.Status {
		err = fmt.Errorf("Request to %s failed: %s",
			c.Server,
			ores.Message)
		c.log.Printf("[ERROR] %s\n",
			err.Error())
		return err
	}

	n.ID = ores.ID
	n.UUID = ores.Message

	c.log.Printf("[DEBUG] Notification %d was created\n",
		n.ID)

	return nil
} // func (c *Client) SubmitNotification(user int64, n *objects.Notification) error
