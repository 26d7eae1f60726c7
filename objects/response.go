// /home/krylon/go/src/github.com/blicero/ariadne/objects/response.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-12 16:05:27 krylon>

package objects

//go:generate ffjson response.go

// Response is what the server sends to a client after processing a request.
type Response struct {
	ID      int64
	Status  bool
	Message string
}

// CountResponse is the server's answer to a query for the number of
// unread notifications.
type CountResponse struct {
	ID     int64
	Status bool
	Count  int64
}
