// /home/krylon/go/src/github.com/blicero/ariadne/database/query/query.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-15 18:02:19 krylon>

// Package query provides symbolic constants for identifying SQL queries.
package query

//go:generate stringer -type=ID

type ID uint8

const (
	SessionAdd ID = iota
	SessionGetUser
	SessionDelete
	SettingsGet
	SettingsUpdate
	NotificationAdd
	NotificationDelete
	NotificationGetByID
	NotificationGetRecent
	NotificationGetPage
	NotificationGetPageRead
	NotificationGetSince
	NotificationMarkRead
	NotificationMarkAllRead
	NotificationUnreadCount
)
