// /home/krylon/go/src/github.com/blicero/ariadne/common/common.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-18 19:40:12 krylon>

// Package common provides constants, variables and functions used
// throughout the application.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blicero/ariadne/logdomain"
	"github.com/hashicorp/logutils"
	"github.com/odeke-em/go-uuid"
)

// Debug, if true, causes the application to log additional messages.
// AppName is the name the application reports for itself.
// Version is the version number. Duh.
// DefaultPort is the TCP port the server listens on unless told otherwise.
const (
	Debug       = true
	AppName     = "Ariadne"
	Version     = "0.1.0"
	DefaultPort = 7202
)

// Timestamp formats used throughout the application.
const (
	TimestampFormat          = "2006-01-02 15:04:05"
	TimestampFormatMinute    = "2006-01-02 15:04"
	TimestampFormatSubSecond = "2006-01-02 15:04:05.0000 MST"
	TimestampFormatTime      = "15:04:05"
	TimestampFormatDate      = "2006-01-02"
)

// BuildStamp is filled in by the build process.
var BuildStamp = "unknown"

// LogLevels are the valid log levels, in increasing order of severity.
var LogLevels = []logutils.LogLevel{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"CRITICAL",
	"CANTHAPPEN",
	"SILENT",
}

// PackageLevels defines the minimum log level per logging domain.
var PackageLevels = initPackageLevels()

func initPackageLevels() map[logdomain.ID]logutils.LogLevel {
	var m = make(map[logdomain.ID]logutils.LogLevel, len(logdomain.AllDomains()))

	var lvl logutils.LogLevel = "INFO"
	if Debug {
		lvl = "TRACE"
	}

	for _, dom := range logdomain.AllDomains() {
		m[dom] = lvl
	}

	return m
} // func initPackageLevels() map[logdomain.ID]logutils.LogLevel

// BaseDir is the directory where the application stores its data,
// LogPath and DbPath are the log file and database living there.
var (
	BaseDir = filepath.Join(
		os.Getenv("HOME"),
		fmt.Sprintf(".%s.d", strings.ToLower(AppName)))
	LogPath = filepath.Join(BaseDir, strings.ToLower(AppName)+".log")
	DbPath  = filepath.Join(BaseDir, strings.ToLower(AppName)+".db")
)

// SetBaseDir sets the BaseDir and the paths that depend on it, and
// makes sure the directory exists.
func SetBaseDir(path string) error {
	fmt.Printf("Setting BaseDir to %s\n", path)

	BaseDir = path
	LogPath = filepath.Join(BaseDir, strings.ToLower(AppName)+".log")
	DbPath = filepath.Join(BaseDir, strings.ToLower(AppName)+".db")

	if err := InitApp(); err != nil {
		fmt.Printf("Error initializing application environment: %s\n",
			err.Error())
		return err
	}

	return nil
} // func SetBaseDir(path string) error

// InitApp creates the BaseDir if it does not exist already.
func InitApp() error {
	var err error

	if err = os.Mkdir(BaseDir, 0700); err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("Error creating directory %s: %s",
				BaseDir,
				err.Error())
		}
	}

	return nil
} // func InitApp() error

// GetLogger returns a Logger for the given domain, writing both to
// stdout and the application's log file.
func GetLogger(dom logdomain.ID) (*log.Logger, error) {
	var (
		err     error
		logfile *os.File
		name    = fmt.Sprintf("%s.%s ",
			AppName,
			dom)
	)

	if err = InitApp(); err != nil {
		return nil, fmt.Errorf("Error initializing application environment: %s",
			err.Error())
	}

	if logfile, err = os.OpenFile(LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600); err != nil {
		return nil, fmt.Errorf("Error opening log file %s: %s",
			LogPath,
			err.Error())
	}

	var writer = io.MultiWriter(os.Stdout, logfile)
	var filter = &logutils.LevelFilter{
		Levels:   LogLevels,
		MinLevel: PackageLevels[dom],
		Writer:   writer,
	}

	return log.New(filter, name, log.Ldate|log.Ltime|log.Lshortfile), nil
} // func GetLogger(dom logdomain.ID) (*log.Logger, error)

// GetUUID returns a freshly generated UUID in string form.
func GetUUID() string {
	return uuid.NewRandom().String()
} // func GetUUID() string
