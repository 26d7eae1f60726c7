// /home/krylon/go/src/github.com/blicero/ariadne/agent/00_agent_main_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 16. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-16 18:21:09 krylon>

package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blicero/ariadne/common"
)

func TestMain(m *testing.M) {
	var baseDir = filepath.Join(
		os.TempDir(),
		fmt.Sprintf("ariadne_agent_test_%d", time.Now().Unix()))

	if err := common.SetBaseDir(baseDir); err != nil {
		fmt.Printf("Cannot set BaseDir to %s: %s\n",
			baseDir,
			err.Error())
		os.Exit(1)
	}

	var result = m.Run()

	os.RemoveAll(baseDir) // nolint: errcheck
	os.Exit(result)
} // func TestMain(m *testing.M)
