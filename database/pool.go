// /home/krylon/go/src/github.com/blicero/ariadne/database/pool.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 03. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-03-19 14:42:21 krylon>

package database

import (
	"log"
	"sync"

	"github.com/blicero/ariadne/common"
	"github.com/blicero/ariadne/logdomain"
)

// Pool is a pool of database connections.
type Pool struct {
	lock sync.Mutex
	cond *sync.Cond
	log  *log.Logger
	pool []*Database
}

// NewPool creates a Pool of the given size, opening the connections
// right away.
func NewPool(cnt int) (*Pool, error) {
	var (
		err  error
		pool = &Pool{
			pool: make([]*Database, 0, cnt),
		}
	)

	pool.cond = sync.NewCond(&pool.lock)

	if pool.log, err = common.GetLogger(logdomain.DBPool); err != nil {
		return nil, err
	}

	for i := 0; i < cnt; i++ {
		var db *Database

		if db, err = Open(common.DbPath); err != nil {
			pool.log.Printf("[ERROR] Cannot open database at %s: %s\n",
				common.DbPath,
				err.Error())
			return nil, err
		}

		pool.pool = append(pool.pool, db)
	}

	return pool, nil
} // func NewPool(cnt int) (*Pool, error)

// Get returns a database connection from the Pool, blocking until one
// becomes available if the Pool is currently empty.
func (p *Pool) Get() *Database {
	p.lock.Lock()
	defer p.lock.Unlock()

	for len(p.pool) == 0 {
		p.cond.Wait()
	}

	var db = p.pool[len(p.pool)-1]
	p.pool = p.pool[:len(p.pool)-1]

	return db
} // func (p *Pool) Get() *Database

// Put returns a database connection to the Pool.
func (p *Pool) Put(db *Database) {
	p.lock.Lock()
	p.pool = append(p.pool, db)
	p.cond.Signal()
	p.lock.Unlock()
} // func (p *Pool) Put(db *Database)

// Close closes all connections currently in the Pool.
func (p *Pool) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	for _, db := range p.pool {
		var err error

		if err = db.Close(); err != nil {
			p.log.Printf("[ERROR] Cannot close database: %s\n",
				err.Error())
			return err
		}
	}

	p.pool = p.pool[:0]
	return nil
} // func (p *Pool) Close() error
