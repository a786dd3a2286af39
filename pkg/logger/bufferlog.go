// Package logger implements a per-request in-memory log buffer.
//
// Detail lines are buffered while a calculation runs.
//   - On failure the buffer is replayed, followed by the error.
//   - On success the buffer is dropped and one short line is written.
//
// A single goroutine owns the buffers; callers only send commands.
package logger

import (
	"bytes"
	"log"
	"strings"
)

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
	actSync
)

type cmd struct {
	act     action
	id      string
	message string
	err     error
	done    chan struct{}
}

var ch = make(chan cmd, 128)

// Begin starts buffering for id.
func Begin(id string) { ch <- cmd{act: actBegin, id: id} }

// Append adds a detail line. Without a buffer the line is logged directly.
func Append(id, msg string) { ch <- cmd{act: actAppend, id: id, message: msg} }

// Success drops the buffer and logs a one-line summary.
func Success(id, summary string) { ch <- cmd{act: actSuccess, id: id, message: summary} }

// FlushError replays the buffer and logs the final error.
func FlushError(id string, err error) { ch <- cmd{act: actFlushErr, id: id, err: err} }

// Sync blocks until every command sent before it has been written.
func Sync() {
	done := make(chan struct{})
	ch <- cmd{act: actSync, done: done}
	<-done
}

func init() { go runloop() }

func runloop() {
	buffers := make(map[string]*bytes.Buffer)

	for c := range ch {
		switch c.act {
		case actBegin:
			buffers[c.id] = &bytes.Buffer{}

		case actAppend:
			if b := buffers[c.id]; b != nil {
				_, _ = b.WriteString(c.message + "\n")
			} else {
				log.Print(c.message)
			}

		case actSuccess:
			log.Printf("[%.8s][calc] ✔ %s", c.id, c.message)
			delete(buffers, c.id)

		case actFlushErr:
			if b := buffers[c.id]; b != nil {
				for _, ln := range strings.Split(strings.TrimRight(b.String(), "\n"), "\n") {
					if ln != "" {
						log.Printf("[%.8s] %s", c.id, ln)
					}
				}
				delete(buffers, c.id)
			}
			log.Printf("[%.8s][ERROR] %v", c.id, c.err)

		case actSync:
			close(c.done)
		}
	}
}
