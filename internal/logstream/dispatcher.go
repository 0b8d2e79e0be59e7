// Package logstream moves console output off the script goroutine and out to
// websocket clients.
package logstream

import (
	"sync"
	"sync/atomic"

	jscbridge "github.com/yejune/go-jsc-bridge"
)

// DefaultBuffer is the queue length used when a non-positive size is given
const DefaultBuffer = 256

// Dispatcher is a LogSink that hands entries to other sinks on its own
// goroutine. WriteEntry never blocks: when the queue is full the entry is
// dropped and counted.
type Dispatcher struct {
	queue   chan jscbridge.LogEntry
	quit    chan struct{}
	done    chan struct{}
	sinks   []jscbridge.LogSink
	dropped atomic.Uint64
	once    sync.Once
}

// NewDispatcher starts the delivery goroutine
func NewDispatcher(buffer int, sinks ...jscbridge.LogSink) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	d := &Dispatcher{
		queue: make(chan jscbridge.LogEntry, buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		sinks: sinks,
	}
	go d.run()
	return d
}

func (d *Dispatcher) WriteEntry(entry jscbridge.LogEntry) {
	select {
	case <-d.quit:
		d.dropped.Add(1)
		return
	default:
	}
	select {
	case d.queue <- entry:
	default:
		d.dropped.Add(1)
	}
}

// Dropped counts entries discarded because the queue was full or closed
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close delivers what is already queued and stops the goroutine
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.quit) })
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case entry := <-d.queue:
			d.deliver(entry)
		case <-d.quit:
			for {
				select {
				case entry := <-d.queue:
					d.deliver(entry)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(entry jscbridge.LogEntry) {
	for _, sink := range d.sinks {
		sink.WriteEntry(entry)
	}
}

type message struct {
	text  string
	fatal bool
}

// MessageQueue runs a UserMessageHandler on its own goroutine
type MessageQueue struct {
	fn    jscbridge.UserMessageHandler
	queue chan message
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// AsyncMessageHandler wraps fn so the manager never waits on it. Close the
// returned queue to flush pending messages and stop the goroutine.
func AsyncMessageHandler(fn jscbridge.UserMessageHandler, buffer int) (jscbridge.UserMessageHandler, *MessageQueue) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	q := &MessageQueue{
		fn:    fn,
		queue: make(chan message, buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return q.send, q
}

func (q *MessageQueue) send(text string, fatal bool) {
	select {
	case <-q.quit:
		return
	default:
	}
	select {
	case q.queue <- message{text: text, fatal: fatal}:
	default:
	}
}

// Close flushes queued messages and stops the goroutine
func (q *MessageQueue) Close() {
	q.once.Do(func() { close(q.quit) })
	<-q.done
}

func (q *MessageQueue) run() {
	defer close(q.done)
	for {
		select {
		case m := <-q.queue:
			q.fn(m.text, m.fatal)
		case <-q.quit:
			for {
				select {
				case m := <-q.queue:
					q.fn(m.text, m.fatal)
				default:
					return
				}
			}
		}
	}
}
