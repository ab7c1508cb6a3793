// Package stream moves work between the render loop and the background
// terrain worker.
//
// A Link owns one request channel (render → worker) and four response
// channels split by payload class, so a flood of small updates never queues
// in front of a large height field and the render side can poll each class
// at its own cadence. Every operation on a Link is non-blocking.
package stream

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Faultbox/heightstream/internal/heightfield"
)

var (
	// ErrClosed is returned by sends after the link has been closed.
	ErrClosed = errors.New("stream: link closed")
	// ErrFull is returned when the receiving side has not kept up.
	ErrFull = errors.New("stream: channel full")
)

// Request asks the worker for one height field.
type Request struct {
	Descriptor heightfield.Descriptor
}

// WatchPoint is the duration of one named worker phase.
type WatchPoint struct {
	Name     string
	Duration time.Duration
}

// Telemetry is the medium-class message: worker timings for one tick.
type Telemetry struct {
	Tick        uint64
	WatchPoints []WatchPoint
}

// LightKind tags the payload of a LightUpdate.
type LightKind uint8

const (
	LightAnt LightKind = iota
	LightPointLight
)

// LightUpdate is the light-class message: one small, frequent state change.
type LightUpdate struct {
	Kind       LightKind
	Ant        Ant
	PointLight PointLight
}

// Notice is the critical-class message, reserved for worker failures the
// render side should surface.
type Notice struct {
	Session string
	Err     error
}

// Link is the channel set shared by the render loop and one worker.
type Link struct {
	requests chan Request
	heavy    chan heightfield.Heightfield
	medium   chan Telemetry
	light    chan LightUpdate
	critical chan Notice

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewLink creates a link with the given request and per-class response
// buffer sizes. Light updates get a larger buffer since they come in bursts.
func NewLink(requestBuffer, responseBuffer int) *Link {
	return &Link{
		requests: make(chan Request, requestBuffer),
		heavy:    make(chan heightfield.Heightfield, responseBuffer),
		medium:   make(chan Telemetry, 4),
		light:    make(chan LightUpdate, responseBuffer*4),
		critical: make(chan Notice, 4),
		done:     make(chan struct{}),
	}
}

// Close marks the link dead. Subsequent sends from either side fail with
// ErrClosed; queued messages can still be polled.
func (l *Link) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Closed reports whether Close has been called.
func (l *Link) Closed() bool {
	return l.closed.Load()
}

// Done is closed when the link is closed.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// SendRequest enqueues a height field request without blocking.
func (l *Link) SendRequest(d heightfield.Descriptor) error {
	return trySend(l, l.requests, Request{Descriptor: d})
}

// PendingRequests returns the number of requests the worker has not picked up.
func (l *Link) PendingRequests() int {
	return len(l.requests)
}

// PollHeavy returns the next finished height field, if any.
func (l *Link) PollHeavy() (heightfield.Heightfield, bool) {
	return tryRecv(l.heavy)
}

// PollMedium returns the next telemetry message, if any.
func (l *Link) PollMedium() (Telemetry, bool) {
	return tryRecv(l.medium)
}

// PollLight returns the next light update, if any.
func (l *Link) PollLight() (LightUpdate, bool) {
	return tryRecv(l.light)
}

// PollCritical returns the next critical notice, if any.
func (l *Link) PollCritical() (Notice, bool) {
	return tryRecv(l.critical)
}

func (l *Link) nextRequest() (Request, bool) {
	return tryRecv(l.requests)
}

func (l *Link) publishHeavy(hf heightfield.Heightfield) error {
	return trySend(l, l.heavy, hf)
}

func (l *Link) publishMedium(t Telemetry) error {
	return trySend(l, l.medium, t)
}

func (l *Link) publishLight(u LightUpdate) error {
	return trySend(l, l.light, u)
}

func (l *Link) publishCritical(n Notice) error {
	return trySend(l, l.critical, n)
}

// Data channels are never closed, so a late send cannot panic; the closed
// flag is what callers observe.
func trySend[T any](l *Link, ch chan T, v T) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case ch <- v:
		return nil
	default:
		return ErrFull
	}
}

func tryRecv[T any](ch chan T) (T, bool) {
	select {
	case v := <-ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
