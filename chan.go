package paint

import (
	"errors"
	"sync"
)

// ErrTaskExited is returned by Chan.TrySend, and carried by the panic of
// Chan.Send, once the receiving task has exited.
var ErrTaskExited = errors.New("paint: task has exited")

// mailbox is the state shared by a Port and its Chans.
type mailbox struct {
	ch     chan Msg
	exited chan struct{}
	once   sync.Once

	// mu is held for reading by senders for the duration of a send and
	// for writing by close, so no send is in flight once closed is set.
	mu     sync.RWMutex
	closed bool
}

// Port is the receiving end of a task mailbox. It is handed to Create and
// must be used by exactly one task.
type Port struct {
	mb *mailbox
}

// Chan is the sending end of a task mailbox. Chan values are cheap to
// copy and safe for concurrent use.
type Chan struct {
	mb *mailbox
}

// NewChan creates a task mailbox holding up to capacity pending messages.
// A capacity below 1 selects DefaultMailboxSize.
func NewChan(capacity int) (*Port, Chan) {
	if capacity < 1 {
		capacity = DefaultMailboxSize
	}
	mb := &mailbox{
		ch:     make(chan Msg, capacity),
		exited: make(chan struct{}),
	}
	return &Port{mb: mb}, Chan{mb: mb}
}

// Send delivers m to the task, blocking while the mailbox is full.
//
// The task must outlive every sender: sending to a task that has exited
// is a protocol violation and panics with ErrTaskExited.
func (c Chan) Send(m Msg) {
	if err := c.TrySend(m); err != nil {
		panic(err)
	}
}

// TrySend delivers m to the task, or returns ErrTaskExited if the task
// has exited.
//
// A task stops receiving before it acknowledges an Exit, so every send
// that happens after the acknowledgement fails. A message queued while
// the task was already deciding to exit is accepted and then dropped;
// the task logs how many it dropped.
func (c Chan) TrySend(m Msg) error {
	mb := c.mb
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrTaskExited
	}
	select {
	case <-mb.exited:
		return ErrTaskExited
	default:
	}
	select {
	case mb.ch <- m:
		return nil
	case <-mb.exited:
		return ErrTaskExited
	}
}

// Exited returns a channel that is closed once the task stops receiving.
func (c Chan) Exited() <-chan struct{} {
	return c.mb.exited
}

// recv blocks until the next message arrives.
func (p *Port) recv() Msg {
	return <-p.mb.ch
}

// close marks the port as no longer receiving and returns the number of
// queued messages it discarded. Only the first call discards anything.
func (p *Port) close() int {
	mb := p.mb
	// Wake senders blocked on a full mailbox before waiting for them.
	mb.once.Do(func() { close(mb.exited) })

	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return 0
	}
	mb.closed = true
	dropped := 0
	for {
		select {
		case <-mb.ch:
			dropped++
		default:
			return dropped
		}
	}
}
