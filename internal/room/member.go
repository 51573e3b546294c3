package room

import (
	"sync"

	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

// Member is one connection's delivery handle. The outbox is never closed;
// Done is closed instead once the room stops delivering to it.
type Member struct {
	ConnID string

	out  chan types.ServerMessage
	done chan struct{}
	once sync.Once
}

func NewMember(connID string, buffer int) *Member {
	if buffer < 1 {
		buffer = 1
	}
	return &Member{
		ConnID: connID,
		out:    make(chan types.ServerMessage, buffer),
		done:   make(chan struct{}),
	}
}

func (m *Member) Outbox() <-chan types.ServerMessage { return m.out }
func (m *Member) Done() <-chan struct{}              { return m.done }

func (m *Member) Close() { m.once.Do(func() { close(m.done) }) }

// deliver never blocks; false means the member is gone or too far behind.
func (m *Member) deliver(msg types.ServerMessage) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.out <- msg:
		return true
	default:
		return false
	}
}
