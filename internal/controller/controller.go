package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/hub"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

var ErrUnknownEvent = errors.New("unknown event type")

// rooms can expire between lookup and delivery; retry on a fresh one
const joinAttempts = 3

// Controller routes connection events to rooms and remembers which room each
// connection belongs to. A connection is a member of at most one room.
type Controller struct {
	hub *hub.Hub
	log *zap.Logger

	mu          sync.Mutex
	memberships map[string]*room.Room
}

func New(h *hub.Hub, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		hub:         h,
		log:         log.Named("controller"),
		memberships: make(map[string]*room.Room),
	}
}

// Dispatch applies one inbound event from m.
func (c *Controller) Dispatch(ctx context.Context, m *room.Member, msg types.ClientMessage) error {
	switch msg.Type {
	case types.InJoin:
		return c.Join(ctx, m, msg.RoomID, msg.Identity)
	case types.InPickRole:
		return c.PickRole(ctx, m.ConnID, msg.RoomID, msg.Identity, msg.Role, msg.DisplayName)
	case types.InSetWord:
		return c.SetWord(ctx, m.ConnID, msg.RoomID, msg.Identity, msg.Word)
	case types.InGuessLetter:
		return c.GuessLetter(ctx, m.ConnID, msg.RoomID, msg.Identity, msg.Letter)
	default:
		return fmt.Errorf("%q: %w", msg.Type, ErrUnknownEvent)
	}
}

func (c *Controller) Join(ctx context.Context, m *room.Member, roomID, identity string) error {
	code, err := game.NormalizeRoomID(roomID)
	if err != nil {
		return err
	}

	if prev := c.membership(m.ConnID); prev != nil && prev.ID() != code {
		c.leave(ctx, m.ConnID, prev)
	}

	for attempt := 0; attempt < joinAttempts; attempt++ {
		rm, err := c.hub.EnsureRoom(ctx, code)
		if err != nil {
			return err
		}
		err = rm.Join(ctx, m, identity)
		if errors.Is(err, room.ErrClosed) {
			continue
		}
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.memberships[m.ConnID] = rm
		c.mu.Unlock()
		return nil
	}
	return fmt.Errorf("join %s: %w", code, room.ErrClosed)
}

func (c *Controller) PickRole(ctx context.Context, connID, roomID, identity, role, displayName string) error {
	return c.withRoom(ctx, roomID, func(rm *room.Room) error {
		return rm.PickRole(ctx, connID, identity, role, displayName)
	})
}

func (c *Controller) SetWord(ctx context.Context, connID, roomID, identity, word string) error {
	return c.withRoom(ctx, roomID, func(rm *room.Room) error {
		return rm.SetWord(ctx, connID, identity, word)
	})
}

func (c *Controller) GuessLetter(ctx context.Context, connID, roomID, identity, letter string) error {
	return c.withRoom(ctx, roomID, func(rm *room.Room) error {
		return rm.GuessLetter(ctx, connID, identity, letter)
	})
}

// Disconnect is called by the transport when connID goes away.
func (c *Controller) Disconnect(ctx context.Context, connID string) {
	if rm := c.membership(connID); rm != nil {
		c.leave(ctx, connID, rm)
	}
}

func (c *Controller) Snapshot(ctx context.Context, roomID string) (types.Snapshot, error) {
	var snap types.Snapshot
	err := c.withRoom(ctx, roomID, func(rm *room.Room) error {
		v, err := rm.View(ctx)
		snap = v.Snapshot
		return err
	})
	return snap, err
}

func (c *Controller) LiveConnections(ctx context.Context, roomID string) (int, error) {
	var n int
	err := c.withRoom(ctx, roomID, func(rm *room.Room) error {
		v, err := rm.View(ctx)
		n = v.LiveConnections
		return err
	})
	return n, err
}

// RoomExists is used when minting codes.
func (c *Controller) RoomExists(ctx context.Context, roomID string) (bool, error) {
	_, err := c.hub.GetRoom(ctx, roomID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, game.ErrRoomNotFound):
		return false, nil
	default:
		return false, err
	}
}

// CreateRoom opens an empty room under code. It expires after the grace
// period if nobody joins.
func (c *Controller) CreateRoom(ctx context.Context, code string) error {
	_, err := c.hub.EnsureRoom(ctx, code)
	return err
}

// RoomOf reports the room connID currently belongs to, or "".
func (c *Controller) RoomOf(connID string) string {
	if rm := c.membership(connID); rm != nil {
		return rm.ID()
	}
	return ""
}

func (c *Controller) RoomCount(ctx context.Context) (int, error) {
	return c.hub.Count(ctx)
}

func (c *Controller) withRoom(ctx context.Context, roomID string, fn func(*room.Room) error) error {
	rm, err := c.hub.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	err = fn(rm)
	if errors.Is(err, room.ErrClosed) {
		return fmt.Errorf("room %s: %w", rm.ID(), game.ErrRoomNotFound)
	}
	return err
}

func (c *Controller) membership(connID string) *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memberships[connID]
}

func (c *Controller) leave(ctx context.Context, connID string, rm *room.Room) {
	c.mu.Lock()
	if c.memberships[connID] == rm {
		delete(c.memberships, connID)
	}
	c.mu.Unlock()

	if err := rm.Leave(ctx, connID); err != nil && !errors.Is(err, room.ErrClosed) {
		c.log.Warn("leave failed", zap.String("room", rm.ID()), zap.String("conn", connID), zap.Error(err))
	}
}
