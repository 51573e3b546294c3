package hub

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
)

var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room // nil when absent
}

type RemoveRoom struct {
	Code string
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

// reapRoom is posted by a room's grace timer.
type reapRoom struct {
	Code string
	Room *room.Room
	Gen  uint64
}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}
func (reapRoom) isHubMsg()    {}

// Hub is the room store: the only owner of the code -> room map.
type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	template room.Options
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub starts the store loop. opts is copied into every room it creates;
// OnIdle is always replaced by the hub's reaper.
func NewHub(parent context.Context, opts room.Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		template: opts,
		log:      opts.Logger.Named("hub"),
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if rm := h.live(msg.Code); rm != nil {
					msg.Reply <- rm
					break
				}
				rm := h.create(msg.Code)
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.live(msg.Code) // May be nil

			case RemoveRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					rm.Shutdown()
					delete(h.rooms, msg.Code)
				}

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case reapRoom:
				// Nothing else can reach the map while the room decides.
				if h.rooms[msg.Code] != msg.Room {
					break
				}
				if msg.Room.TryExpire(h.ctx, msg.Gen) {
					delete(h.rooms, msg.Code)
					h.log.Info("room reaped", zap.String("room", msg.Code), zap.Int("rooms", len(h.rooms)))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// live returns the stored room unless it has already stopped.
func (h *Hub) live(code string) *room.Room {
	rm := h.rooms[code]
	if rm == nil {
		return nil
	}
	select {
	case <-rm.Done():
		delete(h.rooms, code)
		return nil
	default:
		return rm
	}
}

func (h *Hub) create(code string) *room.Room {
	opts := h.template
	opts.OnIdle = func(r *room.Room, gen uint64) {
		select {
		case h.inbox <- reapRoom{Code: code, Room: r, Gen: gen}:
		case <-h.ctx.Done():
		}
	}
	rm := room.New(h.ctx, code, opts)
	h.rooms[code] = rm
	h.log.Info("room created", zap.String("room", code), zap.Int("rooms", len(h.rooms)))
	return rm
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		rm.Shutdown()
		delete(h.rooms, code)
	}
	h.cancel()
}

// EnsureRoom returns the room for rawCode, creating it on first use.
func (h *Hub) EnsureRoom(ctx context.Context, rawCode string) (*room.Room, error) {
	code, err := game.NormalizeRoomID(rawCode)
	if err != nil {
		return nil, err
	}
	reply := make(chan *room.Room, 1)
	if err := h.send(ctx, EnsureRoom{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	return h.await(ctx, reply)
}

// GetRoom returns game.ErrRoomNotFound for unknown codes.
func (h *Hub) GetRoom(ctx context.Context, rawCode string) (*room.Room, error) {
	code, err := game.NormalizeRoomID(rawCode)
	if err != nil {
		return nil, err
	}
	reply := make(chan *room.Room, 1)
	if err := h.send(ctx, GetRoom{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	rm, err := h.await(ctx, reply)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, fmt.Errorf("room %s: %w", code, game.ErrRoomNotFound)
	}
	return rm, nil
}

func (h *Hub) RemoveRoom(ctx context.Context, rawCode string) error {
	code, err := game.NormalizeRoomID(rawCode)
	if err != nil {
		return err
	}
	return h.send(ctx, RemoveRoom{Code: code})
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(ctx, CountRooms{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-h.ctx.Done():
		return 0, ErrHubClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) await(ctx context.Context, reply chan *room.Room) (*room.Room, error) {
	select {
	case rm := <-reply:
		return rm, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
