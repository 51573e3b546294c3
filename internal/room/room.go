package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/history"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

var ErrClosed = errors.New("room closed")

const DefaultGracePeriod = 30 * time.Second

type msg interface{ isRoomMsg() }

type joinMsg struct {
	Member   *Member
	Identity string
	Reply    chan error
}

type pickRoleMsg struct {
	ConnID      string
	Identity    string
	Role        string
	DisplayName string
	Reply       chan error
}

type setWordMsg struct {
	ConnID   string
	Identity string
	Word     string
	Reply    chan error
}

type guessMsg struct {
	ConnID   string
	Identity string
	Letter   string
	Reply    chan error
}

type leaveMsg struct {
	ConnID string
	Reply  chan error
}

type viewMsg struct{ Reply chan View }

type expireMsg struct {
	Gen   uint64
	Reply chan bool
}

type shutdownMsg struct{}

func (joinMsg) isRoomMsg()     {}
func (pickRoleMsg) isRoomMsg() {}
func (setWordMsg) isRoomMsg()  {}
func (guessMsg) isRoomMsg()    {}
func (leaveMsg) isRoomMsg()    {}
func (viewMsg) isRoomMsg()     {}
func (expireMsg) isRoomMsg()   {}
func (shutdownMsg) isRoomMsg() {}

// View is a read-only copy of the room for tests and HTTP lookups.
type View struct {
	Snapshot        types.Snapshot
	Members         int
	LiveConnections int
	GraceArmed      bool
}

type Options struct {
	GracePeriod time.Duration
	Recorder    history.Recorder
	Logger      *zap.Logger
	// OnIdle runs on the timer goroutine when the grace period elapses. It
	// must not be called from the room loop. Defaults to TryExpire.
	OnIdle func(r *Room, gen uint64)
	Now    func() time.Time
}

// Room serializes every event for one game room through a single goroutine.
type Room struct {
	id      string
	inbox   chan msg
	state   *game.Room
	members map[string]*Member
	opts    Options
	log     *zap.Logger

	timer      *time.Timer
	timerGen   uint64
	timerArmed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, id string, opts Options) *Room {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.Recorder == nil {
		opts.Recorder = history.Nop()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnIdle == nil {
		opts.OnIdle = func(r *Room, gen uint64) { r.TryExpire(context.Background(), gen) }
	}

	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:      id,
		inbox:   make(chan msg, 64),
		state:   game.NewRoom(id, opts.Now()),
		members: make(map[string]*Member),
		opts:    opts,
		log:     opts.Logger.With(zap.String("room", id)),
		ctx:     ctx,
		cancel:  cancel,
	}

	// Nobody is here yet; an unjoined room expires like an abandoned one.
	r.armGrace()

	go r.loop()
	return r
}

func (r *Room) ID() string            { return r.id }
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case joinMsg:
				msg.Reply <- r.handleJoin(msg)

			case pickRoleMsg:
				msg.Reply <- r.handlePickRole(msg)

			case setWordMsg:
				msg.Reply <- r.handleSetWord(msg)

			case guessMsg:
				msg.Reply <- r.handleGuess(msg)

			case leaveMsg:
				r.handleLeave(msg.ConnID)
				msg.Reply <- nil

			case viewMsg:
				msg.Reply <- View{
					Snapshot:        r.state.Snapshot(),
					Members:         len(r.members),
					LiveConnections: r.state.LiveConnections(),
					GraceArmed:      r.timerArmed,
				}

			case expireMsg:
				expired := msg.Gen == r.timerGen && r.timerArmed && r.state.LiveConnections() == 0
				msg.Reply <- expired
				if expired {
					r.log.Info("room expired after grace period")
					r.shutdown()
					return
				}

			case shutdownMsg:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(m joinMsg) error {
	events, err := r.state.Join(m.Identity, m.Member.ConnID)
	if err != nil {
		r.log.Debug("join rejected", zap.String("identity", m.Identity), zap.Error(err))
		return err
	}

	r.cancelGrace()
	r.members[m.Member.ConnID] = m.Member
	r.log.Info("joined",
		zap.String("identity", m.Identity),
		zap.String("conn", m.Member.ConnID),
		zap.Bool("reconnect", game.ContainsEvent(events, game.EvtReconnected)))

	m.Member.deliver(types.ServerMessage{
		Type:     types.OutJoinAcknowledged,
		RoomID:   r.id,
		Identity: m.Identity,
	})
	r.broadcastSnapshot()
	return nil
}

func (r *Room) handlePickRole(m pickRoleMsg) error {
	if _, ok := r.members[m.ConnID]; !ok {
		return game.ErrNotAuthorized
	}
	_, err := r.state.PickRole(m.Identity, m.ConnID, game.Role(m.Role), m.DisplayName)
	if err != nil {
		return err
	}

	r.cancelGrace()
	r.log.Info("role assigned", zap.String("identity", m.Identity), zap.String("role", m.Role))
	r.broadcastSnapshot()
	return nil
}

func (r *Room) handleSetWord(m setWordMsg) error {
	if _, ok := r.members[m.ConnID]; !ok {
		return game.ErrNotAuthorized
	}
	if _, err := r.state.SetWord(m.Identity, m.Word); err != nil {
		return err
	}

	r.log.Info("round started", zap.Int("round", r.state.Round), zap.Int("length", len(r.state.Revealed)))
	r.broadcastSnapshot()
	return nil
}

func (r *Room) handleGuess(m guessMsg) error {
	if _, ok := r.members[m.ConnID]; !ok {
		return game.ErrNotAuthorized
	}
	events, err := r.state.Guess(m.Identity, m.Letter)
	if err != nil {
		return err
	}

	switch {
	case game.ContainsEvent(events, game.EvtGameWon):
		r.broadcast(types.ServerMessage{Type: types.OutGameWon, RoomID: r.id})
		r.recordRound()
	case game.ContainsEvent(events, game.EvtGameLost):
		r.broadcast(types.ServerMessage{Type: types.OutGameLost, RoomID: r.id})
		r.recordRound()
	}
	r.broadcastSnapshot()
	return nil
}

func (r *Room) handleLeave(connID string) {
	delete(r.members, connID)
	if events := r.state.Disconnect(connID); len(events) > 0 {
		r.log.Info("disconnected", zap.String("conn", connID), zap.String("phase", string(r.state.Phase)))
		r.broadcastSnapshot()
	}
	if r.state.LiveConnections() == 0 {
		r.armGrace()
	}
}

func (r *Room) recordRound() {
	res := history.RoundResult{
		RoomID:     r.id,
		Round:      r.state.Round,
		Word:       r.state.Secret(),
		Outcome:    string(r.state.Outcome),
		FailCount:  r.state.FailCount,
		FinishedAt: r.opts.Now(),
	}
	if p := r.state.Slots[game.RoleSetter]; p != nil {
		res.Setter = p.DisplayName
	}
	if p := r.state.Slots[game.RoleGuesser]; p != nil {
		res.Guesser = p.DisplayName
	}

	rec, log := r.opts.Recorder, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.Record(ctx, res); err != nil {
			log.Warn("record round failed", zap.Error(err))
		}
	}()
}

func (r *Room) broadcastSnapshot() {
	snap := r.state.Snapshot()
	r.broadcast(types.ServerMessage{Type: types.OutRoomSnapshot, RoomID: r.id, Snapshot: &snap})
}

func (r *Room) broadcast(m types.ServerMessage) {
	for id, member := range r.members {
		if !member.deliver(m) {
			// Client is slow/gone - drop it; its transport will report the disconnect.
			r.log.Warn("dropping member", zap.String("conn", id))
			member.Close()
			delete(r.members, id)
		}
	}
}

func (r *Room) armGrace() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timerGen++
	r.timerArmed = true
	gen := r.timerGen
	r.timer = time.AfterFunc(r.opts.GracePeriod, func() { r.opts.OnIdle(r, gen) })
}

// cancelGrace is a no-op when no timer is pending.
func (r *Room) cancelGrace() {
	if !r.timerArmed {
		return
	}
	r.timerArmed = false
	if r.timer != nil {
		r.timer.Stop()
	}
}

func (r *Room) shutdown() {
	r.cancelGrace()
	for id, member := range r.members {
		member.Close()
		delete(r.members, id)
	}
	r.cancel()
}
