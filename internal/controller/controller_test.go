package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/hub"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

func newController(t *testing.T, grace time.Duration) *Controller {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, room.Options{GracePeriod: grace})
	return New(h, zap.NewNop())
}

// drain collects everything currently queued for m, waiting briefly for stragglers.
func drain(m *room.Member) []types.ServerMessage {
	var out []types.ServerMessage
	for {
		select {
		case msg := <-m.Outbox():
			out = append(out, msg)
		case <-time.After(30 * time.Millisecond):
			return out
		}
	}
}

func lastSnapshot(t *testing.T, msgs []types.ServerMessage) types.Snapshot {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == types.OutRoomSnapshot {
			return *msgs[i].Snapshot
		}
	}
	t.Fatalf("no snapshot in %+v", msgs)
	return types.Snapshot{}
}

func count(msgs []types.ServerMessage, kind string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == kind {
			n++
		}
	}
	return n
}

func send(t *testing.T, c *Controller, m *room.Member, msg types.ClientMessage) {
	t.Helper()
	require.NoError(t, c.Dispatch(context.Background(), m, msg))
}

func TestScenario_GatoEndToEnd(t *testing.T) {
	c := newController(t, time.Second)
	ana, bob := room.NewMember("c1", 64), room.NewMember("c2", 64)

	send(t, c, ana, types.ClientMessage{Type: types.InJoin, RoomID: "R1", Identity: "u1"})
	send(t, c, ana, types.ClientMessage{Type: types.InPickRole, RoomID: "R1", Identity: "u1", Role: "roleA", DisplayName: "Ana"})
	send(t, c, bob, types.ClientMessage{Type: types.InJoin, RoomID: "r1", Identity: "u2"})
	send(t, c, bob, types.ClientMessage{Type: types.InPickRole, RoomID: "R1", Identity: "u2", Role: "roleB", DisplayName: "Bob"})

	snap := lastSnapshot(t, drain(bob))
	assert.Equal(t, "awaiting_word", snap.Phase)
	assert.True(t, snap.Roles["roleA"].Taken)
	assert.True(t, snap.Roles["roleB"].Taken)

	send(t, c, ana, types.ClientMessage{Type: types.InSetWord, RoomID: "R1", Identity: "u1", Word: "GATO"})
	snap = lastSnapshot(t, drain(bob))
	assert.Equal(t, "playing", snap.Phase)
	assert.Equal(t, []string{"_", "_", "_", "_"}, snap.Revealed)

	steps := []struct {
		letter   string
		revealed []string
		wrong    []string
		fails    int
	}{
		{"G", []string{"G", "_", "_", "_"}, []string{}, 0},
		{"Z", []string{"G", "_", "_", "_"}, []string{"Z"}, 1},
		{"A", []string{"G", "A", "_", "_"}, []string{"Z"}, 1},
		{"T", []string{"G", "A", "T", "_"}, []string{"Z"}, 1},
	}
	for _, s := range steps {
		send(t, c, bob, types.ClientMessage{Type: types.InGuessLetter, RoomID: "R1", Identity: "u2", Letter: s.letter})
		snap = lastSnapshot(t, drain(bob))
		assert.Equal(t, s.revealed, snap.Revealed, "after %s", s.letter)
		assert.Equal(t, s.wrong, snap.WrongLetters, "after %s", s.letter)
		assert.Equal(t, s.fails, snap.FailCount, "after %s", s.letter)
	}

	drain(ana)
	send(t, c, bob, types.ClientMessage{Type: types.InGuessLetter, RoomID: "R1", Identity: "u2", Letter: "O"})
	for _, m := range []*room.Member{ana, bob} {
		msgs := drain(m)
		assert.Equal(t, 1, count(msgs, types.OutGameWon))
		snap = lastSnapshot(t, msgs)
		assert.Equal(t, []string{"G", "A", "T", "O"}, snap.Revealed)
		assert.Equal(t, "won", snap.Outcome)
	}
}

func TestController_ErrorsStayWithOriginator(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()
	ana, bob := room.NewMember("c1", 64), room.NewMember("c2", 64)

	require.NoError(t, c.Join(ctx, ana, "R1", "u1"))
	require.NoError(t, c.PickRole(ctx, "c1", "R1", "u1", "roleA", "Ana"))
	require.NoError(t, c.Join(ctx, bob, "R1", "u2"))
	drain(ana)
	drain(bob)

	err := c.PickRole(ctx, "c2", "R1", "u2", "roleA", "Bob")
	require.ErrorIs(t, err, game.ErrRoleTaken)
	err = c.SetWord(ctx, "c2", "R1", "u2", "gato")
	require.ErrorIs(t, err, game.ErrNotAuthorized)

	assert.Empty(t, drain(ana))
	assert.Empty(t, drain(bob))
}

func TestController_RoomFull(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Join(ctx, room.NewMember("c1", 8), "R1", "u1"))
	require.NoError(t, c.Join(ctx, room.NewMember("c2", 8), "R1", "u2"))

	third := room.NewMember("c3", 8)
	err := c.Join(ctx, third, "R1", "u3")
	require.ErrorIs(t, err, game.ErrRoomFull)
	assert.Empty(t, c.RoomOf("c3"))
	assert.Equal(t, types.OutRoomFull, NoticeFor(err).Type)
}

func TestController_UnknownRoom(t *testing.T) {
	c := newController(t, time.Second)
	err := c.GuessLetter(context.Background(), "c1", "NOPE", "u2", "a")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestController_ReconnectRestoresSlot(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()
	ana, bob := room.NewMember("c1", 64), room.NewMember("c2", 64)

	require.NoError(t, c.Join(ctx, ana, "R1", "u1"))
	require.NoError(t, c.PickRole(ctx, "c1", "R1", "u1", "roleA", "Ana"))
	require.NoError(t, c.Join(ctx, bob, "R1", "u2"))
	require.NoError(t, c.PickRole(ctx, "c2", "R1", "u2", "roleB", "Bob"))
	require.NoError(t, c.SetWord(ctx, "c1", "R1", "u1", "luna"))
	require.NoError(t, c.GuessLetter(ctx, "c2", "R1", "u2", "u"))

	c.Disconnect(ctx, "c2")
	assert.Empty(t, c.RoomOf("c2"))
	snap := lastSnapshot(t, drain(ana))
	assert.Equal(t, "aborted", snap.Phase)

	// u2 comes back on a new connection
	bob2 := room.NewMember("c3", 64)
	require.NoError(t, c.Join(ctx, bob2, "R1", "u2"))
	require.NoError(t, c.PickRole(ctx, "c3", "R1", "u2", "roleB", ""))

	snap = lastSnapshot(t, drain(bob2))
	assert.Equal(t, "playing", snap.Phase)
	assert.Equal(t, "Bob", snap.Roles["roleB"].DisplayName)
	assert.Equal(t, []string{"_", "U", "_", "_"}, snap.Revealed)

	err := c.Join(ctx, room.NewMember("c4", 8), "R1", "u3")
	assert.ErrorIs(t, err, game.ErrRoomFull)
}

func TestController_NewcomerCannotTakeDroppedSeat(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Join(ctx, room.NewMember("c1", 64), "R1", "u1"))
	require.NoError(t, c.PickRole(ctx, "c1", "R1", "u1", "roleA", "Ana"))
	require.NoError(t, c.Join(ctx, room.NewMember("c2", 64), "R1", "u2"))
	require.NoError(t, c.PickRole(ctx, "c2", "R1", "u2", "roleB", "Bob"))
	require.NoError(t, c.SetWord(ctx, "c1", "R1", "u1", "gato"))
	c.Disconnect(ctx, "c2")

	eve := room.NewMember("c3", 8)
	err := c.Join(ctx, eve, "R1", "u3")
	require.ErrorIs(t, err, game.ErrRoomFull)
	assert.Empty(t, c.RoomOf("c3"))

	bob := room.NewMember("c4", 64)
	require.NoError(t, c.Join(ctx, bob, "R1", "u2"))
	snap := lastSnapshot(t, drain(bob))
	assert.Equal(t, "playing", snap.Phase)
	assert.Equal(t, "Bob", snap.Roles["roleB"].DisplayName)
}

func TestController_SecondIdentityOnSameConnection(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()
	m := room.NewMember("c1", 64)

	require.NoError(t, c.Join(ctx, m, "R1", "u1"))
	err := c.Join(ctx, m, "R1", "u2")
	require.ErrorIs(t, err, game.ErrNotAuthorized)

	require.NoError(t, c.Join(ctx, room.NewMember("c2", 8), "R1", "u2"))
	n, err := c.LiveConnections(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestController_GraceExpiryDeletesRoom(t *testing.T) {
	c := newController(t, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, c.Join(ctx, room.NewMember("c1", 8), "R1", "u1"))
	c.Disconnect(ctx, "c1")

	require.Eventually(t, func() bool {
		_, err := c.Snapshot(ctx, "R1")
		return err != nil
	}, time.Second, 10*time.Millisecond)

	_, err := c.Snapshot(ctx, "R1")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	n, err := c.RoomCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestController_JoinOtherRoomLeavesPrevious(t *testing.T) {
	c := newController(t, time.Second)
	ctx := context.Background()
	m := room.NewMember("c1", 64)

	require.NoError(t, c.Join(ctx, m, "R1", "u1"))
	require.NoError(t, c.Join(ctx, m, "R2", "u1"))
	assert.Equal(t, "R2", c.RoomOf("c1"))

	// u1 no longer counts toward R1's capacity
	require.NoError(t, c.Join(ctx, room.NewMember("c2", 8), "R1", "u2"))
	require.NoError(t, c.Join(ctx, room.NewMember("c3", 8), "R1", "u3"))
}

func TestController_UnknownEvent(t *testing.T) {
	c := newController(t, time.Second)
	err := c.Dispatch(context.Background(), room.NewMember("c1", 1), types.ClientMessage{Type: "dance"})
	require.ErrorIs(t, err, ErrUnknownEvent)

	notice := NoticeFor(err)
	assert.Equal(t, types.OutErrorNotice, notice.Type)
	assert.Equal(t, "BadRequest", notice.Error.Code)
}

func TestNoticeFor(t *testing.T) {
	cases := []struct {
		err      error
		wantType string
		wantCode string
	}{
		{game.ErrRoomFull, types.OutRoomFull, "RoomFull"},
		{game.ErrRepeatedLetter, types.OutRepeatedLetterNotice, "RepeatedLetter"},
		{game.ErrRoleTaken, types.OutErrorNotice, "RoleTaken"},
		{game.ErrInvalidWord, types.OutErrorNotice, "InvalidWord"},
		{game.ErrNotPlaying, types.OutErrorNotice, "NotPlaying"},
		{assert.AnError, types.OutErrorNotice, "Internal"},
	}
	for _, tc := range cases {
		t.Run(tc.wantCode, func(t *testing.T) {
			n := NoticeFor(tc.err)
			assert.Equal(t, tc.wantType, n.Type)
			require.NotNil(t, n.Error)
			assert.Equal(t, tc.wantCode, n.Error.Code)
		})
	}
}
