package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-rooms/internal/controller"
	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/internal/room"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

const (
	writeTimeout = 3 * time.Second
	leaveTimeout = 2 * time.Second
	maxFrame     = 4 << 10
)

type Options struct {
	// OriginPatterns loosens the same-origin check, e.g. "localhost:*" in dev.
	OriginPatterns []string
	OutboxSize     int
	// IdleTimeout closes a connection that sends nothing for this long. Zero disables it.
	IdleTimeout time.Duration
}

func Handler(ctrl *controller.Controller, log *zap.Logger, opts Options) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 16
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(maxFrame)

		connID := uuid.NewString()
		member := room.NewMember(connID, opts.OutboxSize)
		clog := log.With(zap.String("conn", connID))
		clog.Debug("connected")

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
			defer cancel()
			ctrl.Disconnect(ctx, connID)
			clog.Debug("disconnected")
		}()

		// Notices for this connection only. The writer owns every conn.Write.
		direct := make(chan types.ServerMessage, 4)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go func() {
			defer cancel()
			for {
				var msg types.ServerMessage
				select {
				case <-ctx.Done():
					return
				case <-member.Done():
					// too slow, or the room shut down
					clog.Info("released by room")
					_ = conn.Close(websocket.StatusGoingAway, "room closed")
					return
				case msg = <-member.Outbox():
				case msg = <-direct:
				}
				if err := write(ctx, conn, msg); err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		reply := func(msg types.ServerMessage) {
			select {
			case direct <- msg:
			case <-ctx.Done():
			}
		}

		for {
			readCtx, readCancel := ctx, context.CancelFunc(func() {})
			if opts.IdleTimeout > 0 {
				readCtx, readCancel = context.WithTimeout(ctx, opts.IdleTimeout)
			}
			_, data, err := conn.Read(readCtx)
			readCancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				reply(types.NewError(types.OutErrorNotice, string(game.CodeBadRequest), "bad json"))
				continue
			}

			if err := ctrl.Dispatch(ctx, member, cm); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				clog.Debug("event rejected", zap.String("type", cm.Type), zap.Error(err))
				reply(controller.NoticeFor(err))
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
