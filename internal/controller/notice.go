package controller

import (
	"errors"

	"github.com/DoyleJ11/hangman-rooms/internal/game"
	"github.com/DoyleJ11/hangman-rooms/pkg/types"
)

// NoticeFor turns a rejected event into the message for the originating
// connection. Nothing here is ever broadcast.
func NoticeFor(err error) types.ServerMessage {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return types.NewError(types.OutRoomFull, string(game.CodeRoomFull), "The room already has two players.")
	case errors.Is(err, game.ErrRepeatedLetter):
		return types.NewError(types.OutRepeatedLetterNotice, string(game.CodeRepeatedLetter), "You already tried that letter.")
	case errors.Is(err, ErrUnknownEvent):
		return types.NewError(types.OutErrorNotice, string(game.CodeBadRequest), err.Error())
	}

	code := game.CodeOf(err)
	msg := err.Error()
	if code == game.CodeInternal {
		msg = "internal error"
	}
	return types.NewError(types.OutErrorNotice, string(code), msg)
}
