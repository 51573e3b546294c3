package game

import "errors"

var ErrRoomFull = errors.New("room already has two players")
var ErrRoleTaken = errors.New("role is held by another player")
var ErrNotAuthorized = errors.New("identity may not perform this action")
var ErrInvalidWord = errors.New("word must have between 3 and 20 letters")
var ErrInvalidLetter = errors.New("guess must be a single letter")
var ErrRepeatedLetter = errors.New("letter already tried")
var ErrNotPlaying = errors.New("no round in progress")
var ErrRoomNotFound = errors.New("room not found")
var ErrInvalidRole = errors.New("unknown role")
var ErrInvalidRoomID = errors.New("invalid room id")

// Code is the wire-level name of a rejection.
type Code string

const (
	CodeRoomFull       Code = "RoomFull"
	CodeRoleTaken      Code = "RoleTaken"
	CodeNotAuthorized  Code = "NotAuthorized"
	CodeInvalidWord    Code = "InvalidWord"
	CodeInvalidLetter  Code = "InvalidLetter"
	CodeRepeatedLetter Code = "RepeatedLetter"
	CodeNotPlaying     Code = "NotPlaying"
	CodeRoomNotFound   Code = "RoomNotFound"
	CodeInvalidRole    Code = "InvalidRole"
	CodeInvalidRoomID  Code = "InvalidRoomID"
	CodeBadRequest     Code = "BadRequest"
	CodeInternal       Code = "Internal"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrRoomFull, CodeRoomFull},
	{ErrRoleTaken, CodeRoleTaken},
	{ErrNotAuthorized, CodeNotAuthorized},
	{ErrInvalidWord, CodeInvalidWord},
	{ErrInvalidLetter, CodeInvalidLetter},
	{ErrRepeatedLetter, CodeRepeatedLetter},
	{ErrNotPlaying, CodeNotPlaying},
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrInvalidRole, CodeInvalidRole},
	{ErrInvalidRoomID, CodeInvalidRoomID},
}

// CodeOf maps err (possibly wrapped) to its wire code. Errors outside the
// game taxonomy map to CodeInternal.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
