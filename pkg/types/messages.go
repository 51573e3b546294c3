package types

// Client -> Server
const (
	InJoin        = "join"
	InPickRole    = "pickRole"
	InSetWord     = "setWord"
	InGuessLetter = "guessLetter"
)

// Server -> Client
const (
	OutJoinAcknowledged     = "joinAcknowledged"
	OutRoomFull             = "roomFull"
	OutRoomSnapshot         = "roomSnapshot"
	OutGameWon              = "gameWon"
	OutGameLost             = "gameLost"
	OutRepeatedLetterNotice = "repeatedLetterNotice"
	OutErrorNotice          = "errorNotice"
)

type ClientMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	Identity    string `json:"identity"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Word        string `json:"word,omitempty"`
	Letter      string `json:"letter,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ServerMessage struct {
	Type     string     `json:"type"`
	RoomID   string     `json:"roomId,omitempty"`
	Identity string     `json:"identity,omitempty"`
	Snapshot *Snapshot  `json:"snapshot,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
}

func NewError(kind, code, message string) ServerMessage {
	return ServerMessage{Type: kind, Error: &ErrorBody{Code: code, Message: message}}
}
