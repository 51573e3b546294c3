package types

// Snapshot is the broadcast view of a room. It never carries the secret word.
type Snapshot struct {
	RoomID       string              `json:"roomId"`
	Phase        string              `json:"phase"`
	Roles        map[string]RoleView `json:"roles"`
	Revealed     []string            `json:"revealed"`
	WrongLetters []string            `json:"wrongLetters"`
	FailCount    int                 `json:"failCount"`
	MaxFails     int                 `json:"maxFails"`
	Outcome      string              `json:"outcome,omitempty"`
	Round        int                 `json:"round"`
}

type RoleView struct {
	Taken       bool   `json:"taken"`
	DisplayName string `json:"displayName,omitempty"`
}
