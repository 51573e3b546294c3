package game

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSetter  Role = "roleA"
	RoleGuesser Role = "roleB"
)

var Roles = []Role{RoleSetter, RoleGuesser}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSetter, RoleGuesser:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseAwaitingWord Phase = "awaiting_word"
	PhasePlaying      Phase = "playing"
	PhaseAborted      Phase = "aborted"
)

type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

const (
	MaxFails        = 6
	Placeholder     = '_'
	maxDisplayName  = 32
	maxIdentityLen  = 128
	maxRoomIDLength = 64
)

// Player occupies a slot. ConnRef is empty while the player is disconnected;
// identity and name survive so the slot can be reclaimed.
type Player struct {
	Identity    string
	DisplayName string
	ConnRef     string
}

func (p *Player) Live() bool { return p != nil && p.ConnRef != "" }

type Room struct {
	ID        string
	Phase     Phase
	Slots     map[Role]*Player
	Revealed  []rune
	Wrong     []rune
	FailCount int
	MaxFails  int
	Outcome   Outcome
	Round     int
	CreatedAt time.Time

	// identity -> live connection ref; "" once that connection drops.
	Connections map[string]string

	secret string
}

// NormalizeRoomID trims and upper-cases id.
func NormalizeRoomID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" || len(id) > maxRoomIDLength {
		return "", ErrInvalidRoomID
	}
	return id, nil
}

func NewRoom(id string, now time.Time) *Room {
	return &Room{
		ID:          id,
		Phase:       PhaseLobby,
		Slots:       map[Role]*Player{RoleSetter: nil, RoleGuesser: nil},
		Revealed:    []rune{},
		Wrong:       []rune{},
		MaxFails:    MaxFails,
		CreatedAt:   now,
		Connections: map[string]string{},
	}
}

// Secret is the current word. It stays on the server.
func (r *Room) Secret() string { return r.secret }

func (r *Room) LiveConnections() int {
	n := 0
	for _, ref := range r.Connections {
		if ref != "" {
			n++
		}
	}
	return n
}

// occupies reports whether identity counts against capacity: it is live or
// still holds a seat it can reclaim.
func (r *Room) occupies(identity string) bool {
	if r.Connections[identity] != "" {
		return true
	}
	_, seated := r.RoleOf(identity)
	return seated
}

func (r *Room) occupants() int {
	n := 0
	for identity := range r.Connections {
		if r.occupies(identity) {
			n++
		}
	}
	return n
}

// boundTo reports the identity connRef is the live reference of, or "".
func (r *Room) boundTo(connRef string) string {
	for identity, ref := range r.Connections {
		if ref == connRef {
			return identity
		}
	}
	return ""
}

// Occupant reports the live player in role, or nil.
func (r *Room) Occupant(role Role) *Player {
	if p := r.Slots[role]; p.Live() {
		return p
	}
	return nil
}

// RoleOf reports which slot identity holds, live or not.
func (r *Room) RoleOf(identity string) (Role, bool) {
	for _, role := range Roles {
		if p := r.Slots[role]; p != nil && p.Identity == identity {
			return role, true
		}
	}
	return "", false
}

func (r *Room) HasPlaceholder() bool {
	for _, c := range r.Revealed {
		if c == Placeholder {
			return true
		}
	}
	return false
}

func (r *Room) tried(letter rune) bool {
	for _, c := range r.Revealed {
		if c == letter {
			return true
		}
	}
	for _, c := range r.Wrong {
		if c == letter {
			return true
		}
	}
	return false
}

func validIdentity(identity string) bool {
	return identity != "" && len(identity) <= maxIdentityLen
}

func cleanDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxDisplayName {
		name = string(r[:maxDisplayName])
	}
	return name
}
