package game

type EventType string

const (
	EvtJoined         EventType = "Joined"
	EvtReconnected    EventType = "Reconnected"
	EvtRoleAssigned   EventType = "RoleAssigned"
	EvtDisconnected   EventType = "Disconnected"
	EvtPhaseChanged   EventType = "PhaseChanged"
	EvtWordSet        EventType = "WordSet"
	EvtLetterRevealed EventType = "LetterRevealed"
	EvtLetterMissed   EventType = "LetterMissed"
	EvtGameWon        EventType = "GameWon"
	EvtGameLost       EventType = "GameLost"
)

type Event struct {
	Type     EventType
	Identity string
	Role     Role
	Letter   rune
	Phase    Phase
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

/*
	Join         -> Joined | Reconnected -> (PhaseChanged)
	PickRole     -> RoleAssigned -> (PhaseChanged)
	SetWord      -> WordSet -> (PhaseChanged)
	Guess        -> LetterRevealed | LetterMissed -> (GameWon | GameLost)
	Disconnect   -> Disconnected... -> (PhaseChanged)

Every method validates before touching the room; a returned error means the
room is unchanged.
*/

// Join binds identity to connRef. An identity that is live or still holds a
// seat only has its connection refreshed; anyone else needs a free capacity
// unit, and a disconnected player's seat keeps its unit until the room expires.
func (r *Room) Join(identity, connRef string) ([]Event, error) {
	if !validIdentity(identity) || connRef == "" {
		return nil, ErrNotAuthorized
	}
	if other := r.boundTo(connRef); other != "" && other != identity {
		return nil, ErrNotAuthorized
	}

	_, known := r.Connections[identity]
	if !r.occupies(identity) && r.occupants() >= len(Roles) {
		return nil, ErrRoomFull
	}

	r.Connections[identity] = connRef
	events := []Event{{Type: EvtJoined, Identity: identity}}
	if known {
		events[0].Type = EvtReconnected
	}
	if role, ok := r.RoleOf(identity); ok {
		r.Slots[role].ConnRef = connRef
	}
	return append(events, r.recompute()...), nil
}

// PickRole assigns role to identity. Reclaiming one's own slot is allowed at
// any time; a slot held by a different live identity is not.
func (r *Room) PickRole(identity, connRef string, role Role, displayName string) ([]Event, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if !validIdentity(identity) || connRef == "" {
		return nil, ErrNotAuthorized
	}
	if ref, ok := r.Connections[identity]; !ok || ref == "" {
		return nil, ErrNotAuthorized
	}
	if other := r.boundTo(connRef); other != "" && other != identity {
		return nil, ErrNotAuthorized
	}

	current := r.Slots[role]
	if current.Live() && current.Identity != identity {
		return nil, ErrRoleTaken
	}

	name := cleanDisplayName(displayName)
	if name == "" && current != nil && current.Identity == identity {
		name = current.DisplayName
	}

	// One identity, one slot.
	for _, other := range Roles {
		if other != role && r.Slots[other] != nil && r.Slots[other].Identity == identity {
			r.Slots[other] = nil
		}
	}

	r.Connections[identity] = connRef
	r.Slots[role] = &Player{Identity: identity, DisplayName: name, ConnRef: connRef}

	events := []Event{{Type: EvtRoleAssigned, Identity: identity, Role: role}}
	return append(events, r.recompute()...), nil
}

// SetWord starts a round. Only the live word-setter may call it, and only
// once both players are seated: before the first round, after a decided one
// (awaiting_word), or to replace the word mid-round (playing).
func (r *Room) SetWord(identity, rawWord string) ([]Event, error) {
	setter := r.Occupant(RoleSetter)
	if setter == nil || setter.Identity != identity {
		return nil, ErrNotAuthorized
	}
	if r.Phase != PhaseAwaitingWord && r.Phase != PhasePlaying {
		return nil, ErrNotPlaying
	}

	word, err := SanitizeWord(rawWord)
	if err != nil {
		return nil, err
	}

	r.secret = word
	r.Revealed = make([]rune, len(word))
	for i := range r.Revealed {
		r.Revealed[i] = Placeholder
	}
	r.Wrong = []rune{}
	r.FailCount = 0
	r.Outcome = OutcomeNone
	r.Round++

	events := []Event{{Type: EvtWordSet, Identity: identity}}
	if r.Phase != PhasePlaying {
		r.Phase = PhasePlaying
		events = append(events, Event{Type: EvtPhaseChanged, Phase: r.Phase})
	}
	return events, nil
}

// Guess applies one letter from the live guesser. Every occurrence of a hit
// is revealed in the same pass.
func (r *Room) Guess(identity, rawLetter string) ([]Event, error) {
	guesser := r.Occupant(RoleGuesser)
	if guesser == nil || guesser.Identity != identity {
		return nil, ErrNotAuthorized
	}
	decided := r.Outcome != OutcomeNone
	if r.secret == "" || (r.Phase != PhasePlaying && !decided) {
		return nil, ErrNotPlaying
	}

	letter, err := SanitizeLetter(rawLetter)
	if err != nil {
		return nil, err
	}
	if r.tried(letter) {
		return nil, ErrRepeatedLetter
	}
	// decided rounds wait for the next word
	if decided {
		return nil, ErrNotPlaying
	}

	var events []Event
	hit := false
	for i, c := range r.secret {
		if c == letter {
			r.Revealed[i] = letter
			hit = true
		}
	}
	if hit {
		events = append(events, Event{Type: EvtLetterRevealed, Identity: identity, Letter: letter})
	} else {
		r.Wrong = append(r.Wrong, letter)
		r.FailCount++
		events = append(events, Event{Type: EvtLetterMissed, Identity: identity, Letter: letter})
	}

	switch {
	case !r.HasPlaceholder():
		r.Outcome = OutcomeWon
		events = append(events, Event{Type: EvtGameWon})
	case r.FailCount >= r.MaxFails:
		r.Outcome = OutcomeLost
		events = append(events, Event{Type: EvtGameLost})
	default:
		return events, nil
	}

	// the board stays visible until the setter picks the next word
	r.Phase = PhaseAwaitingWord
	return append(events, Event{Type: EvtPhaseChanged, Phase: r.Phase}), nil
}

// Disconnect drops connRef wherever it is the live reference. Slots keep
// their identity and the board is left untouched.
func (r *Room) Disconnect(connRef string) []Event {
	if connRef == "" {
		return nil
	}

	var events []Event
	for identity, ref := range r.Connections {
		if ref == connRef {
			r.Connections[identity] = ""
			events = append(events, Event{Type: EvtDisconnected, Identity: identity})
		}
	}
	for _, role := range Roles {
		if p := r.Slots[role]; p != nil && p.ConnRef == connRef {
			p.ConnRef = ""
		}
	}
	if len(events) == 0 {
		return nil
	}
	return append(events, r.recompute()...)
}

// recompute moves the phase after seat changes: both seats live resumes the
// round (or waits for a word); losing a seat mid-round aborts it.
func (r *Room) recompute() []Event {
	next := r.Phase
	bothLive := r.Occupant(RoleSetter) != nil && r.Occupant(RoleGuesser) != nil

	if bothLive {
		if r.Phase == PhaseLobby || r.Phase == PhaseAborted {
			if r.secret != "" && r.Outcome == OutcomeNone {
				next = PhasePlaying
			} else {
				next = PhaseAwaitingWord
			}
		}
	} else if r.Phase == PhaseAwaitingWord || r.Phase == PhasePlaying {
		next = PhaseAborted
	}

	if next == r.Phase {
		return nil
	}
	r.Phase = next
	return []Event{{Type: EvtPhaseChanged, Phase: next}}
}
