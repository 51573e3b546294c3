package game

import "github.com/DoyleJ11/hangman-rooms/pkg/types"

func (r *Room) Snapshot() types.Snapshot {
	s := types.Snapshot{
		RoomID:       r.ID,
		Phase:        string(r.Phase),
		Roles:        make(map[string]types.RoleView, len(Roles)),
		Revealed:     make([]string, len(r.Revealed)),
		WrongLetters: make([]string, len(r.Wrong)),
		FailCount:    r.FailCount,
		MaxFails:     r.MaxFails,
		Outcome:      string(r.Outcome),
		Round:        r.Round,
	}
	for _, role := range Roles {
		v := types.RoleView{}
		if p := r.Slots[role]; p != nil {
			v.Taken = p.Live()
			v.DisplayName = p.DisplayName
		}
		s.Roles[string(role)] = v
	}
	for i, c := range r.Revealed {
		s.Revealed[i] = string(c)
	}
	for i, c := range r.Wrong {
		s.WrongLetters[i] = string(c)
	}
	return s
}
