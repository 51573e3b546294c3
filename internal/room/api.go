package room

import "context"

// Join adds m to the delivery group under identity. game errors (RoomFull,
// NotAuthorized) come back unchanged.
func (r *Room) Join(ctx context.Context, m *Member, identity string) error {
	reply := make(chan error, 1)
	return r.call(ctx, joinMsg{Member: m, Identity: identity, Reply: reply}, reply)
}

func (r *Room) PickRole(ctx context.Context, connID, identity, role, displayName string) error {
	reply := make(chan error, 1)
	return r.call(ctx, pickRoleMsg{
		ConnID:      connID,
		Identity:    identity,
		Role:        role,
		DisplayName: displayName,
		Reply:       reply,
	}, reply)
}

func (r *Room) SetWord(ctx context.Context, connID, identity, word string) error {
	reply := make(chan error, 1)
	return r.call(ctx, setWordMsg{ConnID: connID, Identity: identity, Word: word, Reply: reply}, reply)
}

func (r *Room) GuessLetter(ctx context.Context, connID, identity, letter string) error {
	reply := make(chan error, 1)
	return r.call(ctx, guessMsg{ConnID: connID, Identity: identity, Letter: letter, Reply: reply}, reply)
}

// Leave removes connID from the room and releases any slot it held live.
func (r *Room) Leave(ctx context.Context, connID string) error {
	reply := make(chan error, 1)
	return r.call(ctx, leaveMsg{ConnID: connID, Reply: reply}, reply)
}

func (r *Room) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.send(ctx, viewMsg{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// TryExpire stops the room if timer generation gen is still pending and
// nobody is connected. It reports whether the room is gone.
func (r *Room) TryExpire(ctx context.Context, gen uint64) bool {
	reply := make(chan bool, 1)
	if err := r.send(ctx, expireMsg{Gen: gen, Reply: reply}); err != nil {
		return err == ErrClosed
	}
	select {
	case ok := <-reply:
		return ok
	case <-r.ctx.Done():
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Room) Shutdown() {
	select {
	case r.inbox <- shutdownMsg{}:
	case <-r.ctx.Done():
	}
}

func (r *Room) send(ctx context.Context, m msg) error {
	select {
	case <-r.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case r.inbox <- m:
		return nil
	case <-r.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Room) call(ctx context.Context, m msg, reply chan error) error {
	if err := r.send(ctx, m); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.ctx.Done():
		// the loop may have answered just before stopping
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
