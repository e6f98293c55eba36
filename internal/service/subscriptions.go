package service

import "log/slog"

// Subscribe registers the live connection at addr for a set's events.
// Membership is checked in storage first; the map is only touched after the
// transaction commits.
func (s *State) Subscribe(token, setID, addr string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	member, err := tx.HasMembership(uid, setID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.subs[setID] {
		if a == addr {
			return ErrAlreadySubscribed
		}
	}
	s.subs[setID] = append(s.subs[setID], addr)
	slog.Debug("subscribed", "set", setID, "addr", addr)
	return nil
}

// Unsubscribe removes the connection from a set's subscriber list. Gated on
// membership like Subscribe; leaving the set does not silently detach the
// connection.
func (s *State) Unsubscribe(token, setID, addr string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	member, err := tx.HasMembership(uid, setID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removeSub(setID, addr) {
		return ErrNotSubscribed
	}
	slog.Debug("unsubscribed", "set", setID, "addr", addr)
	return nil
}

// removeSub deletes addr from one set's list. Caller holds mu.
func (s *State) removeSub(setID, addr string) bool {
	addrs := s.subs[setID]
	for i, a := range addrs {
		if a != addr {
			continue
		}
		addrs[i] = addrs[len(addrs)-1]
		addrs = addrs[:len(addrs)-1]
		if len(addrs) == 0 {
			delete(s.subs, setID)
		} else {
			s.subs[setID] = addrs
		}
		return true
	}
	return false
}

// dropSubscriptions forgets a set entirely (set deletion).
func (s *State) dropSubscriptions(setID string) {
	s.mu.Lock()
	delete(s.subs, setID)
	s.mu.Unlock()
}

// DisconnectAddr is the cleanup path for a closed live connection: all
// subscriptions go away, and if the connection carried a voice presence the
// user leaves their channel and goes offline, with the usual broadcasts.
func (s *State) DisconnectAddr(addr string) {
	s.mu.Lock()
	for setID := range s.subs {
		s.removeSub(setID, addr)
	}
	s.mu.Unlock()

	vu, ok := s.voice.ByAddr(addr)
	if !ok {
		return
	}
	if vu.ChannelID != nil {
		s.voiceChannelLeft(*vu.ChannelID, vu)
	}
	s.voice.Disconnect(vu.UID)
	s.broadcastPresence(vu.UID)
	slog.Info("voice user disconnected", "uid", vu.UID, "addr", addr)
}
