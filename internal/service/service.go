// Package service implements the server's behavior: account and session
// management, sets and subsets, invites, messages, file storage, the
// subscription fabric and voice presence. The command dispatcher and the
// HTTP endpoints both call into this package.
package service

import (
	"sync"

	"equion/internal/db"
	"equion/internal/voice"
)

// Sender delivers a marshalled event frame to a live connection. The
// websocket hub implements it; tests substitute a recorder.
type Sender interface {
	Send(addr string, frame []byte)
}

// State owns the store, the voice registry and the subscription map
// (set id -> subscribed connection addresses).
//
// Lock discipline: storage transactions are never run while holding mu or a
// voice registry lock. Handlers do their storage work first, commit, then
// touch the in-memory maps and fan out events.
type State struct {
	store db.Store
	voice *voice.Registry

	mu   sync.RWMutex
	subs map[string][]string

	senderMu sync.RWMutex
	sender   Sender
}

func New(store db.Store) *State {
	return &State{
		store: store,
		voice: voice.NewRegistry(),
		subs:  make(map[string][]string),
	}
}

// Voice exposes the presence registry (status page, tests).
func (s *State) Voice() *voice.Registry {
	return s.voice
}

// SetSender wires the live-connection transport in. Called once at startup,
// before any connection is accepted.
func (s *State) SetSender(sender Sender) {
	s.senderMu.Lock()
	s.sender = sender
	s.senderMu.Unlock()
}

func (s *State) send(addr string, frame []byte) {
	s.senderMu.RLock()
	sender := s.sender
	s.senderMu.RUnlock()
	if sender != nil {
		sender.Send(addr, frame)
	}
}

// rollback is the failure-path cleanup for open transactions.
func rollback(tx db.Tx) {
	_ = tx.Rollback()
}
