package service

import (
	"encoding/json"
	"log/slog"

	"equion/internal/models"
)

// broadcast marshals the payload once and delivers it to every current
// subscriber of the set. The subscriber list is copied under the read lock;
// delivery happens outside it.
func (s *State) broadcast(setID string, payload map[string]any) {
	frame, err := json.Marshal(payload)
	if err != nil {
		slog.Error("event marshal failed", "error", err)
		return
	}

	s.mu.RLock()
	addrs := make([]string, len(s.subs[setID]))
	copy(addrs, s.subs[setID])
	s.mu.RUnlock()

	for _, addr := range addrs {
		s.send(addr, frame)
	}
}

func (s *State) broadcastSubset(setID string, subset models.Subset, deleted bool) {
	s.broadcast(setID, map[string]any{
		"event":   "v1/subset",
		"set":     setID,
		"subset":  subset,
		"deleted": deleted,
	})
}

func (s *State) broadcastMessage(setID, subsetID string, message models.Message, deleted bool) {
	s.broadcast(setID, map[string]any{
		"event":   "v1/message",
		"set":     setID,
		"subset":  subsetID,
		"message": message,
		"deleted": deleted,
	})
}

func (s *State) broadcastUser(setID string, user models.User, deleted bool) {
	s.broadcast(setID, map[string]any{
		"event":   "v1/user",
		"set":     setID,
		"user":    user,
		"deleted": deleted,
	})
}

func (s *State) broadcastVoice(setID string, member models.VoiceMember, deleted bool) {
	s.broadcast(setID, map[string]any{
		"event":   "v1/voice",
		"set":     setID,
		"user":    member,
		"deleted": deleted,
	})
}

func (s *State) broadcastSet(setID, name, icon string, deleted bool) {
	s.broadcast(setID, map[string]any{
		"event":   "v1/set",
		"set":     setID,
		"name":    name,
		"icon":    icon,
		"deleted": deleted,
	})
}

func (s *State) broadcastTyping(setID, subsetID, uid string) {
	s.broadcast(setID, map[string]any{
		"event":  "v1/typing",
		"subset": subsetID,
		"uid":    uid,
	})
}

// broadcastUserEverywhere fans one v1/user event out per set the user
// belongs to: profile updates, presence changes, and (with deleted=true)
// departures from a single set.
func (s *State) broadcastUserEverywhere(setIDs []string, user models.User) {
	for _, setID := range setIDs {
		s.broadcastUser(setID, user, false)
	}
}
