package service

import (
	"log/slog"

	"equion/internal/models"
	"equion/internal/voice"
)

// ConnectUserVoice announces the user to the voice signalling plane with the
// WebRTC peer id its media rides on. The user shows as online from here.
func (s *State) ConnectUserVoice(token, peerID, addr string) error {
	uid, err := s.ValidateToken(token)
	if err != nil {
		return err
	}

	s.voice.Connect(uid, peerID, addr)
	s.broadcastPresence(uid)
	slog.Info("voice user connected", "uid", uid, "peer", peerID)
	return nil
}

// DisconnectUserVoice withdraws the user from the voice plane, leaving any
// occupied channel first.
func (s *State) DisconnectUserVoice(token string) error {
	uid, err := s.ValidateToken(token)
	if err != nil {
		return err
	}
	vu, ok := s.voice.Get(uid)
	if !ok {
		return voice.ErrNotConnected
	}

	if vu.ChannelID != nil {
		s.voiceChannelLeft(*vu.ChannelID, vu)
	}
	s.voice.Disconnect(uid)
	s.broadcastPresence(uid)
	slog.Info("voice user disconnected", "uid", uid)
	return nil
}

// ConnectToVoiceChannel puts the user in a set's voice channel. Moving
// between channels leaves the old one with its own broadcast first.
func (s *State) ConnectToVoiceChannel(token, channelID string) error {
	uid, err := s.ValidateToken(token)
	if err != nil {
		return err
	}
	vu, ok := s.voice.Get(uid)
	if !ok {
		return voice.ErrNotConnected
	}

	if vu.ChannelID != nil {
		if *vu.ChannelID == channelID {
			return voice.ErrAlreadyInVoice
		}
		if _, err := s.voice.LeaveChannel(uid); err != nil {
			return err
		}
		s.voiceChannelLeft(*vu.ChannelID, vu)
	}

	peerID, err := s.voice.JoinChannel(uid, channelID)
	if err != nil {
		return err
	}

	member, err := s.voiceMember(uid, peerID)
	if err != nil {
		return err
	}
	s.broadcastVoice(channelID, member, false)
	slog.Info("voice channel joined", "uid", uid, "channel", channelID)
	return nil
}

// LeaveVoiceChannel takes the user out of their current voice channel while
// keeping them connected to the voice plane.
func (s *State) LeaveVoiceChannel(token string) error {
	uid, err := s.ValidateToken(token)
	if err != nil {
		return err
	}
	vu, ok := s.voice.Get(uid)
	if !ok {
		return voice.ErrNotConnected
	}

	channelID, err := s.voice.LeaveChannel(uid)
	if err != nil {
		return err
	}
	s.voiceChannelLeft(channelID, vu)
	slog.Info("voice channel left", "uid", uid, "channel", channelID)
	return nil
}

// voiceChannelLeft broadcasts the departure of vu from a channel.
func (s *State) voiceChannelLeft(channelID string, vu voice.User) {
	member, err := s.voiceMember(vu.UID, vu.PeerID)
	if err != nil {
		slog.Error("voice leave broadcast failed", "uid", vu.UID, "error", err)
		return
	}
	s.broadcastVoice(channelID, member, true)
}

// voiceMember hydrates the user record behind a voice presence.
func (s *State) voiceMember(uid, peerID string) (models.VoiceMember, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.VoiceMember{}, err
	}
	defer rollback(tx)

	user, err := tx.UserByID(uid)
	if err != nil {
		return models.VoiceMember{}, err
	}
	if user == nil {
		return models.VoiceMember{}, ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return models.VoiceMember{}, err
	}

	user.Online = s.voice.IsOnline(uid)
	return models.VoiceMember{User: *user, PeerID: peerID}, nil
}

// broadcastPresence fans the user's current online state out to every set
// they belong to.
func (s *State) broadcastPresence(uid string) {
	tx, err := s.store.Begin()
	if err != nil {
		slog.Error("presence broadcast failed", "uid", uid, "error", err)
		return
	}
	defer rollback(tx)

	user, err := tx.UserByID(uid)
	if err != nil || user == nil {
		return
	}
	setIDs, err := tx.UserSetIDs(uid)
	if err != nil {
		return
	}
	if err := tx.Commit(); err != nil {
		return
	}

	user.Online = s.voice.IsOnline(uid)
	s.broadcastUserEverywhere(setIDs, *user)
}
