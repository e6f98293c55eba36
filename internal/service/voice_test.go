package service

import (
	"testing"

	"equion/internal/voice"
)

func TestConnectUserVoice(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	if err := f.state.ConnectUserVoice("bogus", "peer-2", "addr-member"); err != ErrInvalidToken {
		t.Errorf("bad token error = %v, want %v", err, ErrInvalidToken)
	}

	if err := f.state.ConnectUserVoice(f.member.Token, "peer-2", "addr-member"); err != nil {
		t.Fatalf("connect: %v", err)
	}

	event := f.recorder.lastEvent(t, "addr-admin")
	if event["event"] != "v1/user" {
		t.Fatalf("event = %v, want v1/user", event)
	}
	user := event["user"].(map[string]any)
	if user["uid"] != f.member.UID || user["online"] != true {
		t.Errorf("presence payload = %v, want member online", user)
	}
}

func TestVoiceChannelFlow(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	if err := f.state.ConnectToVoiceChannel(f.member.Token, f.setID); err != voice.ErrNotConnected {
		t.Errorf("join before connect error = %v, want %v", err, voice.ErrNotConnected)
	}

	if err := f.state.ConnectUserVoice(f.member.Token, "peer-2", "addr-member"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.member.Token, f.setID); err != nil {
		t.Fatalf("join channel: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.member.Token, f.setID); err != voice.ErrAlreadyInVoice {
		t.Errorf("rejoin error = %v, want %v", err, voice.ErrAlreadyInVoice)
	}

	event := f.recorder.lastEvent(t, "addr-admin")
	if event["event"] != "v1/voice" || event["deleted"] != false {
		t.Fatalf("event = %v, want live v1/voice", event)
	}
	member := event["user"].(map[string]any)
	if member["peerId"] != "peer-2" {
		t.Errorf("voice payload = %v, want peer-2", member)
	}

	// The hydrated set shows the occupant.
	set, err := f.state.GetSet(f.admin.Token, f.setID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.VoiceMembers) != 1 || set.VoiceMembers[0].User.UID != f.member.UID {
		t.Errorf("voice members = %v, want the member", set.VoiceMembers)
	}

	if err := f.state.LeaveVoiceChannel(f.member.Token); err != nil {
		t.Fatalf("leave channel: %v", err)
	}
	event = f.recorder.lastEvent(t, "addr-admin")
	if event["event"] != "v1/voice" || event["deleted"] != true {
		t.Errorf("event = %v, want deleted v1/voice", event)
	}
	if err := f.state.LeaveVoiceChannel(f.member.Token); err != voice.ErrNotInVoice {
		t.Errorf("double leave error = %v, want %v", err, voice.ErrNotInVoice)
	}
}

func TestSwitchVoiceChannel(t *testing.T) {
	f := newFixture(t)

	// Second set with its own voice channel.
	secondSet, err := f.state.CreateSet(f.admin.Token, "Second", nil)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	if err := f.state.ConnectUserVoice(f.admin.Token, "peer-1", "addr-admin2"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.admin.Token, f.setID); err != nil {
		t.Fatalf("join first: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.admin.Token, secondSet); err != nil {
		t.Fatalf("switch: %v", err)
	}

	if members := f.state.Voice().ChannelMembers(f.setID); len(members) != 0 {
		t.Errorf("old channel members = %v, want none", members)
	}
	if members := f.state.Voice().ChannelMembers(secondSet); len(members) != 1 {
		t.Errorf("new channel members = %v, want one", members)
	}

	// The first set's subscribers saw the departure.
	var sawLeave bool
	for _, event := range f.recorder.events("addr-admin") {
		if event["event"] == "v1/voice" && event["deleted"] == true && event["set"] == f.setID {
			sawLeave = true
		}
	}
	if !sawLeave {
		t.Error("no deleted v1/voice on the old channel after switching")
	}
}

func TestDisconnectUserVoice(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	if err := f.state.DisconnectUserVoice(f.member.Token); err != voice.ErrNotConnected {
		t.Errorf("disconnect while offline error = %v, want %v", err, voice.ErrNotConnected)
	}

	if err := f.state.ConnectUserVoice(f.member.Token, "peer-2", "addr-member"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.member.Token, f.setID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.state.DisconnectUserVoice(f.member.Token); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	if f.state.Voice().IsOnline(f.member.UID) {
		t.Error("still online after voice disconnect")
	}
	event := f.recorder.lastEvent(t, "addr-admin")
	user := event["user"].(map[string]any)
	if event["event"] != "v1/user" || user["online"] != false {
		t.Errorf("event = %v, want offline v1/user", event)
	}
}
