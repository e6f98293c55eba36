package service

import (
	"testing"
)

func TestSubscribe(t *testing.T) {
	f := newFixture(t)

	if err := f.state.Subscribe("bogus", f.setID, "addr-1"); err != ErrInvalidToken {
		t.Errorf("bad token error = %v, want %v", err, ErrInvalidToken)
	}

	outsider, err := f.state.Signup("test3", "password3", "Test Three", "c@d.e")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := f.state.Subscribe(outsider.Token, f.setID, "addr-1"); err != ErrNotMember {
		t.Errorf("outsider subscribe error = %v, want %v", err, ErrNotMember)
	}

	if err := f.state.Subscribe(f.member.Token, f.setID, "addr-1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := f.state.Subscribe(f.member.Token, f.setID, "addr-1"); err != ErrAlreadySubscribed {
		t.Errorf("double subscribe error = %v, want %v", err, ErrAlreadySubscribed)
	}
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture(t)

	if err := f.state.Unsubscribe(f.member.Token, f.setID, "addr-1"); err != ErrNotSubscribed {
		t.Errorf("unsubscribe before subscribe error = %v, want %v", err, ErrNotSubscribed)
	}

	f.subscribeAddr(t, f.member.Token, "addr-1")
	if err := f.state.Unsubscribe(f.member.Token, f.setID, "addr-1"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	// No more events after unsubscribing.
	if err := f.state.SendMessage(f.admin.Token, f.subset, "quiet", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if events := f.recorder.events("addr-1"); len(events) != 0 {
		t.Errorf("events after unsubscribe = %v, want none", events)
	}
}

func TestUnsubscribeRequiresMembership(t *testing.T) {
	f := newFixture(t)

	outsider, err := f.state.Signup("test3", "password3", "Test Three", "c@d.e")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := f.state.Unsubscribe(outsider.Token, f.setID, "addr-1"); err != ErrNotMember {
		t.Errorf("outsider unsubscribe error = %v, want %v", err, ErrNotMember)
	}

	// A member who leaves the set loses the right to manage its
	// subscriptions, even for a connection subscribed while still a member.
	f.subscribeAddr(t, f.member.Token, "addr-1")
	if err := f.state.LeaveSet(f.member.Token, f.setID); err != nil {
		t.Fatalf("leave set: %v", err)
	}
	if err := f.state.Unsubscribe(f.member.Token, f.setID, "addr-1"); err != ErrNotMember {
		t.Errorf("ex-member unsubscribe error = %v, want %v", err, ErrNotMember)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.admin.Token, "addr-admin")
	f.subscribeAddr(t, f.member.Token, "addr-member")

	if err := f.state.SendMessage(f.admin.Token, f.subset, "to everyone", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, addr := range []string{"addr-admin", "addr-member"} {
		events := f.recorder.events(addr)
		if len(events) != 1 {
			t.Errorf("%s got %d events, want exactly 1", addr, len(events))
		}
	}
}

func TestDisconnectAddr(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.member.Token, "addr-member")
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	// The member connects to voice and joins the set's channel on the same
	// connection.
	if err := f.state.ConnectUserVoice(f.member.Token, "peer-2", "addr-member"); err != nil {
		t.Fatalf("connect voice: %v", err)
	}
	if err := f.state.ConnectToVoiceChannel(f.member.Token, f.setID); err != nil {
		t.Fatalf("join channel: %v", err)
	}

	f.state.DisconnectAddr("addr-member")

	// The dead connection's subscription is gone.
	if err := f.state.Unsubscribe(f.member.Token, f.setID, "addr-member"); err != ErrNotSubscribed {
		t.Errorf("unsubscribe after disconnect error = %v, want %v", err, ErrNotSubscribed)
	}

	// Survivors saw the voice departure and the offline presence.
	var sawVoiceLeave, sawOffline bool
	for _, event := range f.recorder.events("addr-admin") {
		switch event["event"] {
		case "v1/voice":
			if event["deleted"] == true {
				sawVoiceLeave = true
			}
		case "v1/user":
			user := event["user"].(map[string]any)
			if user["uid"] == f.member.UID && user["online"] == false {
				sawOffline = true
			}
		}
	}
	if !sawVoiceLeave {
		t.Error("no deleted v1/voice event after disconnect")
	}
	if !sawOffline {
		t.Error("no offline v1/user event after disconnect")
	}

	if f.state.Voice().IsOnline(f.member.UID) {
		t.Error("user still online in the voice registry")
	}
}
