package service

import (
	"testing"
)

func TestCreateSetDefaults(t *testing.T) {
	s, _ := newTestState(t)
	session, err := s.Signup("test1", "password1", "Test One", "a@b.c")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	setID, err := s.CreateSet(session.Token, "Equion Devs", nil)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}

	set, err := s.GetSet(session.Token, setID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if set.Icon != "ε" {
		t.Errorf("default icon = %q, want ε", set.Icon)
	}
	if !set.Admin {
		t.Error("creator is not admin")
	}
	if len(set.Subsets) != 1 || set.Subsets[0].Name != "General" {
		t.Errorf("subsets = %v, want exactly General", set.Subsets)
	}
	if len(set.Members) != 1 || set.Members[0].UID != session.UID {
		t.Errorf("members = %v, want only the creator", set.Members)
	}
}

func TestGetSetRequiresMembership(t *testing.T) {
	f := newFixture(t)
	outsider, err := f.state.Signup("test3", "password3", "Test Three", "c@d.e")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := f.state.GetSet(outsider.Token, f.setID); err != ErrNotMember {
		t.Errorf("outsider GetSet error = %v, want %v", err, ErrNotMember)
	}
}

func TestGetSets(t *testing.T) {
	f := newFixture(t)
	sets, err := f.state.GetSets(f.member.Token)
	if err != nil {
		t.Fatalf("get sets: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(sets))
	}
	if sets[0].Admin {
		t.Error("joined member should not be admin")
	}
	if len(sets[0].Members) != 2 {
		t.Errorf("members = %d, want 2", len(sets[0].Members))
	}
	if _, err := f.state.GetSets("bogus"); err != ErrInvalidToken {
		t.Errorf("bad token error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestCreateSubset(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.member.Token, "addr-member")

	if _, err := f.state.CreateSubset(f.member.Token, f.setID, "nope"); err != ErrPermissions {
		t.Errorf("non-admin create error = %v, want %v", err, ErrPermissions)
	}

	subsetID, err := f.state.CreateSubset(f.admin.Token, f.setID, "announcements")
	if err != nil {
		t.Fatalf("create subset: %v", err)
	}

	event := f.recorder.lastEvent(t, "addr-member")
	if event["event"] != "v1/subset" || event["deleted"] != false {
		t.Errorf("event = %v, want live v1/subset", event)
	}
	subset := event["subset"].(map[string]any)
	if subset["id"] != subsetID || subset["name"] != "announcements" {
		t.Errorf("subset payload = %v", subset)
	}
}

func TestUpdateSubsetDelete(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.member.Token, "addr-member")

	if err := f.state.SendMessage(f.admin.Token, f.subset, "hello", nil); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if err := f.state.UpdateSubset(f.admin.Token, f.subset, nil, true); err != nil {
		t.Fatalf("delete subset: %v", err)
	}

	event := f.recorder.lastEvent(t, "addr-member")
	if event["event"] != "v1/subset" || event["deleted"] != true {
		t.Errorf("event = %v, want deleted v1/subset", event)
	}

	// History and the subset itself are gone.
	if _, err := f.state.Messages(f.admin.Token, f.subset, nil, nil); err != ErrPermissions {
		t.Errorf("messages on deleted subset error = %v, want %v", err, ErrPermissions)
	}
	set, err := f.state.GetSet(f.admin.Token, f.setID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Subsets) != 0 {
		t.Errorf("subsets after delete = %v, want none", set.Subsets)
	}
}

func TestUpdateSetRename(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.member.Token, "addr-member")

	name := "Renamed"
	if err := f.state.UpdateSet(f.member.Token, f.setID, &name, nil, false); err != ErrPermissions {
		t.Errorf("non-admin rename error = %v, want %v", err, ErrPermissions)
	}
	if err := f.state.UpdateSet(f.admin.Token, f.setID, &name, nil, false); err != nil {
		t.Fatalf("rename set: %v", err)
	}

	event := f.recorder.lastEvent(t, "addr-member")
	if event["event"] != "v1/set" || event["name"] != "Renamed" || event["deleted"] != false {
		t.Errorf("event = %v, want v1/set rename", event)
	}

	set, err := f.state.GetSet(f.admin.Token, f.setID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if set.Name != "Renamed" {
		t.Errorf("set name = %q, want Renamed", set.Name)
	}
}

func TestUpdateSetDeleteCascades(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.member.Token, "addr-member")

	if err := f.state.SendMessage(f.admin.Token, f.subset, "doomed", nil); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if err := f.state.UpdateSet(f.admin.Token, f.setID, nil, nil, true); err != nil {
		t.Fatalf("delete set: %v", err)
	}

	event := f.recorder.lastEvent(t, "addr-member")
	if event["event"] != "v1/set" || event["deleted"] != true {
		t.Errorf("event = %v, want deleted v1/set", event)
	}

	if _, err := f.state.GetSet(f.admin.Token, f.setID); err != ErrNotMember {
		t.Errorf("GetSet after delete error = %v, want %v", err, ErrNotMember)
	}
	sets, err := f.state.GetSets(f.admin.Token)
	if err != nil {
		t.Fatalf("get sets: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("sets after delete = %d, want 0", len(sets))
	}

	// The cascade removed the membership, so the dead subscription cannot
	// even be addressed anymore.
	if err := f.state.Unsubscribe(f.member.Token, f.setID, "addr-member"); err != ErrNotMember {
		t.Errorf("unsubscribe after delete error = %v, want %v", err, ErrNotMember)
	}
}

func TestJoinSet(t *testing.T) {
	f := newFixture(t)
	third, err := f.state.Signup("test3", "password3", "Test Three", "c@d.e")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := f.state.JoinSet(third.Token, "no-such-code"); err != ErrInviteNotFound {
		t.Errorf("bad code error = %v, want %v", err, ErrInviteNotFound)
	}

	code, err := f.state.CreateInvite(f.admin.Token, f.setID, nil, nil)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("invite code %q length = %d, want 8", code, len(code))
	}

	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	joined, err := f.state.JoinSet(third.Token, code)
	if err != nil {
		t.Fatalf("join set: %v", err)
	}
	if joined != f.setID {
		t.Errorf("joined set = %q, want %q", joined, f.setID)
	}
	if _, err := f.state.JoinSet(third.Token, code); err != ErrAlreadyMember {
		t.Errorf("rejoin error = %v, want %v", err, ErrAlreadyMember)
	}

	event := f.recorder.lastEvent(t, "addr-admin")
	if event["event"] != "v1/user" || event["deleted"] != false {
		t.Errorf("event = %v, want live v1/user", event)
	}

	invites, err := f.state.GetInvites(f.admin.Token, f.setID)
	if err != nil {
		t.Fatalf("get invites: %v", err)
	}
	// The fixture invite was used once by test2, the new one once by test3.
	for _, invite := range invites {
		if invite.Uses != 1 {
			t.Errorf("invite %q uses = %d, want 1", invite.Code, invite.Uses)
		}
	}
}

func TestLeaveSet(t *testing.T) {
	f := newFixture(t)
	f.subscribeAddr(t, f.admin.Token, "addr-admin")

	if err := f.state.LeaveSet(f.member.Token, f.setID); err != nil {
		t.Fatalf("leave set: %v", err)
	}
	if err := f.state.LeaveSet(f.member.Token, f.setID); err != ErrNotMember {
		t.Errorf("second leave error = %v, want %v", err, ErrNotMember)
	}

	event := f.recorder.lastEvent(t, "addr-admin")
	if event["event"] != "v1/user" || event["deleted"] != true {
		t.Errorf("event = %v, want deleted v1/user", event)
	}
}
