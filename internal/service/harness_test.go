package service

import (
	"encoding/json"
	"sync"
	"testing"

	"equion/internal/db"
)

// recorder implements Sender and captures every frame by address.
type recorder struct {
	mu     sync.Mutex
	frames map[string][]map[string]any
}

func newRecorder() *recorder {
	return &recorder{frames: make(map[string][]map[string]any)}
}

func (r *recorder) Send(addr string, frame []byte) {
	var decoded map[string]any
	if err := json.Unmarshal(frame, &decoded); err != nil {
		panic("recorder: bad frame: " + err.Error())
	}
	r.mu.Lock()
	r.frames[addr] = append(r.frames[addr], decoded)
	r.mu.Unlock()
}

func (r *recorder) events(addr string) []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any{}, r.frames[addr]...)
}

func (r *recorder) lastEvent(t *testing.T, addr string) map[string]any {
	t.Helper()
	events := r.events(addr)
	if len(events) == 0 {
		t.Fatalf("no events delivered to %s", addr)
	}
	return events[len(events)-1]
}

func newTestState(t *testing.T) (*State, *recorder) {
	t.Helper()
	s := New(db.NewMemory())
	rec := newRecorder()
	s.SetSender(rec)
	return s, rec
}

// fixture is the standard two-user world: test1 owns a set with a General
// subset, test2 has joined it through an invite.
type fixture struct {
	state    *State
	recorder *recorder

	admin  Session // test1, admin of the set
	member Session // test2
	setID  string
	subset string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, rec := newTestState(t)

	admin, err := s.Signup("test1", "password1", "Test One", "test1@example.com")
	if err != nil {
		t.Fatalf("signup test1: %v", err)
	}
	member, err := s.Signup("test2", "password2", "Test Two", "test2@example.com")
	if err != nil {
		t.Fatalf("signup test2: %v", err)
	}

	setID, err := s.CreateSet(admin.Token, "Equion Devs", nil)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	set, err := s.GetSet(admin.Token, setID)
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if len(set.Subsets) != 1 {
		t.Fatalf("expected the General subset, got %d subsets", len(set.Subsets))
	}

	code, err := s.CreateInvite(admin.Token, setID, nil, nil)
	if err != nil {
		t.Fatalf("create invite: %v", err)
	}
	if _, err := s.JoinSet(member.Token, code); err != nil {
		t.Fatalf("join set: %v", err)
	}

	return &fixture{
		state:    s,
		recorder: rec,
		admin:    admin,
		member:   member,
		setID:    setID,
		subset:   set.Subsets[0].ID,
	}
}

// subscribeAddr registers a fake live connection for the fixture set.
func (f *fixture) subscribeAddr(t *testing.T, token, addr string) {
	t.Helper()
	if err := f.state.Subscribe(token, f.setID, addr); err != nil {
		t.Fatalf("subscribe %s: %v", addr, err)
	}
}
