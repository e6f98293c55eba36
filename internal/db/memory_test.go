package db

import (
	"testing"
	"time"
)

func begin(t *testing.T, store Store) Tx {
	t.Helper()
	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestMemoryUserLifecycle(t *testing.T) {
	store := NewMemory()
	tx := begin(t, store)

	if err := tx.InsertUser("u1", "test1", "hash", "Test One", "t@e.c", "tok1", time.Now()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	exists, _ := tx.UserExists("test1")
	if !exists {
		t.Error("user does not exist after insert")
	}

	uid, hash, ok, _ := tx.Credentials("test1")
	if !ok || uid != "u1" || hash != "hash" {
		t.Errorf("credentials = (%q, %q, %v)", uid, hash, ok)
	}
	if _, _, ok, _ := tx.Credentials("nobody"); ok {
		t.Error("credentials for unknown user")
	}

	user, _ := tx.UserByToken("tok1")
	if user == nil || user.UID != "u1" {
		t.Fatalf("user by token = %v", user)
	}

	if err := tx.SetToken("tok2", "u1"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if user, _ := tx.UserByToken("tok1"); user != nil {
		t.Error("old token still resolves after rotation")
	}

	rows, _ := tx.ClearToken("tok2")
	if rows != 1 {
		t.Errorf("clear token rows = %d, want 1", rows)
	}
	rows, _ = tx.ClearToken("tok2")
	if rows != 0 {
		t.Errorf("second clear rows = %d, want 0", rows)
	}

	tx.Commit()
}

func TestMemoryOrdering(t *testing.T) {
	store := NewMemory()
	tx := begin(t, store)
	base := time.Now()

	// Inserted out of creation order on purpose.
	tx.InsertSet("s1", "Devs", "δ", base)
	tx.InsertSubset("sub2", "second", "s1", base.Add(2*time.Second))
	tx.InsertSubset("sub1", "first", "s1", base.Add(1*time.Second))

	tx.InsertUser("u1", "bbb", "h", "Zed", "z@e.c", "t1", base)
	tx.InsertUser("u2", "aaa", "h", "Ann", "a@e.c", "t2", base)
	tx.InsertMembership("m1", "u1", "s1", true, base)
	tx.InsertMembership("m2", "u2", "s1", false, base.Add(time.Second))

	subsets, _ := tx.SubsetsBySet("s1")
	if len(subsets) != 2 || subsets[0].ID != "sub1" || subsets[1].ID != "sub2" {
		t.Errorf("subsets = %v, want creation order", subsets)
	}

	members, _ := tx.MembersBySet("s1")
	if len(members) != 2 || members[0].DisplayName != "Ann" || members[1].DisplayName != "Zed" {
		t.Errorf("members = %v, want display-name order", members)
	}

	tx.InsertMessage("m-old", "old", "sub1", "u1", nil, base.Add(1*time.Second))
	tx.InsertMessage("m-new", "new", "sub1", "u1", nil, base.Add(3*time.Second))
	tx.InsertMessage("m-mid", "mid", "sub1", "u1", nil, base.Add(2*time.Second))

	messages, _ := tx.Messages("sub1", 10)
	if len(messages) != 3 || messages[0].ID != "m-new" || messages[2].ID != "m-old" {
		t.Errorf("messages = %v, want newest first", messages)
	}

	limited, _ := tx.Messages("sub1", 2)
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}

	before, _ := tx.MessagesBefore("sub1", "m-new", 10)
	if len(before) != 2 || before[0].ID != "m-mid" {
		t.Errorf("before = %v, want m-mid then m-old", before)
	}
	none, _ := tx.MessagesBefore("sub1", "m-old", 10)
	if len(none) != 0 {
		t.Errorf("before oldest = %v, want empty", none)
	}

	tx.Commit()
}

func TestMemoryTransactionsSerialize(t *testing.T) {
	store := NewMemory()

	tx := begin(t, store)
	tx.InsertSet("s1", "Devs", "δ", time.Now())
	tx.Commit()

	// The lock is released on rollback too; a hang here means it is not.
	tx = begin(t, store)
	tx.Rollback()

	tx = begin(t, store)
	set, _ := tx.SetByID("s1")
	if set == nil || set.Name != "Devs" {
		t.Errorf("set = %v", set)
	}
	tx.Commit()
}

func TestMemoryDeleteInvite(t *testing.T) {
	store := NewMemory()
	tx := begin(t, store)
	tx.InsertInvite("i1", "s1", "code1234", time.Now(), nil)

	rows, _ := tx.DeleteInvite("wrong-set", "i1")
	if rows != 0 {
		t.Errorf("delete with wrong set rows = %d, want 0", rows)
	}
	rows, _ = tx.DeleteInvite("s1", "i1")
	if rows != 1 {
		t.Errorf("delete rows = %d, want 1", rows)
	}
	tx.Commit()
}
