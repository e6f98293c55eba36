package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"equion/internal/models"
)

// GetInvites lists a set's invites, membership required. Expired codes are
// filtered out.
func (s *State) GetInvites(token, setID string) ([]models.Invite, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	_, _, ok, err := tx.Membership(token, setID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}

	invites, err := tx.InvitesBySet(setID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	live := make([]models.Invite, 0, len(invites))
	for _, i := range invites {
		if i.Expires != nil && *i.Expires < now {
			continue
		}
		live = append(live, i)
	}
	return live, nil
}

// CreateInvite mints an invite code for a set, admin only. Duration is in
// minutes; nil means the code never expires. Custom codes are a paid feature
// that is not available.
func (s *State) CreateInvite(token, setID string, duration *int, code *string) (string, error) {
	if code != nil {
		return "", ErrCustomCode
	}

	tx, err := s.store.Begin()
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	uid, admin, ok, err := tx.Membership(token, setID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	if !admin {
		return "", ErrNotAdmin
	}

	now := time.Now()
	var expires *time.Time
	if duration != nil {
		e := now.Add(time.Duration(*duration) * time.Minute)
		expires = &e
	}

	inviteCode := uuid.NewString()[:8]
	if err := tx.InsertInvite(uuid.NewString(), setID, inviteCode, now, expires); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("invite created", "set", setID, "code", inviteCode, "uid", uid)
	return inviteCode, nil
}

// RevokeInvite deletes an invite from a set, admin only.
func (s *State) RevokeInvite(token, setID, inviteID string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	_, admin, ok, err := tx.Membership(token, setID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}
	if !admin {
		return ErrNotAdmin
	}

	rows, err := tx.DeleteInvite(setID, inviteID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInviteNotFound
	}

	slog.Info("invite revoked", "set", setID, "invite", inviteID)
	return tx.Commit()
}
