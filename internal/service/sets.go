package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"equion/internal/db"
	"equion/internal/models"
)

// GetSets returns every set the session's user belongs to, fully hydrated
// with subsets, members and voice members.
func (s *State) GetSets(token string) ([]models.Set, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	sets, err := tx.SetsByToken(token)
	if err != nil {
		return nil, err
	}
	for i := range sets {
		if err := loadSetDetail(tx, &sets[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if sets == nil {
		sets = []models.Set{}
	}
	for i := range sets {
		s.decorateSet(&sets[i])
	}
	slog.Debug("sets listed", "uid", uid, "count", len(sets))
	return sets, nil
}

// GetSet returns one set, membership required.
func (s *State) GetSet(token, id string) (models.Set, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.Set{}, err
	}
	defer rollback(tx)

	_, admin, ok, err := tx.Membership(token, id)
	if err != nil {
		return models.Set{}, err
	}
	if !ok {
		return models.Set{}, ErrNotMember
	}

	set, err := tx.SetByID(id)
	if err != nil {
		return models.Set{}, err
	}
	if set == nil {
		return models.Set{}, ErrSetNotFound
	}
	set.Admin = admin
	if err := loadSetDetail(tx, set); err != nil {
		return models.Set{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Set{}, err
	}

	s.decorateSet(set)
	return *set, nil
}

// loadSetDetail fills subsets and members from storage. Voice presence and
// online flags are added after commit by decorateSet.
func loadSetDetail(tx db.Tx, set *models.Set) error {
	subsets, err := tx.SubsetsBySet(set.ID)
	if err != nil {
		return err
	}
	members, err := tx.MembersBySet(set.ID)
	if err != nil {
		return err
	}
	set.Subsets = subsets
	set.Members = members
	if set.Subsets == nil {
		set.Subsets = []models.Subset{}
	}
	if set.Members == nil {
		set.Members = []models.User{}
	}
	return nil
}

// decorateSet adds the live state: per-member online flags and the set's
// voice channel occupants with their peer ids.
func (s *State) decorateSet(set *models.Set) {
	byUID := make(map[string]models.User, len(set.Members))
	for i := range set.Members {
		set.Members[i].Online = s.voice.IsOnline(set.Members[i].UID)
		byUID[set.Members[i].UID] = set.Members[i]
	}

	set.VoiceMembers = []models.VoiceMember{}
	for _, vu := range s.voice.ChannelMembers(set.ID) {
		user, ok := byUID[vu.UID]
		if !ok {
			continue
		}
		set.VoiceMembers = append(set.VoiceMembers, models.VoiceMember{
			User:   user,
			PeerID: vu.PeerID,
		})
	}
}

// CreateSet creates a set with its "General" subset and an admin membership
// for the creator. The icon defaults from the set name.
func (s *State) CreateSet(token, name string, icon *string) (string, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}

	setIcon := DefaultIcon(name)
	if icon != nil {
		setIcon = *icon
	}

	now := time.Now()
	setID := uuid.NewString()
	if err := tx.InsertSet(setID, name, setIcon, now); err != nil {
		return "", err
	}
	if err := tx.InsertMembership(uuid.NewString(), uid, setID, true, now); err != nil {
		return "", err
	}
	if err := tx.InsertSubset(uuid.NewString(), "General", setID, now); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("set created", "set", setID, "name", name, "uid", uid)
	return setID, nil
}

// UpdateSet renames, re-icons or deletes a set. Admin only. Deletion
// cascades messages, subsets, invites and memberships before the set row.
func (s *State) UpdateSet(token, setID string, name, icon *string, del bool) error {
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
		return ErrNotMember
	}
	if !admin {
		return ErrPermissions
	}

	set, err := tx.SetByID(setID)
	if err != nil {
		return err
	}
	if set == nil {
		return ErrSetNotFound
	}

	if del {
		for _, step := range []func(string) error{
			tx.DeleteSetMessages, tx.DeleteSetSubsets, tx.DeleteSetInvites,
			tx.DeleteSetMemberships, tx.DeleteSet,
		} {
			if err := step(setID); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("set deleted", "set", setID)
		s.broadcastSet(setID, set.Name, set.Icon, true)
		s.dropSubscriptions(setID)
		return nil
	}

	if name != nil {
		if err := tx.UpdateSetName(setID, *name); err != nil {
			return err
		}
		set.Name = *name
	}
	if icon != nil {
		if err := tx.UpdateSetIcon(setID, *icon); err != nil {
			return err
		}
		set.Icon = *icon
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("set updated", "set", setID)
	s.broadcastSet(setID, set.Name, set.Icon, false)
	return nil
}

// CreateSubset adds a subset to a set. Admin only.
func (s *State) CreateSubset(token, setID, name string) (string, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	_, admin, ok, err := tx.Membership(token, setID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotMember
	}
	if !admin {
		return "", ErrPermissions
	}

	subsetID := uuid.NewString()
	if err := tx.InsertSubset(subsetID, name, setID, time.Now()); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("subset created", "subset", subsetID, "set", setID)
	s.broadcastSubset(setID, models.Subset{ID: subsetID, Name: name}, false)
	return subsetID, nil
}

// UpdateSubset renames or deletes a subset. Admin only. Deleting removes the
// subset's messages first.
func (s *State) UpdateSubset(token, subsetID string, name *string, del bool) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	setID, ok, err := tx.SubsetSet(subsetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	_, admin, ok, err := tx.Membership(token, setID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	if !admin {
		return ErrPermissions
	}

	subsetName, _, err := tx.SubsetName(subsetID)
	if err != nil {
		return err
	}

	if del {
		if err := tx.DeleteSubsetMessages(subsetID); err != nil {
			return err
		}
		if err := tx.DeleteSubset(subsetID); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("subset deleted", "subset", subsetID, "set", setID)
		s.broadcastSubset(setID, models.Subset{ID: subsetID, Name: subsetName}, true)
		return nil
	}

	if name != nil {
		if err := tx.UpdateSubsetName(subsetID, *name); err != nil {
			return err
		}
		subsetName = *name
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("subset updated", "subset", subsetID, "set", setID)
	s.broadcastSubset(setID, models.Subset{ID: subsetID, Name: subsetName}, false)
	return nil
}

// JoinSet redeems an invite code and returns the joined set's id. Redeeming
// counts a use; expired codes are rejected.
func (s *State) JoinSet(token, code string) (string, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return "", err
	}
	defer rollback(tx)

	user, err := tx.UserByToken(token)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidToken
	}

	invite, err := tx.InviteByCode(code)
	if err != nil {
		return "", err
	}
	if invite == nil {
		return "", ErrInviteNotFound
	}
	if invite.Expires != nil && *invite.Expires < time.Now().Unix() {
		return "", ErrInviteExpired
	}

	member, err := tx.HasMembership(user.UID, invite.SetID)
	if err != nil {
		return "", err
	}
	if member {
		return "", ErrAlreadyMember
	}

	if err := tx.InsertMembership(uuid.NewString(), user.UID, invite.SetID, false, time.Now()); err != nil {
		return "", err
	}
	if err := tx.IncrementInviteUses(invite.ID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("set joined", "set", invite.SetID, "uid", user.UID, "code", code)
	user.Online = s.voice.IsOnline(user.UID)
	s.broadcastUser(invite.SetID, *user, false)
	return invite.SetID, nil
}

// LeaveSet removes the session's user from a set.
func (s *State) LeaveSet(token, setID string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	user, err := tx.UserByToken(token)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidToken
	}

	member, err := tx.HasMembership(user.UID, setID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotMember
	}

	if err := tx.DeleteMembership(user.UID, setID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("set left", "set", setID, "uid", user.UID)
	user.Online = s.voice.IsOnline(user.UID)
	s.broadcastUser(setID, *user, true)
	return nil
}
