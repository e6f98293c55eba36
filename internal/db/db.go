// Package db defines the storage contract and its two implementations: a
// database/sql store (MySQL or SQLite, chosen by the configured URL) and an
// in-memory store used by tests.
//
// Every read-modify-write the services perform happens inside a single Tx.
// Methods that look up a single row report absence with ok=false or a nil
// pointer rather than an error; errors are reserved for the driver failing.
package db

import (
	"errors"
	"time"

	"equion/internal/models"
)

var (
	ErrConnect = errors.New("Could not connect to database")
	ErrBegin   = errors.New("Could not start transaction")
	ErrCommit  = errors.New("Could not commit transaction")
)

type Store interface {
	Begin() (Tx, error)
	Ping() error
	Close() error
}

// Tx is one named method per query the services run. Implementations must
// keep the ordering rules: subsets and memberships by creation time
// ascending, members by display name ascending, messages by send time
// descending.
type Tx interface {
	Commit() error
	Rollback() error

	// Users and sessions.
	UserExists(username string) (bool, error)
	InsertUser(id, username, passwordHash, displayName, email, token string, created time.Time) error
	Credentials(username string) (uid, passwordHash string, ok bool, err error)
	SetToken(token, uid string) error
	ClearToken(token string) (rows int64, err error)
	UserIDByToken(token string) (string, bool, error)
	UserByToken(token string) (*models.User, error)
	UserByID(uid string) (*models.User, error)
	UpdateUserDisplayName(token, displayName string) error
	UpdateUserEmail(token, email string) error
	UpdateUserBio(token, bio string) error
	UpdateUserImage(token, fileID string) error
	UserSetIDs(uid string) ([]string, error)

	// Files.
	InsertFile(id, name string, content []byte, owner string) error
	FileByID(id string) (*models.File, error)

	// Sets, subsets and memberships.
	SetsByToken(token string) ([]models.Set, error)
	SetByID(id string) (*models.Set, error)
	Membership(token, setID string) (uid string, admin bool, ok bool, err error)
	HasMembership(uid, setID string) (bool, error)
	InsertSet(id, name, icon string, created time.Time) error
	InsertSubset(id, name, setID string, created time.Time) error
	InsertMembership(id, uid, setID string, admin bool, created time.Time) error
	DeleteMembership(uid, setID string) error
	SubsetsBySet(setID string) ([]models.Subset, error)
	MembersBySet(setID string) ([]models.User, error)
	SubsetSet(subsetID string) (setID string, ok bool, err error)
	SubsetName(subsetID string) (string, bool, error)
	UpdateSetName(setID, name string) error
	UpdateSetIcon(setID, icon string) error
	UpdateSubsetName(subsetID, name string) error
	DeleteSubsetMessages(subsetID string) error
	DeleteSubset(subsetID string) error
	DeleteSetMessages(setID string) error
	DeleteSetSubsets(setID string) error
	DeleteSetInvites(setID string) error
	DeleteSetMemberships(setID string) error
	DeleteSet(setID string) error

	// Invites.
	InvitesBySet(setID string) ([]models.Invite, error)
	InviteByCode(code string) (*models.Invite, error)
	InsertInvite(id, setID, code string, created time.Time, expires *time.Time) error
	IncrementInviteUses(id string) error
	DeleteInvite(setID, inviteID string) (rows int64, err error)

	// Messages.
	Messages(subsetID string, limit int) ([]models.Message, error)
	MessagesBefore(subsetID, beforeID string, limit int) ([]models.Message, error)
	MessageByID(id string) (*models.Message, error)
	MessageSubset(id string) (subsetID string, senderID string, ok bool, err error)
	InsertMessage(id, content, subsetID, senderID string, attachmentID *string, sendTime time.Time) error
	UpdateMessageContent(id, content string) error
	DeleteMessage(id string) error
}
