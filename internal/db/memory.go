package db

import (
	"sort"
	"sync"
	"time"

	"equion/internal/models"
)

// Memory is an in-process store with the same contract as the SQL store.
// A transaction holds the store lock from Begin to Commit or Rollback, so
// writes are serialized; rollback does not undo writes, which mirrors how
// the services use transactions (they only roll back after a failed read).
type Memory struct {
	mu sync.Mutex

	users       []*userRow
	sets        []*setRow
	subsets     []*subsetRow
	memberships []*membershipRow
	invites     []*inviteRow
	messages    []*messageRow
	files       []*fileRow
}

type userRow struct {
	id, username, password, displayName, email string
	token, image, bio                          *string
	created                                    time.Time
}

type setRow struct {
	id, name, icon string
	created        time.Time
}

type subsetRow struct {
	id, name, setID string
	created         time.Time
}

type membershipRow struct {
	id, uid, setID string
	admin          bool
	created        time.Time
}

type inviteRow struct {
	id, setID, code string
	created         time.Time
	expires         *time.Time
	uses            int64
}

type messageRow struct {
	id, content, subsetID, senderID string
	attachmentID                    *string
	sendTime                        time.Time
}

type fileRow struct {
	id, name, owner string
	content         []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Begin() (Tx, error) {
	m.mu.Lock()
	return &memTx{m: m}, nil
}

func (m *Memory) Ping() error { return nil }

func (m *Memory) Close() error { return nil }

type memTx struct {
	m    *Memory
	done bool
}

func (t *memTx) finish() {
	if !t.done {
		t.done = true
		t.m.mu.Unlock()
	}
}

func (t *memTx) Commit() error   { t.finish(); return nil }
func (t *memTx) Rollback() error { t.finish(); return nil }

// Users and sessions.

func (t *memTx) userByToken(token string) *userRow {
	for _, u := range t.m.users {
		if u.token != nil && *u.token == token {
			return u
		}
	}
	return nil
}

func (t *memTx) UserExists(username string) (bool, error) {
	for _, u := range t.m.users {
		if u.username == username {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertUser(id, username, passwordHash, displayName, email, token string, created time.Time) error {
	t.m.users = append(t.m.users, &userRow{
		id: id, username: username, password: passwordHash,
		displayName: displayName, email: email, token: &token, created: created,
	})
	return nil
}

func (t *memTx) Credentials(username string) (string, string, bool, error) {
	for _, u := range t.m.users {
		if u.username == username {
			return u.id, u.password, true, nil
		}
	}
	return "", "", false, nil
}

func (t *memTx) SetToken(token, uid string) error {
	for _, u := range t.m.users {
		if u.id == uid {
			tok := token
			u.token = &tok
		}
	}
	return nil
}

func (t *memTx) ClearToken(token string) (int64, error) {
	var rows int64
	for _, u := range t.m.users {
		if u.token != nil && *u.token == token {
			u.token = nil
			rows++
		}
	}
	return rows, nil
}

func (t *memTx) UserIDByToken(token string) (string, bool, error) {
	if u := t.userByToken(token); u != nil {
		return u.id, true, nil
	}
	return "", false, nil
}

func publicUser(u *userRow) *models.User {
	return &models.User{
		UID:         u.id,
		Username:    u.username,
		DisplayName: u.displayName,
		Email:       u.email,
		Image:       u.image,
		Bio:         u.bio,
	}
}

func (t *memTx) UserByToken(token string) (*models.User, error) {
	if u := t.userByToken(token); u != nil {
		return publicUser(u), nil
	}
	return nil, nil
}

func (t *memTx) UserByID(uid string) (*models.User, error) {
	for _, u := range t.m.users {
		if u.id == uid {
			return publicUser(u), nil
		}
	}
	return nil, nil
}

func (t *memTx) UpdateUserDisplayName(token, displayName string) error {
	if u := t.userByToken(token); u != nil {
		u.displayName = displayName
	}
	return nil
}

func (t *memTx) UpdateUserEmail(token, email string) error {
	if u := t.userByToken(token); u != nil {
		u.email = email
	}
	return nil
}

func (t *memTx) UpdateUserBio(token, bio string) error {
	if u := t.userByToken(token); u != nil {
		b := bio
		u.bio = &b
	}
	return nil
}

func (t *memTx) UpdateUserImage(token, fileID string) error {
	if u := t.userByToken(token); u != nil {
		f := fileID
		u.image = &f
	}
	return nil
}

func (t *memTx) UserSetIDs(uid string) ([]string, error) {
	var rows []*membershipRow
	for _, m := range t.m.memberships {
		if m.uid == uid {
			rows = append(rows, m)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.Before(rows[j].created) })
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.setID)
	}
	return ids, nil
}

// Files.

func (t *memTx) InsertFile(id, name string, content []byte, owner string) error {
	t.m.files = append(t.m.files, &fileRow{id: id, name: name, content: content, owner: owner})
	return nil
}

func (t *memTx) FileByID(id string) (*models.File, error) {
	for _, f := range t.m.files {
		if f.id == id {
			return &models.File{ID: f.id, Name: f.name, Content: f.content, Owner: f.owner}, nil
		}
	}
	return nil, nil
}

// Sets, subsets and memberships.

func (t *memTx) setByID(id string) *setRow {
	for _, s := range t.m.sets {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (t *memTx) SetsByToken(token string) ([]models.Set, error) {
	u := t.userByToken(token)
	if u == nil {
		return nil, nil
	}
	var rows []*membershipRow
	for _, m := range t.m.memberships {
		if m.uid == u.id {
			rows = append(rows, m)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.Before(rows[j].created) })

	var sets []models.Set
	for _, m := range rows {
		if s := t.setByID(m.setID); s != nil {
			sets = append(sets, models.Set{ID: s.id, Name: s.name, Icon: s.icon, Admin: m.admin})
		}
	}
	return sets, nil
}

func (t *memTx) SetByID(id string) (*models.Set, error) {
	if s := t.setByID(id); s != nil {
		return &models.Set{ID: s.id, Name: s.name, Icon: s.icon}, nil
	}
	return nil, nil
}

func (t *memTx) Membership(token, setID string) (string, bool, bool, error) {
	u := t.userByToken(token)
	if u == nil {
		return "", false, false, nil
	}
	for _, m := range t.m.memberships {
		if m.uid == u.id && m.setID == setID {
			return u.id, m.admin, true, nil
		}
	}
	return "", false, false, nil
}

func (t *memTx) HasMembership(uid, setID string) (bool, error) {
	for _, m := range t.m.memberships {
		if m.uid == uid && m.setID == setID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertSet(id, name, icon string, created time.Time) error {
	t.m.sets = append(t.m.sets, &setRow{id: id, name: name, icon: icon, created: created})
	return nil
}

func (t *memTx) InsertSubset(id, name, setID string, created time.Time) error {
	t.m.subsets = append(t.m.subsets, &subsetRow{id: id, name: name, setID: setID, created: created})
	return nil
}

func (t *memTx) InsertMembership(id, uid, setID string, admin bool, created time.Time) error {
	t.m.memberships = append(t.m.memberships, &membershipRow{
		id: id, uid: uid, setID: setID, admin: admin, created: created,
	})
	return nil
}

func (t *memTx) DeleteMembership(uid, setID string) error {
	t.m.memberships = deleteRows(t.m.memberships, func(m *membershipRow) bool {
		return m.uid == uid && m.setID == setID
	})
	return nil
}

func (t *memTx) SubsetsBySet(setID string) ([]models.Subset, error) {
	var rows []*subsetRow
	for _, s := range t.m.subsets {
		if s.setID == setID {
			rows = append(rows, s)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.Before(rows[j].created) })
	subsets := make([]models.Subset, 0, len(rows))
	for _, s := range rows {
		subsets = append(subsets, models.Subset{ID: s.id, Name: s.name})
	}
	return subsets, nil
}

func (t *memTx) MembersBySet(setID string) ([]models.User, error) {
	var members []models.User
	for _, m := range t.m.memberships {
		if m.setID != setID {
			continue
		}
		for _, u := range t.m.users {
			if u.id == m.uid {
				members = append(members, *publicUser(u))
			}
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].DisplayName < members[j].DisplayName
	})
	return members, nil
}

func (t *memTx) SubsetSet(subsetID string) (string, bool, error) {
	for _, s := range t.m.subsets {
		if s.id == subsetID {
			return s.setID, true, nil
		}
	}
	return "", false, nil
}

func (t *memTx) SubsetName(subsetID string) (string, bool, error) {
	for _, s := range t.m.subsets {
		if s.id == subsetID {
			return s.name, true, nil
		}
	}
	return "", false, nil
}

func (t *memTx) UpdateSetName(setID, name string) error {
	if s := t.setByID(setID); s != nil {
		s.name = name
	}
	return nil
}

func (t *memTx) UpdateSetIcon(setID, icon string) error {
	if s := t.setByID(setID); s != nil {
		s.icon = icon
	}
	return nil
}

func (t *memTx) UpdateSubsetName(subsetID, name string) error {
	for _, s := range t.m.subsets {
		if s.id == subsetID {
			s.name = name
		}
	}
	return nil
}

func (t *memTx) DeleteSubsetMessages(subsetID string) error {
	t.m.messages = deleteRows(t.m.messages, func(m *messageRow) bool {
		return m.subsetID == subsetID
	})
	return nil
}

func (t *memTx) DeleteSubset(subsetID string) error {
	t.m.subsets = deleteRows(t.m.subsets, func(s *subsetRow) bool { return s.id == subsetID })
	return nil
}

func (t *memTx) DeleteSetMessages(setID string) error {
	for _, s := range t.m.subsets {
		if s.setID == setID {
			t.DeleteSubsetMessages(s.id)
		}
	}
	return nil
}

func (t *memTx) DeleteSetSubsets(setID string) error {
	t.m.subsets = deleteRows(t.m.subsets, func(s *subsetRow) bool { return s.setID == setID })
	return nil
}

func (t *memTx) DeleteSetInvites(setID string) error {
	t.m.invites = deleteRows(t.m.invites, func(i *inviteRow) bool { return i.setID == setID })
	return nil
}

func (t *memTx) DeleteSetMemberships(setID string) error {
	t.m.memberships = deleteRows(t.m.memberships, func(m *membershipRow) bool {
		return m.setID == setID
	})
	return nil
}

func (t *memTx) DeleteSet(setID string) error {
	t.m.sets = deleteRows(t.m.sets, func(s *setRow) bool { return s.id == setID })
	return nil
}

// Invites.

func inviteView(i *inviteRow) *models.Invite {
	v := &models.Invite{
		ID:      i.id,
		SetID:   i.setID,
		Code:    i.code,
		Created: i.created.Unix(),
		Uses:    i.uses,
	}
	if i.expires != nil {
		unix := i.expires.Unix()
		v.Expires = &unix
	}
	return v
}

func (t *memTx) InvitesBySet(setID string) ([]models.Invite, error) {
	var rows []*inviteRow
	for _, i := range t.m.invites {
		if i.setID == setID {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.Before(rows[j].created) })
	invites := make([]models.Invite, 0, len(rows))
	for _, i := range rows {
		invites = append(invites, *inviteView(i))
	}
	return invites, nil
}

func (t *memTx) InviteByCode(code string) (*models.Invite, error) {
	for _, i := range t.m.invites {
		if i.code == code {
			return inviteView(i), nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertInvite(id, setID, code string, created time.Time, expires *time.Time) error {
	t.m.invites = append(t.m.invites, &inviteRow{
		id: id, setID: setID, code: code, created: created, expires: expires,
	})
	return nil
}

func (t *memTx) IncrementInviteUses(id string) error {
	for _, i := range t.m.invites {
		if i.id == id {
			i.uses++
		}
	}
	return nil
}

func (t *memTx) DeleteInvite(setID, inviteID string) (int64, error) {
	var rows int64
	t.m.invites = deleteRows(t.m.invites, func(i *inviteRow) bool {
		if i.id == inviteID && i.setID == setID {
			rows++
			return true
		}
		return false
	})
	return rows, nil
}

// Messages.

func (t *memTx) messageView(m *messageRow) *models.Message {
	msg := &models.Message{
		ID:       m.id,
		Content:  m.content,
		AuthorID: m.senderID,
		SendTime: m.sendTime.Unix(),
	}
	for _, u := range t.m.users {
		if u.id == m.senderID {
			msg.AuthorName = u.displayName
			msg.AuthorImage = u.image
		}
	}
	if m.attachmentID != nil {
		for _, f := range t.m.files {
			if f.id == *m.attachmentID {
				msg.Attachment = models.NewAttachment(f.id, f.name)
			}
		}
	}
	return msg
}

func (t *memTx) subsetMessages(subsetID string) []*messageRow {
	var rows []*messageRow
	for _, m := range t.m.messages {
		if m.subsetID == subsetID {
			rows = append(rows, m)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].sendTime.After(rows[j].sendTime) })
	return rows
}

func (t *memTx) Messages(subsetID string, limit int) ([]models.Message, error) {
	rows := t.subsetMessages(subsetID)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	messages := make([]models.Message, 0, len(rows))
	for _, m := range rows {
		messages = append(messages, *t.messageView(m))
	}
	return messages, nil
}

func (t *memTx) MessagesBefore(subsetID, beforeID string, limit int) ([]models.Message, error) {
	var cutoff *time.Time
	for _, m := range t.m.messages {
		if m.id == beforeID {
			cutoff = &m.sendTime
		}
	}
	if cutoff == nil {
		return nil, nil
	}
	var messages []models.Message
	for _, m := range t.subsetMessages(subsetID) {
		if len(messages) == limit {
			break
		}
		if m.sendTime.Before(*cutoff) {
			messages = append(messages, *t.messageView(m))
		}
	}
	return messages, nil
}

func (t *memTx) MessageByID(id string) (*models.Message, error) {
	for _, m := range t.m.messages {
		if m.id == id {
			return t.messageView(m), nil
		}
	}
	return nil, nil
}

func (t *memTx) MessageSubset(id string) (string, string, bool, error) {
	for _, m := range t.m.messages {
		if m.id == id {
			return m.subsetID, m.senderID, true, nil
		}
	}
	return "", "", false, nil
}

func (t *memTx) InsertMessage(id, content, subsetID, senderID string, attachmentID *string, sendTime time.Time) error {
	t.m.messages = append(t.m.messages, &messageRow{
		id: id, content: content, subsetID: subsetID, senderID: senderID,
		attachmentID: attachmentID, sendTime: sendTime,
	})
	return nil
}

func (t *memTx) UpdateMessageContent(id, content string) error {
	for _, m := range t.m.messages {
		if m.id == id {
			m.content = content
		}
	}
	return nil
}

func (t *memTx) DeleteMessage(id string) error {
	t.m.messages = deleteRows(t.m.messages, func(m *messageRow) bool { return m.id == id })
	return nil
}

func deleteRows[T any](rows []*T, match func(*T) bool) []*T {
	kept := rows[:0]
	for _, r := range rows {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
