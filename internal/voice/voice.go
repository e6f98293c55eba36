// Package voice tracks which users have announced themselves to the voice
// signalling plane and which voice channel (set) each one occupies. Media
// itself flows peer to peer; the server only relays presence and peer ids.
package voice

import (
	"errors"
	"sync"
)

var (
	ErrNotConnected   = errors.New("User not connected to voice server")
	ErrAlreadyInVoice = errors.New("User already in voice channel")
	ErrNotInVoice     = errors.New("User is not in a voice channel")
)

// User is a voice-connected account. ChannelID is nil until the user joins a
// channel. Addr is the live-connection address the presence rides on.
type User struct {
	UID       string
	ChannelID *string
	Addr      string
	PeerID    string
}

// Registry is the in-memory presence table. All methods are safe for
// concurrent use; none of them block on anything but the internal lock.
type Registry struct {
	mu       sync.RWMutex
	online   map[string]*User   // uid -> user
	channels map[string][]string // channel id -> member uids
}

func NewRegistry() *Registry {
	return &Registry{
		online:   make(map[string]*User),
		channels: make(map[string][]string),
	}
}

// Connect marks uid online on addr. Reconnecting replaces the previous
// registration wholesale.
func (r *Registry) Connect(uid, peerID, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.online[uid]; ok && prev.ChannelID != nil {
		r.removeFromChannel(*prev.ChannelID, uid)
	}
	r.online[uid] = &User{UID: uid, Addr: addr, PeerID: peerID}
}

// Disconnect drops uid from the registry and from any channel it occupied.
// Returns the channel it was in, if any.
func (r *Registry) Disconnect(uid string) (channelID *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.online[uid]
	if !ok {
		return nil
	}
	if u.ChannelID != nil {
		r.removeFromChannel(*u.ChannelID, uid)
		channelID = u.ChannelID
	}
	delete(r.online, uid)
	return channelID
}

// Get returns a copy of the registration for uid.
func (r *Registry) Get(uid string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.online[uid]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// ByAddr finds the registration riding on a live-connection address.
func (r *Registry) ByAddr(addr string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.online {
		if u.Addr == addr {
			return *u, true
		}
	}
	return User{}, false
}

func (r *Registry) IsOnline(uid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.online[uid]
	return ok
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}

// JoinChannel moves uid into channelID. The caller must have left any
// previous channel first; double joins are an error.
func (r *Registry) JoinChannel(uid, channelID string) (peerID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.online[uid]
	if !ok {
		return "", ErrNotConnected
	}
	if u.ChannelID != nil {
		return "", ErrAlreadyInVoice
	}
	u.ChannelID = &channelID
	r.channels[channelID] = append(r.channels[channelID], uid)
	return u.PeerID, nil
}

// LeaveChannel removes uid from its channel and reports which channel that
// was.
func (r *Registry) LeaveChannel(uid string) (channelID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.online[uid]
	if !ok {
		return "", ErrNotConnected
	}
	if u.ChannelID == nil {
		return "", ErrNotInVoice
	}
	channelID = *u.ChannelID
	r.removeFromChannel(channelID, uid)
	u.ChannelID = nil
	return channelID, nil
}

// ChannelMembers returns the uids in channelID along with their peer ids.
func (r *Registry) ChannelMembers(channelID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uids := r.channels[channelID]
	members := make([]User, 0, len(uids))
	for _, uid := range uids {
		if u, ok := r.online[uid]; ok {
			members = append(members, *u)
		}
	}
	return members
}

// removeFromChannel swaps the departing uid with the last element, matching
// the unordered semantics of channel membership. Caller holds the lock.
func (r *Registry) removeFromChannel(channelID, uid string) {
	uids := r.channels[channelID]
	for i, id := range uids {
		if id == uid {
			uids[i] = uids[len(uids)-1]
			uids = uids[:len(uids)-1]
			break
		}
	}
	if len(uids) == 0 {
		delete(r.channels, channelID)
	} else {
		r.channels[channelID] = uids
	}
}
