// Package models holds the wire types shared by the services, the command
// dispatcher and the transports. JSON tags follow the v1 client contract.
package models

import (
	"mime"
	"path/filepath"
)

// User is the public view of an account. PasswordHash and the session token
// never leave the db layer.
type User struct {
	UID         string  `json:"uid"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	Image       *string `json:"image,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Online      bool    `json:"online"`
}

// Set is a community: subsets (text channels), members and whoever is
// currently in one of its voice channels.
type Set struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Icon         string        `json:"icon"`
	Admin        bool          `json:"admin"`
	Subsets      []Subset      `json:"subsets"`
	Members      []User        `json:"members"`
	VoiceMembers []VoiceMember `json:"voiceMembers"`
}

type Subset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message as returned to clients; SendTime is unix seconds.
type Message struct {
	ID          string      `json:"id"`
	Content     string      `json:"content"`
	AuthorID    string      `json:"authorId"`
	AuthorName  string      `json:"authorName"`
	AuthorImage *string     `json:"authorImage,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	SendTime    int64       `json:"sendTime"`
}

// Attachment describes a stored file; Type is derived from the name
// extension when the message is hydrated.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewAttachment builds the attachment view for a stored file, deriving the
// MIME type from the file name extension. Unknown extensions fall back to
// application/octet-stream.
func NewAttachment(id, name string) *Attachment {
	t := mime.TypeByExtension(filepath.Ext(name))
	if t == "" {
		t = "application/octet-stream"
	}
	return &Attachment{ID: id, Name: name, Type: t}
}

// Invite grants membership of a set. Code is the short join code; Expires is
// unix seconds, nil for codes that never expire.
type Invite struct {
	ID      string `json:"id"`
	SetID   string `json:"set"`
	Code    string `json:"code"`
	Created int64  `json:"created"`
	Expires *int64 `json:"expires,omitempty"`
	Uses    int64  `json:"uses"`
}

// File is a stored blob. Served raw over HTTP, never marshalled to JSON.
type File struct {
	ID      string
	Name    string
	Content []byte
	Owner   string
}

// VoiceMember pairs a set member with the WebRTC peer id announced when they
// joined the voice channel.
type VoiceMember struct {
	User   User   `json:"user"`
	PeerID string `json:"peerId"`
}
