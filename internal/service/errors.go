package service

import "errors"

// Client-visible failures. The dispatcher serializes these verbatim into the
// error field of the response envelope, so the strings are part of the wire
// contract.
var (
	ErrInvalidToken    = errors.New("Invalid token")
	ErrInvalidLogin    = errors.New("Invalid username or password")
	ErrUsernameTaken   = errors.New("Username already exists")
	ErrUsernameShort   = errors.New("Username must be at least 3 characters long.")
	ErrUsernameCharset = errors.New("Username can only contain ASCII letters, numbers, underscores and hyphens.")
	ErrPasswordShort   = errors.New("Password must be at least 6 characters long.")
	ErrDisplayName     = errors.New("You must enter a display name.")

	ErrUserNotFound    = errors.New("User not found")
	ErrFileNotFound    = errors.New("File not found")
	ErrSetNotFound     = errors.New("Set not found")
	ErrMessageNotFound = errors.New("Message not found")
	ErrInviteNotFound  = errors.New("Invite not found")

	ErrNotMember     = errors.New("Not a member of this set")
	ErrAlreadyMember = errors.New("Already a member of this set")
	ErrNotAdmin      = errors.New("User is not an admin of the set")
	ErrPermissions   = errors.New("Insufficient permissions")

	ErrInviteExpired = errors.New("Invite code expired")
	ErrCustomCode    = errors.New("Custom invite codes require a subscription to Equion Diffontial")

	ErrNoAttachmentData  = errors.New("No attachment content provided")
	ErrAttachmentDecode  = errors.New("Could not decode attachment")
	ErrAlreadySubscribed = errors.New("Already subscribed")
	ErrNotSubscribed     = errors.New("Not subscribed")
)
