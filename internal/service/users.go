package service

import (
	"log/slog"

	"github.com/google/uuid"

	"equion/internal/db"
	"equion/internal/models"
)

// GetUser returns the public view of an account, with the live online flag.
func (s *State) GetUser(uid string) (models.User, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer rollback(tx)

	user, err := tx.UserByID(uid)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		return models.User{}, ErrUserNotFound
	}
	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	user.Online = s.voice.IsOnline(user.UID)
	return *user, nil
}

// UpdateUser applies the provided profile fields, then fans the refreshed
// user out to every set the user belongs to.
func (s *State) UpdateUser(token string, displayName, email, bio *string) error {
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

	if displayName != nil {
		if err := tx.UpdateUserDisplayName(token, *displayName); err != nil {
			return err
		}
		user.DisplayName = *displayName
	}
	if email != nil {
		if err := tx.UpdateUserEmail(token, *email); err != nil {
			return err
		}
		user.Email = *email
	}
	if bio != nil {
		if err := tx.UpdateUserBio(token, *bio); err != nil {
			return err
		}
		user.Bio = bio
	}

	setIDs, err := tx.UserSetIDs(user.UID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("user updated", "uid", user.UID)
	user.Online = s.voice.IsOnline(user.UID)
	s.broadcastUserEverywhere(setIDs, *user)
	return nil
}

// UpdateUserImage stores the uploaded bytes as a file and points the profile
// image at it. Broadcast like any other profile update.
func (s *State) UpdateUserImage(token, name string, content []byte) error {
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

	fileID, err := createFile(tx, name, content, user.UID)
	if err != nil {
		return err
	}
	if err := tx.UpdateUserImage(token, fileID); err != nil {
		return err
	}

	setIDs, err := tx.UserSetIDs(user.UID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("user image updated", "uid", user.UID, "file", fileID)
	user.Image = &fileID
	user.Online = s.voice.IsOnline(user.UID)
	s.broadcastUserEverywhere(setIDs, *user)
	return nil
}

// GetFile loads a stored blob for the download endpoint.
func (s *State) GetFile(id string) (models.File, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return models.File{}, err
	}
	defer rollback(tx)

	file, err := tx.FileByID(id)
	if err != nil {
		return models.File{}, err
	}
	if file == nil {
		return models.File{}, ErrFileNotFound
	}
	return *file, tx.Commit()
}

// createFile is the single insertion path for stored blobs, shared by avatar
// uploads and message attachments.
func createFile(tx db.Tx, name string, content []byte, owner string) (string, error) {
	id := uuid.NewString()
	if err := tx.InsertFile(id, name, content, owner); err != nil {
		return "", err
	}
	return id, nil
}
