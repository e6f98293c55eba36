package service

import (
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"equion/internal/db"
	"equion/internal/models"
)

const defaultMessageLimit = 25

// Attachment carries a sendMessage upload: the client-supplied file name and
// base64 content.
type Attachment struct {
	Name string
	Data *string
}

// subsetAccess resolves a subset and checks the session's user belongs to
// the containing set.
func subsetAccess(tx db.Tx, token, subsetID string) (setID string, user *models.User, err error) {
	setID, ok, err := tx.SubsetSet(subsetID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrPermissions
	}
	user, err = tx.UserByToken(token)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrPermissions
	}
	member, err := tx.HasMembership(user.UID, setID)
	if err != nil {
		return "", nil, err
	}
	if !member {
		return "", nil, ErrPermissions
	}
	return setID, user, nil
}

// Messages returns a page of a subset's history, newest first. before pages
// strictly earlier than the referenced message; limit defaults to 25.
func (s *State) Messages(token, subsetID string, before *string, limit *int) ([]models.Message, error) {
	tx, err := s.store.Begin()
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	if _, _, err := subsetAccess(tx, token, subsetID); err != nil {
		return nil, err
	}

	n := defaultMessageLimit
	if limit != nil {
		n = *limit
	}

	var messages []models.Message
	if before != nil {
		messages, err = tx.MessagesBefore(subsetID, *before, n)
	} else {
		messages, err = tx.Messages(subsetID, n)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// SendMessage stores a message, optionally with an attachment, and
// broadcasts it to the set's subscribers.
func (s *State) SendMessage(token, subsetID, content string, attachment *Attachment) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	setID, user, err := subsetAccess(tx, token, subsetID)
	if err != nil {
		return err
	}

	var (
		attachmentID    *string
		attachmentModel *models.Attachment
	)
	if attachment != nil {
		if attachment.Data == nil {
			return ErrNoAttachmentData
		}
		data, err := base64.StdEncoding.DecodeString(*attachment.Data)
		if err != nil {
			return ErrAttachmentDecode
		}
		id, err := createFile(tx, attachment.Name, data, user.UID)
		if err != nil {
			return err
		}
		attachmentID = &id
		attachmentModel = models.NewAttachment(id, attachment.Name)
	}

	id := uuid.NewString()
	sendTime := time.Now()
	if err := tx.InsertMessage(id, content, subsetID, user.UID, attachmentID, sendTime); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("message sent", "message", id, "subset", subsetID, "uid", user.UID)
	s.broadcastMessage(setID, subsetID, models.Message{
		ID:          id,
		Content:     content,
		AuthorID:    user.UID,
		AuthorName:  user.DisplayName,
		AuthorImage: user.Image,
		Attachment:  attachmentModel,
		SendTime:    sendTime.Unix(),
	}, false)
	return nil
}

// UpdateMessage edits or deletes a message; only the author may do either.
func (s *State) UpdateMessage(token, messageID string, content *string, del bool) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	subsetID, senderID, ok, err := tx.MessageSubset(messageID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMessageNotFound
	}
	uid, ok, err := tx.UserIDByToken(token)
	if err != nil {
		return err
	}
	if !ok || uid != senderID {
		return ErrPermissions
	}
	setID, ok, err := tx.SubsetSet(subsetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMessageNotFound
	}

	message, err := tx.MessageByID(messageID)
	if err != nil {
		return err
	}
	if message == nil {
		return ErrMessageNotFound
	}

	if del {
		if err := tx.DeleteMessage(messageID); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("message deleted", "message", messageID, "subset", subsetID)
		s.broadcastMessage(setID, subsetID, *message, true)
		return nil
	}

	if content != nil {
		if err := tx.UpdateMessageContent(messageID, *content); err != nil {
			return err
		}
		message.Content = *content
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("message updated", "message", messageID, "subset", subsetID)
	s.broadcastMessage(setID, subsetID, *message, false)
	return nil
}

// SetTyping notifies the set's subscribers that the user is typing in a
// subset. No storage writes; still membership-gated.
func (s *State) SetTyping(token, subsetID string) error {
	tx, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer rollback(tx)

	setID, user, err := subsetAccess(tx, token, subsetID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.broadcastTyping(setID, subsetID, user.UID)
	return nil
}
