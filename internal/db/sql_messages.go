package db

import (
	"database/sql"
	"time"

	"equion/internal/models"
)

const messageColumns = `messages.id, messages.content, messages.sender,
	users.display_name, users.image, messages.send_time,
	messages.attachment, files.name`

const messageJoins = `FROM messages
	JOIN users ON users.id = messages.sender
	LEFT JOIN files ON files.id = messages.attachment`

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m              models.Message
		sendTime       time.Time
		attachmentID   sql.NullString
		attachmentName sql.NullString
	)
	err := row.Scan(&m.ID, &m.Content, &m.AuthorID, &m.AuthorName, &m.AuthorImage,
		&sendTime, &attachmentID, &attachmentName)
	if err != nil {
		return nil, err
	}
	m.SendTime = sendTime.Unix()
	if attachmentID.Valid {
		m.Attachment = models.NewAttachment(attachmentID.String, attachmentName.String)
	}
	return &m, nil
}

func (t *sqlTx) Messages(subsetID string, limit int) ([]models.Message, error) {
	rows, err := t.tx.Query(
		`SELECT `+messageColumns+` `+messageJoins+`
		 WHERE messages.subset = ?
		 ORDER BY messages.send_time DESC LIMIT ?`, subsetID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (t *sqlTx) MessagesBefore(subsetID, beforeID string, limit int) ([]models.Message, error) {
	rows, err := t.tx.Query(
		`SELECT `+messageColumns+` `+messageJoins+`
		 WHERE messages.subset = ?
		   AND messages.send_time < (SELECT send_time FROM messages WHERE id = ?)
		 ORDER BY messages.send_time DESC LIMIT ?`, subsetID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (t *sqlTx) MessageByID(id string) (*models.Message, error) {
	m, err := scanMessage(t.tx.QueryRow(
		`SELECT ` + messageColumns + ` ` + messageJoins + ` WHERE messages.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (t *sqlTx) MessageSubset(id string) (subsetID, senderID string, ok bool, err error) {
	err = t.tx.QueryRow(`SELECT subset, sender FROM messages WHERE id = ?`, id).
		Scan(&subsetID, &senderID)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return subsetID, senderID, true, nil
}

func (t *sqlTx) InsertMessage(id, content, subsetID, senderID string, attachmentID *string, sendTime time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO messages (id, content, subset, sender, attachment, send_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, content, subsetID, senderID, attachmentID, sendTime)
	return err
}

func (t *sqlTx) UpdateMessageContent(id, content string) error {
	_, err := t.tx.Exec(`UPDATE messages SET content = ? WHERE id = ?`, content, id)
	return err
}

func (t *sqlTx) DeleteMessage(id string) error {
	_, err := t.tx.Exec(`DELETE FROM messages WHERE id = ?`, id)
	return err
}
