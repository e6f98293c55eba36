package db

import (
	"database/sql"
	"time"

	"equion/internal/models"
)

func (t *sqlTx) UserExists(username string) (bool, error) {
	var n int
	err := t.tx.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	return n > 0, err
}

func (t *sqlTx) InsertUser(id, username, passwordHash, displayName, email, token string, created time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO users (id, username, password, display_name, email, token, creation_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, username, passwordHash, displayName, email, token, created,
	)
	return err
}

func (t *sqlTx) Credentials(username string) (uid, passwordHash string, ok bool, err error) {
	err = t.tx.QueryRow(`SELECT id, password FROM users WHERE username = ?`, username).
		Scan(&uid, &passwordHash)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return uid, passwordHash, true, nil
}

func (t *sqlTx) SetToken(token, uid string) error {
	_, err := t.tx.Exec(`UPDATE users SET token = ? WHERE id = ?`, token, uid)
	return err
}

func (t *sqlTx) ClearToken(token string) (int64, error) {
	res, err := t.tx.Exec(`UPDATE users SET token = NULL WHERE token = ?`, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqlTx) UserIDByToken(token string) (string, bool, error) {
	var uid string
	err := t.tx.QueryRow(`SELECT id FROM users WHERE token = ?`, token).Scan(&uid)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return uid, true, nil
}

const userColumns = `id, username, display_name, email, image, bio`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.UID, &u.Username, &u.DisplayName, &u.Email, &u.Image, &u.Bio)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *sqlTx) UserByToken(token string) (*models.User, error) {
	return scanUser(t.tx.QueryRow(`SELECT `+userColumns+` FROM users WHERE token = ?`, token))
}

func (t *sqlTx) UserByID(uid string) (*models.User, error) {
	return scanUser(t.tx.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, uid))
}

func (t *sqlTx) UpdateUserDisplayName(token, displayName string) error {
	_, err := t.tx.Exec(`UPDATE users SET display_name = ? WHERE token = ?`, displayName, token)
	return err
}

func (t *sqlTx) UpdateUserEmail(token, email string) error {
	_, err := t.tx.Exec(`UPDATE users SET email = ? WHERE token = ?`, email, token)
	return err
}

func (t *sqlTx) UpdateUserBio(token, bio string) error {
	_, err := t.tx.Exec(`UPDATE users SET bio = ? WHERE token = ?`, bio, token)
	return err
}

func (t *sqlTx) UpdateUserImage(token, fileID string) error {
	_, err := t.tx.Exec(`UPDATE users SET image = ? WHERE token = ?`, fileID, token)
	return err
}

func (t *sqlTx) UserSetIDs(uid string) ([]string, error) {
	rows, err := t.tx.Query(
		`SELECT set_id FROM memberships WHERE user_id = ? ORDER BY creation_date ASC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *sqlTx) InsertFile(id, name string, content []byte, owner string) error {
	_, err := t.tx.Exec(
		`INSERT INTO files (id, name, content, owner) VALUES (?, ?, ?, ?)`,
		id, name, content, owner,
	)
	return err
}

func (t *sqlTx) FileByID(id string) (*models.File, error) {
	var f models.File
	err := t.tx.QueryRow(`SELECT id, name, content, owner FROM files WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Content, &f.Owner)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
