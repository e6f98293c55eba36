package db

import (
	"database/sql"
	"time"

	"equion/internal/models"
)

func scanInvite(row rowScanner) (*models.Invite, error) {
	var (
		i       models.Invite
		created time.Time
		expires sql.NullTime
	)
	err := row.Scan(&i.ID, &i.SetID, &i.Code, &created, &expires, &i.Uses)
	if err != nil {
		return nil, err
	}
	i.Created = created.Unix()
	if expires.Valid {
		unix := expires.Time.Unix()
		i.Expires = &unix
	}
	return &i, nil
}

func (t *sqlTx) InvitesBySet(setID string) ([]models.Invite, error) {
	rows, err := t.tx.Query(
		`SELECT id, set_id, code, creation_date, expiry_date, uses
		 FROM invites WHERE set_id = ? ORDER BY creation_date ASC`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *i)
	}
	return invites, rows.Err()
}

func (t *sqlTx) InviteByCode(code string) (*models.Invite, error) {
	i, err := scanInvite(t.tx.QueryRow(
		`SELECT id, set_id, code, creation_date, expiry_date, uses
		 FROM invites WHERE code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return i, err
}

func (t *sqlTx) InsertInvite(id, setID, code string, created time.Time, expires *time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO invites (id, set_id, code, creation_date, expiry_date, uses)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		id, setID, code, created, expires)
	return err
}

func (t *sqlTx) IncrementInviteUses(id string) error {
	_, err := t.tx.Exec(`UPDATE invites SET uses = uses + 1 WHERE id = ?`, id)
	return err
}

func (t *sqlTx) DeleteInvite(setID, inviteID string) (int64, error) {
	res, err := t.tx.Exec(`DELETE FROM invites WHERE id = ? AND set_id = ?`, inviteID, setID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
