package db

import (
	"database/sql"
	"time"

	"equion/internal/models"
)

func (t *sqlTx) SetsByToken(token string) ([]models.Set, error) {
	rows, err := t.tx.Query(
		`SELECT sets.id, sets.name, sets.icon, memberships.admin
		 FROM sets
		 JOIN memberships ON memberships.set_id = sets.id
		 JOIN users ON users.id = memberships.user_id
		 WHERE users.token = ?
		 ORDER BY memberships.creation_date ASC`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []models.Set
	for rows.Next() {
		var s models.Set
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon, &s.Admin); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (t *sqlTx) SetByID(id string) (*models.Set, error) {
	var s models.Set
	err := t.tx.QueryRow(`SELECT id, name, icon FROM sets WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Icon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *sqlTx) Membership(token, setID string) (uid string, admin bool, ok bool, err error) {
	err = t.tx.QueryRow(
		`SELECT users.id, memberships.admin
		 FROM memberships
		 JOIN users ON users.id = memberships.user_id
		 WHERE users.token = ? AND memberships.set_id = ?`, token, setID).
		Scan(&uid, &admin)
	if err == sql.ErrNoRows {
		return "", false, false, nil
	}
	if err != nil {
		return "", false, false, err
	}
	return uid, admin, true, nil
}

func (t *sqlTx) HasMembership(uid, setID string) (bool, error) {
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM memberships WHERE user_id = ? AND set_id = ?`, uid, setID).Scan(&n)
	return n > 0, err
}

func (t *sqlTx) InsertSet(id, name, icon string, created time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO sets (id, name, icon, creation_date) VALUES (?, ?, ?, ?)`,
		id, name, icon, created)
	return err
}

func (t *sqlTx) InsertSubset(id, name, setID string, created time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO subsets (id, name, set_id, creation_date) VALUES (?, ?, ?, ?)`,
		id, name, setID, created)
	return err
}

func (t *sqlTx) InsertMembership(id, uid, setID string, admin bool, created time.Time) error {
	_, err := t.tx.Exec(
		`INSERT INTO memberships (id, user_id, set_id, admin, creation_date) VALUES (?, ?, ?, ?, ?)`,
		id, uid, setID, admin, created)
	return err
}

func (t *sqlTx) DeleteMembership(uid, setID string) error {
	_, err := t.tx.Exec(`DELETE FROM memberships WHERE user_id = ? AND set_id = ?`, uid, setID)
	return err
}

func (t *sqlTx) SubsetsBySet(setID string) ([]models.Subset, error) {
	rows, err := t.tx.Query(
		`SELECT id, name FROM subsets WHERE set_id = ? ORDER BY creation_date ASC`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subsets []models.Subset
	for rows.Next() {
		var s models.Subset
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		subsets = append(subsets, s)
	}
	return subsets, rows.Err()
}

func (t *sqlTx) MembersBySet(setID string) ([]models.User, error) {
	rows, err := t.tx.Query(
		`SELECT users.id, users.username, users.display_name, users.email, users.image, users.bio
		 FROM users
		 JOIN memberships ON memberships.user_id = users.id
		 WHERE memberships.set_id = ?
		 ORDER BY users.display_name ASC`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UID, &u.Username, &u.DisplayName, &u.Email, &u.Image, &u.Bio); err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (t *sqlTx) SubsetSet(subsetID string) (string, bool, error) {
	var setID string
	err := t.tx.QueryRow(`SELECT set_id FROM subsets WHERE id = ?`, subsetID).Scan(&setID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setID, true, nil
}

func (t *sqlTx) SubsetName(subsetID string) (string, bool, error) {
	var name string
	err := t.tx.QueryRow(`SELECT name FROM subsets WHERE id = ?`, subsetID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (t *sqlTx) UpdateSetName(setID, name string) error {
	_, err := t.tx.Exec(`UPDATE sets SET name = ? WHERE id = ?`, name, setID)
	return err
}

func (t *sqlTx) UpdateSetIcon(setID, icon string) error {
	_, err := t.tx.Exec(`UPDATE sets SET icon = ? WHERE id = ?`, icon, setID)
	return err
}

func (t *sqlTx) UpdateSubsetName(subsetID, name string) error {
	_, err := t.tx.Exec(`UPDATE subsets SET name = ? WHERE id = ?`, name, subsetID)
	return err
}

func (t *sqlTx) DeleteSubsetMessages(subsetID string) error {
	_, err := t.tx.Exec(`DELETE FROM messages WHERE subset = ?`, subsetID)
	return err
}

func (t *sqlTx) DeleteSubset(subsetID string) error {
	_, err := t.tx.Exec(`DELETE FROM subsets WHERE id = ?`, subsetID)
	return err
}

func (t *sqlTx) DeleteSetMessages(setID string) error {
	_, err := t.tx.Exec(
		`DELETE FROM messages WHERE subset IN (SELECT id FROM subsets WHERE set_id = ?)`, setID)
	return err
}

func (t *sqlTx) DeleteSetSubsets(setID string) error {
	_, err := t.tx.Exec(`DELETE FROM subsets WHERE set_id = ?`, setID)
	return err
}

func (t *sqlTx) DeleteSetInvites(setID string) error {
	_, err := t.tx.Exec(`DELETE FROM invites WHERE set_id = ?`, setID)
	return err
}

func (t *sqlTx) DeleteSetMemberships(setID string) error {
	_, err := t.tx.Exec(`DELETE FROM memberships WHERE set_id = ?`, setID)
	return err
}

func (t *sqlTx) DeleteSet(setID string) error {
	_, err := t.tx.Exec(`DELETE FROM sets WHERE id = ?`, setID)
	return err
}
