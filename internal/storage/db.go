package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"grievance/internal"
	"grievance/internal/normalize"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  mobile TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_name_mobile ON users(name, mobile);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS complaints (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  userId INTEGER,
  emailId INTEGER,
  fullName TEXT NOT NULL DEFAULT '',
  village TEXT NOT NULL DEFAULT '',
  pincode TEXT NOT NULL DEFAULT '',
  aadhar TEXT NOT NULL DEFAULT '',
  complaintText TEXT NOT NULL,
  department TEXT NOT NULL,
  standardized TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(userId) REFERENCES users(id),
  FOREIGN KEY(emailId) REFERENCES emails(id)
);
CREATE INDEX IF NOT EXISTS idx_complaints_createdAt ON complaints(createdAt);

CREATE TABLE IF NOT EXISTS normalized_complaints (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  complaintText TEXT NOT NULL,
  lang TEXT NOT NULL,
  village TEXT NOT NULL,
  reportDate TEXT NOT NULL,
  category TEXT NOT NULL,
  sentiment TEXT NOT NULL,
  priority TEXT NOT NULL,
  standardized TEXT NOT NULL,
  rowJson TEXT NOT NULL,
  UNIQUE(runId, rowNo)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  emailId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(emailId) REFERENCES emails(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// GetOrCreateUser finds a citizen by name and mobile, registering them on
// first login.
func (d *DB) GetOrCreateUser(name, mobile string) (internal.User, error) {
	user := internal.User{Name: name, Mobile: mobile, Role: internal.RoleUser}
	err := d.conn.QueryRow(`SELECT id, email, role FROM users WHERE name = ? AND mobile = ? ORDER BY id LIMIT 1`, name, mobile).
		Scan(&user.ID, &user.Email, &user.Role)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return internal.User{}, err
	}

	result, err := d.conn.Exec(`INSERT INTO users (name, mobile, role) VALUES (?, ?, ?)`, name, mobile, string(internal.RoleUser))
	if err != nil {
		return internal.User{}, err
	}
	user.ID, err = result.LastInsertId()
	return user, err
}

// GetOrCreateUserByEmail is the mail-intake counterpart of GetOrCreateUser.
func (d *DB) GetOrCreateUserByEmail(name, email string) (internal.User, error) {
	user := internal.User{Name: name, Email: email, Role: internal.RoleUser}
	err := d.conn.QueryRow(`SELECT id, name, mobile, role FROM users WHERE email = ? ORDER BY id LIMIT 1`, email).
		Scan(&user.ID, &user.Name, &user.Mobile, &user.Role)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return internal.User{}, err
	}

	result, err := d.conn.Exec(`INSERT INTO users (name, email, role) VALUES (?, ?, ?)`, name, email, string(internal.RoleUser))
	if err != nil {
		return internal.User{}, err
	}
	user.ID, err = result.LastInsertId()
	return user, err
}

func (d *DB) InsertComplaint(c internal.Complaint) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO complaints (userId, emailId, fullName, village, pincode, aadhar, complaintText, department, standardized, source, createdAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), CURRENT_TIMESTAMP))
`, c.UserID, c.EmailID, c.FullName, c.Village, c.Pincode, c.Aadhar, c.ComplaintText, c.Department, c.Standardized, string(c.Source), c.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListComplaintsWithUsers returns complaints joined with their filer, newest
// first.
func (d *DB) ListComplaintsWithUsers() ([]internal.ComplaintListing, error) {
	rows, err := d.conn.Query(`
SELECT u.name, u.mobile, c.fullName, c.village, c.pincode, c.aadhar,
       c.complaintText, c.department, c.standardized, c.createdAt
FROM complaints c
JOIN users u ON c.userId = u.id
ORDER BY c.createdAt DESC, c.id DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.ComplaintListing{}
	for rows.Next() {
		var l internal.ComplaintListing
		if err := rows.Scan(&l.UserName, &l.UserMobile, &l.FullName, &l.Village, &l.Pincode, &l.Aadhar,
			&l.ComplaintText, &l.Department, &l.Standardized, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListComplaints returns every complaint in insertion order.
func (d *DB) ListComplaints() ([]internal.Complaint, error) {
	rows, err := d.conn.Query(`
SELECT id, userId, emailId, fullName, village, pincode, aadhar, complaintText, department, standardized, source, createdAt
FROM complaints ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Complaint
	for rows.Next() {
		var c internal.Complaint
		var source string
		if err := rows.Scan(&c.ID, &c.UserID, &c.EmailID, &c.FullName, &c.Village, &c.Pincode, &c.Aadhar,
			&c.ComplaintText, &c.Department, &c.Standardized, &source, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Source = internal.ComplaintSource(source)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) DeleteComplaintsByEmail(emailID int) error {
	_, err := d.conn.Exec(`DELETE FROM complaints WHERE emailId = ?`, emailID)
	return err
}

// DeleteComplaintsByEmailExcept removes every complaint of emailID other than keepID.
func (d *DB) DeleteComplaintsByEmailExcept(emailID int, keepID int64) error {
	_, err := d.conn.Exec(`DELETE FROM complaints WHERE emailId = ? AND id <> ?`, emailID, keepID)
	return err
}

func (d *DB) CountComplaintsByEmail(emailID int) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM complaints WHERE emailId = ?`, emailID).Scan(&n)
	return n, err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListEmailsByStatus returns up to limit emails in status, oldest first. An
// empty provider matches every provider.
func (d *DB) ListEmailsByStatus(status, provider string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? AND (? = '' OR provider = ?)
ORDER BY receivedAt ASC, id ASC LIMIT ?
`, status, provider, provider, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

// InsertNormalizedBatch stores one processed dataset under runID in a single
// transaction. header fixes the column set of each row's JSON snapshot.
func (d *DB) InsertNormalizedBatch(runID string, header []string, records []normalize.Record) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO normalized_complaints (
  runId, rowNo, complaintText, lang, village, reportDate, category, sentiment, priority, standardized, rowJson
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		snapshot := make(map[string]string, len(header))
		for _, col := range header {
			snapshot[col] = rec.Value(col)
		}
		rowJSON, _ := json.Marshal(snapshot)
		if _, err := stmt.Exec(
			runID, i+1, rec.ComplaintText, rec.Lang, rec.Village, rec.Date,
			rec.Category, rec.Sentiment, rec.Priority, rec.StandardizedComplaint, string(rowJSON),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountNormalized returns how many rows a run stored.
func (d *DB) CountNormalized(runID string) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM normalized_complaints WHERE runId = ?`, runID).Scan(&n)
	return n, err
}

func (d *DB) InsertRun(traceID, kind string, emailID *int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, emailId, timingsJson, countsJson) VALUES (?, ?, ?, ?, ?)`,
		traceID, kind, emailID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
