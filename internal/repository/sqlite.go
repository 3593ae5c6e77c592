package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/talentrelay/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("module", "repository").Str("dsn", dsn).Msg("sqlite store ready")
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			start_date DATETIME,
			end_date DATETIME,
			location TEXT,
			talent_id INTEGER,
			club_id INTEGER,
			agent_id INTEGER,
			doctor_id INTEGER,
			attendees TEXT,
			is_video_meeting INTEGER NOT NULL DEFAULT 0,
			meeting_link TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_by INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS video_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			host_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			appointment_id INTEGER,
			status TEXT NOT NULL DEFAULT 'scheduled',
			start_time DATETIME NOT NULL,
			actual_start_time DATETIME,
			actual_end_time DATETIME,
			recording_url TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (appointment_id) REFERENCES appointments(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_video_sessions_host ON video_sessions(host_id)`,
		`CREATE TABLE IF NOT EXISTS video_session_participants (
			session_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, user_id),
			FOREIGN KEY (session_id) REFERENCES video_sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON video_session_participants(user_id)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			talent_id INTEGER,
			club_id INTEGER,
			agent_id INTEGER,
			doctor_id INTEGER,
			message TEXT NOT NULL,
			is_from_user INTEGER NOT NULL,
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages(user_id, timestamp)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const videoSessionColumns = `id, session_id, host_id, title, description, appointment_id, status, start_time, actual_start_time, actual_end_time, recording_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideoSession(row rowScanner) (*domain.VideoSession, error) {
	var vs domain.VideoSession
	var description, recordingURL sql.NullString
	var appointmentID sql.NullInt64
	var actualStart, actualEnd sql.NullTime
	if err := row.Scan(&vs.ID, &vs.SessionID, &vs.HostID, &vs.Title, &description, &appointmentID, &vs.Status,
		&vs.StartTime, &actualStart, &actualEnd, &recordingURL, &vs.CreatedAt, &vs.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		vs.Description = description.String
	}
	if appointmentID.Valid {
		id := appointmentID.Int64
		vs.AppointmentID = &id
	}
	if actualStart.Valid {
		vs.ActualStartTime = &actualStart.Time
	}
	if actualEnd.Valid {
		vs.ActualEndTime = &actualEnd.Time
	}
	if recordingURL.Valid {
		vs.RecordingURL = recordingURL.String
	}
	return &vs, nil
}

// CreateVideoSession inserts the session and its participant set, assigning session.ID.
func (s *SQLiteStore) CreateVideoSession(ctx context.Context, session *domain.VideoSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	if session.Status == "" {
		session.Status = domain.SessionStatusScheduled
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO video_sessions (session_id, host_id, title, description, appointment_id, status, start_time, recording_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.HostID, session.Title, nullString(session.Description), nullInt64Ptr(session.AppointmentID),
		session.Status, session.StartTime, nullString(session.RecordingURL), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	session.Participants = domain.ParticipantSet(session.Participants...)
	for _, userID := range session.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO video_session_participants (session_id, user_id, added_at) VALUES (?, ?, ?)`,
			id, userID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	session.ID = id
	return nil
}

// GetVideoSession retrieves a session by its internal id.
func (s *SQLiteStore) GetVideoSession(ctx context.Context, id int64) (*domain.VideoSession, error) {
	vs, err := scanVideoSession(s.db.QueryRowContext(ctx,
		`SELECT `+videoSessionColumns+` FROM video_sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if vs.Participants, err = s.participants(ctx, vs.ID); err != nil {
		return nil, err
	}
	return vs, nil
}

// GetVideoSessionBySessionID retrieves a session by its external token.
func (s *SQLiteStore) GetVideoSessionBySessionID(ctx context.Context, sessionID string) (*domain.VideoSession, error) {
	vs, err := scanVideoSession(s.db.QueryRowContext(ctx,
		`SELECT `+videoSessionColumns+` FROM video_sessions WHERE session_id = ?`, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if vs.Participants, err = s.participants(ctx, vs.ID); err != nil {
		return nil, err
	}
	return vs, nil
}

// GetVideoSessions lists every session ordered by id.
func (s *SQLiteStore) GetVideoSessions(ctx context.Context) ([]domain.VideoSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+videoSessionColumns+` FROM video_sessions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.VideoSession
	for rows.Next() {
		vs, err := scanVideoSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *vs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := s.allParticipants(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Participants = members[sessions[i].ID]
		if sessions[i].Participants == nil {
			sessions[i].Participants = []int64{}
		}
	}
	return sessions, nil
}

func (s *SQLiteStore) participants(ctx context.Context, sessionID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM video_session_participants WHERE session_id = ? ORDER BY user_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) allParticipants(ctx context.Context) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id FROM video_session_participants ORDER BY session_id ASC, user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var sessionID, userID int64
		if err := rows.Scan(&sessionID, &userID); err != nil {
			return nil, err
		}
		out[sessionID] = append(out[sessionID], userID)
	}
	return out, rows.Err()
}

// UpdateVideoSessionStatus moves a session to status. The first move to active
// stamps actual_start_time; every move to completed overwrites actual_end_time.
// A completed session is never moved back.
func (s *SQLiteStore) UpdateVideoSessionStatus(ctx context.Context, id int64, status domain.SessionStatus, at time.Time) (*domain.VideoSession, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown video session status %q", status)
	}
	at = at.UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE video_sessions SET
			status = ?,
			updated_at = ?,
			actual_start_time = CASE WHEN ? = 'active' AND actual_start_time IS NULL THEN ? ELSE actual_start_time END,
			actual_end_time = CASE WHEN ? = 'completed' THEN ? ELSE actual_end_time END
		 WHERE id = ? AND (status <> 'completed' OR ? = 'completed')`,
		status, at, status, at, status, at, id, status)
	if err != nil {
		return nil, err
	}
	return s.GetVideoSession(ctx, id)
}

// UpdateVideoSessionParticipants replaces the participant set.
func (s *SQLiteStore) UpdateVideoSessionParticipants(ctx context.Context, id int64, participants []int64) (*domain.VideoSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `DELETE FROM video_session_participants WHERE session_id = ?`, id); err != nil {
		return nil, err
	}
	for _, userID := range domain.ParticipantSet(participants...) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO video_session_participants (session_id, user_id, added_at) VALUES (?, ?, ?)`,
			id, userID, now); err != nil {
			return nil, err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE video_sessions SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetVideoSession(ctx, id)
}

// AddVideoSessionParticipant appends userID if absent. It reports whether a row was added.
func (s *SQLiteStore) AddVideoSessionParticipant(ctx context.Context, id int64, userID int64) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO video_session_participants (session_id, user_id, added_at) VALUES (?, ?, ?)`,
		id, userID, now)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		if _, err := s.db.ExecContext(ctx, `UPDATE video_sessions SET updated_at = ? WHERE id = ?`, now, id); err != nil {
			return true, err
		}
	}
	return affected > 0, nil
}

// UpdateVideoSessionRecording stores the recording URL.
func (s *SQLiteStore) UpdateVideoSessionRecording(ctx context.Context, id int64, url string) (*domain.VideoSession, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE video_sessions SET recording_url = ?, updated_at = ? WHERE id = ?`,
		nullString(url), time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return s.GetVideoSession(ctx, id)
}

// IsSessionHost reports whether userID hosts the session.
func (s *SQLiteStore) IsSessionHost(ctx context.Context, id int64, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM video_sessions WHERE id = ? AND host_id = ?`, id, userID).Scan(&n)
	return n > 0, err
}

// IsSessionAttendee reports whether userID is a participant. The host always is.
func (s *SQLiteStore) IsSessionAttendee(ctx context.Context, id int64, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(1) FROM video_sessions WHERE id = ? AND host_id = ?) +
			(SELECT COUNT(1) FROM video_session_participants WHERE session_id = ? AND user_id = ?)`,
		id, userID, id, userID).Scan(&n)
	return n > 0, err
}

// CreateChatMessage persists a chat message, assigning message.ID.
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, message *domain.ChatMessage) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (user_id, talent_id, club_id, agent_id, doctor_id, message, is_from_user, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(message.UserID), nullInt64(message.TalentID), nullInt64(message.ClubID), nullInt64(message.AgentID),
		nullInt64(message.DoctorID), message.Message, message.IsFromUser, message.Timestamp)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	message.ID = id
	return nil
}

// GetChatMessages returns the messages of a user in chronological order.
func (s *SQLiteStore) GetChatMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, talent_id, club_id, agent_id, doctor_id, message, is_from_user, timestamp
		 FROM chat_messages WHERE user_id = ? ORDER BY timestamp ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var msg domain.ChatMessage
		var user, talent, club, agent, doctor sql.NullInt64
		if err := rows.Scan(&msg.ID, &user, &talent, &club, &agent, &doctor, &msg.Message, &msg.IsFromUser, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.UserID = user.Int64
		msg.TalentID = talent.Int64
		msg.ClubID = club.Int64
		msg.AgentID = agent.Int64
		msg.DoctorID = doctor.Int64
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateAppointment persists an appointment, assigning appointment.ID.
func (s *SQLiteStore) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC()
	}
	if appointment.Status == "" {
		appointment.Status = domain.AppointmentStatusPending
	}
	attendees, _ := json.Marshal(domain.ParticipantSet(appointment.Attendees...))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (title, description, start_date, end_date, location, talent_id, club_id, agent_id, doctor_id,
			attendees, is_video_meeting, meeting_link, status, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appointment.Title, nullString(appointment.Description), nullTime(appointment.StartDate), nullTime(appointment.EndDate),
		nullString(appointment.Location), nullInt64(appointment.TalentID), nullInt64(appointment.ClubID),
		nullInt64(appointment.AgentID), nullInt64(appointment.DoctorID), string(attendees), appointment.IsVideoMeeting,
		nullString(appointment.MeetingLink), appointment.Status, appointment.CreatedBy, appointment.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	appointment.ID = id
	return nil
}

// GetAppointment retrieves an appointment by id.
func (s *SQLiteStore) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	var ap domain.Appointment
	var description, location, attendees, meetingLink sql.NullString
	var startDate, endDate sql.NullTime
	var talent, club, agent, doctor sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, start_date, end_date, location, talent_id, club_id, agent_id, doctor_id,
			attendees, is_video_meeting, meeting_link, status, created_by, created_at
		 FROM appointments WHERE id = ?`, id).Scan(&ap.ID, &ap.Title, &description, &startDate, &endDate, &location,
		&talent, &club, &agent, &doctor, &attendees, &ap.IsVideoMeeting, &meetingLink, &ap.Status, &ap.CreatedBy, &ap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ap.Description = description.String
	ap.Location = location.String
	ap.MeetingLink = meetingLink.String
	ap.TalentID = talent.Int64
	ap.ClubID = club.Int64
	ap.AgentID = agent.Int64
	ap.DoctorID = doctor.Int64
	if startDate.Valid {
		ap.StartDate = &startDate.Time
	}
	if endDate.Valid {
		ap.EndDate = &endDate.Time
	}
	ap.Attendees = []int64{}
	if attendees.Valid && attendees.String != "" {
		// A malformed list reads as empty rather than failing the lookup.
		if err := json.Unmarshal([]byte(attendees.String), &ap.Attendees); err != nil {
			log.Warn().Str("module", "repository").Int64("appointment_id", id).Err(err).Msg("malformed attendees")
			ap.Attendees = []int64{}
		}
	}
	return &ap, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullInt64Ptr(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
