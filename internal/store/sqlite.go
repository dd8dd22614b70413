package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
	"github.com/kje0316/persona-signal-welfare/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	taskMu sync.Mutex // Mutex for task snapshot writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		profile_json TEXT,
		phase TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		sources_json TEXT,
		show_report_link INTEGER DEFAULT 0,
		show_pdf_download INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);

	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		progress INTEGER DEFAULT 0,
		current_stage TEXT,
		message TEXT,
		results_json TEXT,
		output_files_json TEXT,
		error TEXT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_finished ON tasks(finished_at) WHERE finished_at IS NOT NULL;
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves a consultation session by its identifier.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.ConsultationSession, error) {
	query := `
		SELECT session_id, profile_json, phase, created_at, updated_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var session domain.ConsultationSession
	var profileJSON sql.NullString
	var phase string
	var createdAt, updatedAt int64

	err := row.Scan(&session.SessionID, &profileJSON, &phase, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	session.Phase = domain.Phase(phase)
	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	if profileJSON.Valid && profileJSON.String != "" {
		var profile domain.Profile
		if err := json.Unmarshal([]byte(profileJSON.String), &profile); err != nil {
			return nil, fmt.Errorf("decode session profile: %w", err)
		}
		session.Profile = &profile
	}

	return &session, nil
}

// CreateSession inserts a new consultation session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.ConsultationSession) error {
	var profileJSON interface{}
	if session.Profile != nil {
		data, err := json.Marshal(session.Profile)
		if err != nil {
			return fmt.Errorf("encode session profile: %w", err)
		}
		profileJSON = string(data)
	}

	query := `
		INSERT INTO sessions (session_id, profile_json, phase, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		session.SessionID, profileJSON, string(session.Phase),
		session.CreatedAt.Unix(), session.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UpdateSessionProfile attaches a pre-consultation profile to a session.
func (s *SQLiteStore) UpdateSessionProfile(ctx context.Context, sessionID string, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}

	query := `UPDATE sessions SET profile_json = ?, updated_at = ? WHERE session_id = ?`
	result, err := s.db.ExecContext(ctx, query, string(data), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("update session profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}

// UpdateSessionPhase advances the consultation phase for a session.
func (s *SQLiteStore) UpdateSessionPhase(ctx context.Context, sessionID string, phase domain.Phase) error {
	query := `UPDATE sessions SET phase = ?, updated_at = ? WHERE session_id = ?`
	result, err := s.db.ExecContext(ctx, query, string(phase), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("update session phase: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}

// TouchSession updates the session's updated_at timestamp.
func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	query := `UPDATE sessions SET updated_at = ? WHERE session_id = ?`
	result, err := s.db.ExecContext(ctx, query, at.Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("TouchSession affected 0 rows", "session_id", sessionID)
	}
	return nil
}

// DeleteSession removes a session and its messages.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.deleteSessionOnce(ctx, sessionID)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteBusyError(err) {
			if i < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
				slog.Debug("DeleteSession failed with SQLITE_BUSY, retrying",
					"session_id", sessionID,
					"attempt", i+1,
					"delay", delay)
				time.Sleep(delay)
				continue
			}
		}

		return fmt.Errorf("failed to delete session %s after %d attempts: %w", sessionID, maxRetries, err)
	}

	return nil
}

func (s *SQLiteStore) deleteSessionOnce(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

// AppendMessage appends one message to a session's conversation.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error {
	var sourcesJSON interface{}
	if len(msg.Sources) > 0 {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("encode message sources: %w", err)
		}
		sourcesJSON = string(data)
	}

	query := `
		INSERT INTO messages (session_id, message_id, sender, content, sources_json,
		                      show_report_link, show_pdf_download, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		sessionID, msg.ID, string(msg.Sender), msg.Content, sourcesJSON,
		boolToInt(msg.ShowReportLink), boolToInt(msg.ShowPDFDownload),
		msg.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessages returns a session's conversation in insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `
		SELECT message_id, sender, content, sources_json,
		       show_report_link, show_pdf_download, created_at
		FROM messages WHERE session_id = ? ORDER BY id`
	args := []interface{}{sessionID}

	if limit > 0 {
		// Most recent N, returned oldest first.
		query = `
		SELECT message_id, sender, content, sources_json,
		       show_report_link, show_pdf_download, created_at
		FROM (
			SELECT id, message_id, sender, content, sources_json,
			       show_report_link, show_pdf_download, created_at
			FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var sender string
		var sourcesJSON sql.NullString
		var reportLink, pdfDownload int
		var createdAt int64

		if err := rows.Scan(
			&msg.ID, &sender, &msg.Content, &sourcesJSON,
			&reportLink, &pdfDownload, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		msg.Sender = domain.Sender(sender)
		msg.ShowReportLink = reportLink != 0
		msg.ShowPDFDownload = pdfDownload != 0
		msg.Timestamp = time.Unix(createdAt, 0)

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("decode message sources: %w", err)
			}
		}

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// UpsertTask stores the latest snapshot of an augmentation task.
func (s *SQLiteStore) UpsertTask(ctx context.Context, task *domain.Task) error {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	var resultsJSON interface{}
	if len(task.Results) > 0 {
		data, err := json.Marshal(task.Results)
		if err != nil {
			return fmt.Errorf("encode task results: %w", err)
		}
		resultsJSON = string(data)
	}

	var outputFilesJSON interface{}
	if len(task.OutputFiles) > 0 {
		data, err := json.Marshal(task.OutputFiles)
		if err != nil {
			return fmt.Errorf("encode task output files: %w", err)
		}
		outputFilesJSON = string(data)
	}

	var finishedAt interface{}
	if task.FinishedAt != nil {
		finishedAt = task.FinishedAt.Unix()
	}

	query := `
		INSERT INTO tasks (
			task_id, status, progress, current_stage, message,
			results_json, output_files_json, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			current_stage = excluded.current_stage,
			message = excluded.message,
			results_json = excluded.results_json,
			output_files_json = excluded.output_files_json,
			error = excluded.error,
			finished_at = excluded.finished_at`

	_, err := s.db.ExecContext(ctx, query,
		task.ID, string(task.Status), task.Progress, task.CurrentStage, task.Message,
		resultsJSON, outputFilesJSON, task.Error,
		task.StartedAt.Unix(), finishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// GetTask retrieves a task snapshot.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `
		SELECT task_id, status, progress, current_stage, message,
		       results_json, output_files_json, error, started_at, finished_at
		FROM tasks WHERE task_id = ?`

	row := s.db.QueryRowContext(ctx, query, taskID)

	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan task row: %w", err)
	}
	return task, nil
}

// ListTasks returns snapshots of all known tasks.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT task_id, status, progress, current_stage, message,
		       results_json, output_files_json, error, started_at, finished_at
		FROM tasks ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close task rows", "error", closeErr)
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(scan func(dest ...interface{}) error) (*domain.Task, error) {
	var task domain.Task
	var status string
	var currentStage, message, resultsJSON, outputFilesJSON, taskErr sql.NullString
	var startedAt int64
	var finishedAt sql.NullInt64

	err := scan(
		&task.ID, &status, &task.Progress, &currentStage, &message,
		&resultsJSON, &outputFilesJSON, &taskErr, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.CurrentStage = currentStage.String
	task.Message = message.String
	task.Error = taskErr.String
	task.StartedAt = time.Unix(startedAt, 0)

	if finishedAt.Valid {
		ts := time.Unix(finishedAt.Int64, 0)
		task.FinishedAt = &ts
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &task.Results); err != nil {
			return nil, fmt.Errorf("decode task results: %w", err)
		}
	}
	if outputFilesJSON.Valid && outputFilesJSON.String != "" {
		if err := json.Unmarshal([]byte(outputFilesJSON.String), &task.OutputFiles); err != nil {
			return nil, fmt.Errorf("decode task output files: %w", err)
		}
	}

	return &task, nil
}

// DeleteTerminalTasksBefore removes terminal tasks finished before the cutoff.
func (s *SQLiteStore) DeleteTerminalTasksBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	query := `
		DELETE FROM tasks
		WHERE status IN ('completed', 'failed', 'cancelled')
		  AND finished_at IS NOT NULL AND finished_at < ?`
	result, err := s.db.ExecContext(ctx, query, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup terminal tasks: %w", err)
	}
	return result.RowsAffected()
}

// CleanupExpiredSessions removes sessions idle longer than TTL.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin cleanup transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id IN
			(SELECT session_id FROM sessions WHERE updated_at < ?)`, threshold); err != nil {
		return 0, fmt.Errorf("cleanup expired session messages: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cleanup transaction: %w", err)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
