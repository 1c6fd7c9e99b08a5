package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"todoassist/internal/chat"
	"todoassist/internal/task"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrUserNotFound means no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenNotFound means the bearer token is unknown or expired.
	ErrTokenNotFound = errors.New("token not found")
	// ErrConversationNotFound means no conversation matches owner + id.
	ErrConversationNotFound = errors.New("conversation not found")
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现
// SQLiteStore implements Store using SQLite with WAL mode
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tokens (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	-- owner_id is an opaque scope key, not an FK: the console surface
	-- operates without a users row.
	CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		owner_id     TEXT NOT NULL,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		completed    INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL,
		completed_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_id);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Task Operations ---

func (s *SQLiteStore) AddTask(ctx context.Context, ownerID, title, description string) (task.Task, error) {
	t, err := task.New(ownerID, title, description)
	if err != nil {
		return task.Task{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, completed, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, '')`,
		t.ID, t.OwnerID, t.Title, t.Description, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, ownerID string, filter task.Filter) ([]task.Task, error) {
	query := `
		SELECT id, owner_id, title, description, completed, created_at, updated_at, completed_at
		FROM tasks WHERE owner_id=?`
	switch filter {
	case task.FilterPending:
		query += " AND completed=0"
	case task.FilterCompleted:
		query += " AND completed=1"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) getTask(ctx context.Context, ownerID, taskID string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, completed, created_at, updated_at, completed_at
		FROM tasks WHERE id=? AND owner_id=?`, taskID, ownerID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("load task: %w", err)
	}
	return t, nil
}

// CompleteTask 切换完成状态 / CompleteTask toggles the completion flag.
func (s *SQLiteStore) CompleteTask(ctx context.Context, ownerID, taskID string) (task.Task, error) {
	t, err := s.getTask(ctx, ownerID, taskID)
	if err != nil {
		return task.Task{}, err
	}

	now := time.Now().UTC()
	t.Completed = !t.Completed
	t.UpdatedAt = now
	completedAt := ""
	if t.Completed {
		t.CompletedAt = &now
		completedAt = formatTime(now)
	} else {
		t.CompletedAt = nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET completed=?, completed_at=?, updated_at=? WHERE id=? AND owner_id=?`,
		boolToInt(t.Completed), completedAt, formatTime(now), taskID, ownerID,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, ownerID, taskID, title string, description *string) (task.Task, error) {
	title = strings.TrimSpace(title)
	if err := task.ValidateTitle(title); err != nil {
		return task.Task{}, err
	}
	if description != nil {
		if err := task.ValidateDescription(*description); err != nil {
			return task.Task{}, err
		}
	}

	t, err := s.getTask(ctx, ownerID, taskID)
	if err != nil {
		return task.Task{}, err
	}

	now := time.Now().UTC()
	t.Title = title
	if description != nil {
		t.Description = *description
	}
	t.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title=?, description=?, updated_at=? WHERE id=? AND owner_id=?`,
		t.Title, t.Description, formatTime(now), taskID, ownerID,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND owner_id=?`, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

// --- User Operations ---

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fmt.Errorf("email is empty")
	}
	u := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email=?`, email)

	var u User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// --- Token Operations ---

func (s *SQLiteStore) CreateToken(ctx context.Context, userID string, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	tok := Token{
		Token:     NewTokenValue(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		tok.Token, tok.UserID, formatTime(tok.CreatedAt), formatTime(tok.ExpiresAt),
	)
	if err != nil {
		return Token{}, fmt.Errorf("insert token: %w", err)
	}
	return tok, nil
}

func (s *SQLiteStore) GetToken(ctx context.Context, token string) (Token, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at FROM tokens WHERE token=?`, token)

	var tok Token
	var createdAt, expiresAt string
	if err := row.Scan(&tok.Token, &tok.UserID, &createdAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, fmt.Errorf("load token: %w", err)
	}
	tok.CreatedAt = parseTime(createdAt)
	tok.ExpiresAt = parseTime(expiresAt)
	if time.Now().UTC().After(tok.ExpiresAt) {
		return Token{}, ErrTokenNotFound
	}
	return tok, nil
}

func (s *SQLiteStore) DeleteExpiredTokens(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}
	return nil
}

// --- Conversation Operations ---

func (s *SQLiteStore) CreateConversation(ctx context.Context, ownerID string) (Conversation, error) {
	now := time.Now().UTC()
	c := Conversation{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.OwnerID, formatTime(now), formatTime(now),
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, ownerID, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, created_at, updated_at FROM conversations WHERE id=? AND owner_id=?`,
		id, ownerID)

	var c Conversation
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.OwnerID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrConversationNotFound
		}
		return Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, msg chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now().UTC())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Content, now); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET updated_at=? WHERE id=?`, now, conversationID); err != nil {
		return fmt.Errorf("update conversation timestamp: %w", err)
	}
	return tx.Commit()
}

// LoadMessages 返回会话最近 limit 条消息，按时间升序
// LoadMessages returns the most recent limit messages in chronological order.
func (s *SQLiteStore) LoadMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM (
			SELECT id, role, content FROM messages WHERE conversation_id=? ORDER BY id DESC LIMIT ?
		) ORDER BY id`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var t task.Task
	var completed int
	var createdAt, updatedAt, completedAt string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &completed,
		&createdAt, &updatedAt, &completedAt); err != nil {
		return task.Task{}, err
	}
	t.Completed = completed != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	if completedAt != "" {
		ts := parseTime(completedAt)
		t.CompletedAt = &ts
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
