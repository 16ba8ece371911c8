package groupsvc

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/safetravel/groupwatch/pkg/logger"
	"github.com/safetravel/groupwatch/pkg/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when creating a user whose username exists
	ErrUsernameTaken = errors.New("username is already taken")
)

// User is a directory entry
type User struct {
	ID        string
	Name      string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Member returns the identity the group endpoints expose
func (u *User) Member() models.Member {
	return models.Member{ID: u.ID, Name: u.Name, Username: u.Username}
}

// Store is the sqlite-backed user directory
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// OpenStore opens (creating if needed) the database at path and applies
// pending migrations
func OpenStore(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.WithPrefix("store")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{log: s.log}
	// m is not closed: closing it would close the shared connection

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// CreateUser adds a user and issues its first bearer token
func (s *Store) CreateUser(ctx context.Context, name, username, email string) (*User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, "", errors.New("username is required")
	}
	if name == "" {
		name = username
	}

	user := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	token := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if exists > 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, name, username, email, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Username, user.Email, user.CreatedAt.Unix())
	if err != nil {
		return nil, "", fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, user.ID, user.CreatedAt.Unix())
	if err != nil {
		return nil, "", fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", err
	}

	s.log.WithField("username", username).Info("User created")
	return user, token, nil
}

// UserByUsername looks a user up by its exact username
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, username, email, created_at FROM users WHERE username = ?", username)
	return scanUser(row)
}

// UserByToken resolves a bearer token to its owner
func (s *Store) UserByToken(ctx context.Context, token string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.username, u.email, u.created_at
		FROM tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ?`, token)
	return scanUser(row)
}

// Emails returns the non-empty addresses of the given usernames
func (s *Store) Emails(ctx context.Context, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(usernames)), ",")
	args := make([]interface{}, len(usernames))
	for i, u := range usernames {
		args[i] = u
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM users WHERE email != '' AND username IN ("+placeholders+") ORDER BY username",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u       User
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

// migrateLogger routes migrate output through the service logger
type migrateLogger struct {
	log logger.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf("[migrate] "+strings.TrimSuffix(format, "\n"), v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
