package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yourusername/sig-gestion/internal/model"
)

// SQLiteUserStore implements UserStore on a SQLite database file.
type SQLiteUserStore struct {
	db        *sql.DB
	writeLock *sync.Mutex // the sqlite driver does not support concurrent writes
}

var _ UserStore = (*SQLiteUserStore)(nil)

// NewSQLiteUserStore opens (or creates) the database at path and bootstraps
// the schema.
func NewSQLiteUserStore(path string) (*SQLiteUserStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteUserStore{
		db:        db,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS usuarios (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			username           TEXT    UNIQUE NOT NULL,
			password_hash      TEXT    NOT NULL,
			activo             INTEGER NOT NULL DEFAULT 1,
			intentos_fallidos  INTEGER NOT NULL DEFAULT 0,
			lock_until         INTEGER,
			fecha_registro     INTEGER NOT NULL,
			ultimo_acceso      INTEGER
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

const userColumns = `id, username, password_hash, activo, intentos_fallidos, lock_until, fecha_registro, ultimo_acceso`

func scanUser(row *sql.Row) (*model.Usuario, error) {
	var (
		u         model.Usuario
		activo    int
		lockUntil sql.NullInt64
		registro  int64
		acceso    sql.NullInt64
	)

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &activo, &u.Intentos, &lockUntil, &registro, &acceso)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}

		return nil, fmt.Errorf("query user: %w", err)
	}

	u.Activo = activo != 0
	u.FechaRegistro = time.Unix(registro, 0)
	if lockUntil.Valid {
		t := time.Unix(lockUntil.Int64, 0)
		u.LockUntil = &t
	}
	if acceso.Valid {
		t := time.Unix(acceso.Int64, 0)
		u.UltimoAcceso = &t
	}

	return &u, nil
}

// FindByUsername implements UserStore.FindByUsername.
func (s *SQLiteUserStore) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE username = ? LIMIT 1`, username)
	return scanUser(row)
}

// FindByID implements UserStore.FindByID.
func (s *SQLiteUserStore) FindByID(ctx context.Context, id int64) (*model.Usuario, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM usuarios WHERE id = ? LIMIT 1`, id)
	return scanUser(row)
}

// FindAll implements UserStore.FindAll.
func (s *SQLiteUserStore) FindAll(ctx context.Context) ([]model.Usuario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, activo, fecha_registro, ultimo_acceso
		FROM usuarios ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.Usuario
	for rows.Next() {
		var (
			u        model.Usuario
			activo   int
			registro int64
			acceso   sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Username, &activo, &registro, &acceso); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Activo = activo != 0
		u.FechaRegistro = time.Unix(registro, 0)
		if acceso.Valid {
			t := time.Unix(acceso.Int64, 0)
			u.UltimoAcceso = &t
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Exists implements UserStore.Exists.
func (s *SQLiteUserStore) Exists(ctx context.Context, username string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM usuarios WHERE username = ? LIMIT 1`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query username: %w", err)
	}

	return true, nil
}

// Create implements UserStore.Create.
func (s *SQLiteUserStore) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	return s.insert(ctx, username, passwordHash, true)
}

// CreateInternal implements UserStore.CreateInternal.
func (s *SQLiteUserStore) CreateInternal(ctx context.Context, username, passwordHash string, active bool) (int64, error) {
	return s.insert(ctx, username, passwordHash, active)
}

func (s *SQLiteUserStore) insert(ctx context.Context, username, passwordHash string, active bool) (int64, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO usuarios (username, password_hash, activo, fecha_registro)
		VALUES (?, ?, ?, ?)`,
		username, passwordHash, boolToInt(active), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", mapConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	return id, nil
}

// UpdateUsername implements UserStore.UpdateUsername.
func (s *SQLiteUserStore) UpdateUsername(ctx context.Context, id int64, username string) error {
	return s.exec(ctx, `UPDATE usuarios SET username = ? WHERE id = ?`, username, id)
}

// UpdatePassword implements UserStore.UpdatePassword.
func (s *SQLiteUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return s.exec(ctx, `UPDATE usuarios SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// Activate implements UserStore.Activate.
func (s *SQLiteUserStore) Activate(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE usuarios SET activo = 1 WHERE id = ?`, id)
}

// Deactivate implements UserStore.Deactivate.
func (s *SQLiteUserStore) Deactivate(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE usuarios SET activo = 0 WHERE id = ?`, id)
}

// UpdateLastLogin implements UserStore.UpdateLastLogin.
func (s *SQLiteUserStore) UpdateLastLogin(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE usuarios SET ultimo_acceso = ? WHERE id = ?`, time.Now().Unix(), id)
}

// GetFailedAttempts implements UserStore.GetFailedAttempts.
func (s *SQLiteUserStore) GetFailedAttempts(ctx context.Context, username string) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx,
		`SELECT intentos_fallidos FROM usuarios WHERE username = ?`, username).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query attempts: %w", err)
	}

	return attempts, nil
}

// IsLocked implements UserStore.IsLocked.
func (s *SQLiteUserStore) IsLocked(ctx context.Context, username string) (bool, error) {
	var lockUntil sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT lock_until FROM usuarios WHERE username = ? LIMIT 1`, username).Scan(&lockUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query lock: %w", err)
	}

	if !lockUntil.Valid {
		return false, nil
	}

	return time.Unix(lockUntil.Int64, 0).After(time.Now()), nil
}

// LockUntil implements UserStore.LockUntil.
func (s *SQLiteUserStore) LockUntil(ctx context.Context, username string, minutes int) error {
	until := time.Now().Add(time.Duration(minutes) * time.Minute).Unix()
	return s.exec(ctx, `UPDATE usuarios SET lock_until = ? WHERE username = ?`, until, username)
}

// Unlock implements UserStore.Unlock.
func (s *SQLiteUserStore) Unlock(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE usuarios SET lock_until = NULL, intentos_fallidos = 0 WHERE id = ?`, id)
}

// IncreaseFailedAttempts implements UserStore.IncreaseFailedAttempts.
func (s *SQLiteUserStore) IncreaseFailedAttempts(ctx context.Context, username string) error {
	return s.exec(ctx,
		`UPDATE usuarios SET intentos_fallidos = intentos_fallidos + 1 WHERE username = ?`, username)
}

// ResetFailedAttempts implements UserStore.ResetFailedAttempts.
func (s *SQLiteUserStore) ResetFailedAttempts(ctx context.Context, id int64) error {
	return s.exec(ctx, `UPDATE usuarios SET intentos_fallidos = 0 WHERE id = ?`, id)
}

// Close implements UserStore.Close.
func (s *SQLiteUserStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func (s *SQLiteUserStore) exec(ctx context.Context, query string, args ...any) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", mapConstraint(err))
	}

	return nil
}

// mapConstraint folds sqlite uniqueness violations into model.ErrAlreadyExists.
func mapConstraint(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(model.ErrAlreadyExists, err)
		}
	}

	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
