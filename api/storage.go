package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *storage {
	return &storage{
		db: db,
	}
}

func (s *storage) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, updated_at, name, email, age, password_hash, version
			  FROM users
			  WHERE email = lower($1)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, email)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Age, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) getUserByID(id int) (*user, error) {
	query := `SELECT id, created_at, updated_at, name, email, age, password_hash, version
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Age, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

// getUserByToken resolves a user only if the presented token is still a
// member of that user's allow-list. A revoked token finds no row even when
// its signature verifies.
func (s *storage) getUserByToken(id int, hash []byte) (*user, error) {
	query := `SELECT u.id, u.created_at, u.updated_at, u.name, u.email, u.age, u.password_hash, u.version
			  FROM users u
			  INNER JOIN tokens t ON t.user_id = u.id
			  WHERE u.id = $1 AND t.hash = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, hash)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.Age, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) insertUser(u *user) error {
	query := `INSERT INTO users (name, email, age, password_hash)
			  VALUES ($1, lower($2), $3, $4)
			  RETURNING id, created_at, updated_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.Age, u.PasswordHash)
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	return err
}

func (s *storage) updateUser(u *user) error {
	query := `UPDATE users
			  SET name = $1, email = lower($2), age = $3, password_hash = $4, updated_at = now(), version = version + 1
			  WHERE id = $5 AND version = $6
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.Age, u.PasswordHash, u.ID, u.Version)
	err := row.Scan(&u.UpdatedAt, &u.Version)
	return err
}

// deleteUser removes the user together with every task and token that
// belongs to them, in one transaction. No orphans survive a partial failure.
func (s *storage) deleteUser(u *user) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, u.ID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1`, u.ID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, u.ID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *storage) insertToken(userID int, hash []byte) error {
	query := `INSERT INTO tokens (user_id, hash)
			  VALUES ($1, $2)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, userID, hash)
	return err
}

func (s *storage) deleteToken(userID int, hash []byte) error {
	query := `DELETE FROM tokens
			  WHERE user_id = $1 AND hash = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, userID, hash)
	return err
}

func (s *storage) deleteTokensForUser(userID int) error {
	query := `DELETE FROM tokens
			  WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}

func (s *storage) getAvatar(userID int) ([]byte, error) {
	query := `SELECT avatar FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var avatar []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&avatar)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return avatar, nil
}

func (s *storage) setAvatar(userID int, avatar []byte) error {
	query := `UPDATE users
			  SET avatar = $1, updated_at = now()
			  WHERE id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, query, avatar, userID)
	return err
}

func (s *storage) insertTask(t *task) error {
	query := `INSERT INTO tasks (user_id, description, is_completed)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, updated_at, version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Description, t.IsCompleted)
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.Version)
	return err
}

// getTask is owner-scoped at the query: a task owned by someone else scans
// as no rows, indistinguishable from one that never existed.
func (s *storage) getTask(id, userID int) (*task, error) {
	query := `SELECT id, created_at, updated_at, user_id, description, is_completed, version
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.UserID, &t.Description, &t.IsCompleted, &t.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

type taskFilters struct {
	completed *bool
	limit     int
	skip      int
	sortBy    string
	desc      bool
}

func (s *storage) getTasks(userID int, f taskFilters) ([]task, error) {
	b := psql.Select("id", "created_at", "updated_at", "user_id", "description", "is_completed", "version").
		From("tasks").
		Where(sq.Eq{"user_id": userID})
	if f.completed != nil {
		b = b.Where(sq.Eq{"is_completed": *f.completed})
	}
	if f.sortBy != "" {
		dir := " ASC"
		if f.desc {
			dir = " DESC"
		}
		b = b.OrderBy(f.sortBy + dir)
	} else {
		b = b.OrderBy("id ASC")
	}
	if f.limit > 0 {
		b = b.Limit(uint64(f.limit))
	}
	if f.skip > 0 {
		b = b.Offset(uint64(f.skip))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.UserID, &t.Description, &t.IsCompleted, &t.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *storage) updateTask(t *task) error {
	query := `UPDATE tasks
			  SET description = $1, is_completed = $2, updated_at = now(), version = version + 1
			  WHERE id = $3 AND user_id = $4 AND version = $5
			  RETURNING updated_at, version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.Description, t.IsCompleted, t.ID, t.UserID, t.Version)
	err := row.Scan(&t.UpdatedAt, &t.Version)
	return err
}

func (s *storage) deleteTask(id, userID int) (*task, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2
			  RETURNING id, created_at, updated_at, user_id, description, is_completed, version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.UserID, &t.Description, &t.IsCompleted, &t.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}
