package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backend_boilerplate/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) *UserRepository {
	return &UserRepository{conn: conn}
}

// Ensure implementation of the Users interface at compile time.
var _ Users = (*UserRepository)(nil)

const userColumns = `id, username, email, first_name, middle_name, last_name, password,
 gender, birthdate, phone_number, is_active, is_superuser, created_at, updated_at`

const (
	insertUserSQL = `INSERT INTO users
 (username, email, first_name, middle_name, last_name, password, gender, birthdate, phone_number, is_superuser)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
 RETURNING ` + userColumns

	selectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	selectUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	selectUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY created_at OFFSET $1 LIMIT $2`

	updateUserSQL = `UPDATE users SET
 username = COALESCE($2, username),
 email = COALESCE($3, email),
 first_name = COALESCE($4, first_name),
 middle_name = COALESCE($5, middle_name),
 last_name = COALESCE($6, last_name),
 password = COALESCE($7, password),
 gender = COALESCE($8, gender),
 birthdate = COALESCE($9, birthdate),
 phone_number = COALESCE($10, phone_number),
 is_active = COALESCE($11, is_active),
 updated_at = now()
 WHERE id = $1
 RETURNING ` + userColumns

	deleteUserSQL = `DELETE FROM users WHERE id = $1`
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.MiddleName, &u.LastName,
		&u.PasswordHash, &u.Gender, &u.Birthdate, &u.PhoneNumber,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// wrapConstraint maps unique-violation errors from the pgx driver onto
// ErrDuplicate so callers don't depend on driver internals.
func wrapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// Create inserts a new user and returns the stored row.
// u.PasswordHash must already be a bcrypt hash.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, insertUserSQL,
		u.Username, u.Email, u.FirstName, u.MiddleName, u.LastName,
		u.PasswordHash, u.Gender, u.Birthdate, u.PhoneNumber, u.IsSuperuser,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", u.Username, wrapConstraint(err))
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, selectUserByIDSQL, id.String(), fmt.Sprintf("id %s", id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, selectUserByUsernameSQL, username, fmt.Sprintf("username %q", username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUserByEmailSQL, email, fmt.Sprintf("email %q", email))
}

// getOne fetches a single user. Returns (nil, nil) if not found.
func (r *UserRepository) getOne(ctx context.Context, query string, arg any, what string) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user by %s: %w", what, err)
	}
	return u, nil
}

// List returns users ordered by creation time using offset/limit pagination.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	rows, err := r.conn.QueryContext(ctx, selectUsersSQL, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// Update applies a partial update and returns the resulting row.
// upd.Password (when set) must already be a bcrypt hash.
// Returns (nil, nil) if the user does not exist.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, updateUserSQL,
		id.String(),
		upd.Username, upd.Email, upd.FirstName, upd.MiddleName, upd.LastName,
		upd.Password, upd.Gender, upd.Birthdate, upd.PhoneNumber, upd.IsActive,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update user %s: %w", id, wrapConstraint(err))
	}
	return u, nil
}

// Delete removes a user and reports whether a row was actually deleted.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.conn.ExecContext(ctx, deleteUserSQL, id.String())
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for user %s: %w", id, err)
	}
	return affected > 0, nil
}
