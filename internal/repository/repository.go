package repository

import (
	"context"
	"database/sql"
	"errors"

	"backend_boilerplate/internal/models"
	"backend_boilerplate/internal/repository/db"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint
// (username or email already taken).
var ErrDuplicate = errors.New("duplicate value for unique column")

// Users is the persistence contract for the "users" table.
// Lookups return (nil, nil) when no row matches.
type Users interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type Repository struct {
	Users Users
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Users: NewUserRepository(conn),
	}
}

// InitDB opens the PostgreSQL pool and ensures the schema exists.
func InitDB(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	return db.Open(dsn, maxOpen, maxIdle)
}
