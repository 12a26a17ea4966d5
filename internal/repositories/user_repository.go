package repositories

import (
	"context"

	"github.com/oyt/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, userID string) ([]models.Video, error)
}

var (
	_ UserRepository = (*PostgresUserRepository)(nil)
	_ UserRepository = (*MemoryStore)(nil)
)
