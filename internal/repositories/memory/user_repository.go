package memory

import (
	"context"
	"fmt"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	db *db
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	return r.db.write(ctx, func() (func(), error) {
		for _, existing := range r.db.users {
			if existing.ID == user.ID || existing.Username == user.Username {
				return nil, fmt.Errorf("user: %w", interfaces.ErrDuplicateKey)
			}
		}
		id := user.ID
		r.db.users[id] = cloneUser(user)
		return func() { delete(r.db.users, id) }, nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	var user *models.User
	r.db.read(func() {
		if u, ok := r.db.users[id]; ok {
			user = cloneUser(u)
		}
	})
	if user == nil {
		return nil, fmt.Errorf("user: %w", interfaces.ErrNotFound)
	}
	return user, nil
}

func (r *userRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	var users []*models.User
	r.db.read(func() {
		for _, id := range ids {
			if u, ok := r.db.users[id]; ok {
				users = append(users, cloneUser(u))
			}
		}
	})
	return users, nil
}

func (r *userRepository) ExistsWithRole(_ context.Context, id primitive.ObjectID, role models.Role) (bool, error) {
	var exists bool
	r.db.read(func() {
		u, ok := r.db.users[id]
		exists = ok && u.Role == role
	})
	return exists, nil
}
