package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
	"github.com/oyt/backend/internal/repositories"
)

// UserHandler serves the signed-in user's own account.
type UserHandler struct {
	Users     UserStore
	Catalog   Catalog
	Validator InputValidator
	NowFunc   func() time.Time
}

type editUserRequest struct {
	Password  string `json:"password" validate:"omitempty,min=8,max=100"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	user, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		respondError(ctx, w, accountError(err))
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// Edit handles PATCH /api/v1/users/me. Empty fields keep their current value.
func (h UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req editUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := h.Validator.Validate(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		respondError(ctx, w, accountError(err))
		return
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logging.FromContext(ctx).Error("edit user failed to hash password", "error", err)
			respondMessage(ctx, w, http.StatusInternalServerError, "failed to secure password")
			return
		}
		user.Password = string(hashed)
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, accountError(err))
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// Delete handles DELETE /api/v1/users/me, removing the account and everything it owns.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteUser(ctx, actor, actor.ID); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func accountError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return access.ErrNotFound
	case errors.Is(err, repositories.ErrEmailTaken):
		return access.ErrDuplicateEmail
	case errors.Is(err, repositories.ErrUsernameTaken):
		return access.ErrDuplicateUsername
	}
	return err
}
