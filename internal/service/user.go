package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/softdeskhq/softdesk/internal/apperror"
	"github.com/softdeskhq/softdesk/internal/authz"
	"github.com/softdeskhq/softdesk/internal/model"
	"github.com/softdeskhq/softdesk/internal/repository"
)

// UserService handles profile reads (through the visibility gate) and
// self-service profile mutation.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger, now: time.Now}
}

// ProfileView is what a profile read returns. The reduced view (someone
// else's shared profile) carries ID, username, and age only. The contact
// view adds the date of birth, and the owner's own view additionally
// carries the raw consent flags and timestamps.
type ProfileView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Age      int    `json:"age"`

	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`

	CanBeContacted  *bool      `json:"canBeContacted,omitempty"`
	CanDataBeShared *bool      `json:"canDataBeShared,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

func (s *UserService) profileView(u *model.User, owner, contact bool) *ProfileView {
	v := &ProfileView{
		ID:       u.ID,
		Username: u.Username,
		Age:      u.Age(s.now()),
	}
	if contact || owner {
		dob := u.DateOfBirth
		v.DateOfBirth = &dob
	}
	if owner {
		contacted, shared := u.CanBeContacted, u.CanDataBeShared
		created, updated := u.CreatedAt, u.UpdatedAt
		v.CanBeContacted = &contacted
		v.CanDataBeShared = &shared
		v.CreatedAt = &created
		v.UpdatedAt = &updated
	}
	return v
}

// Get returns the target user's profile as seen by the actor.
//
// The owner always gets the full view. Anyone else is refused unless the
// target consented to data sharing; asking for contact detail
// additionally requires contact consent.
func (s *UserService) Get(ctx context.Context, actorID, targetID string, withContact bool) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	action := authz.ActionRead
	if withContact {
		action = authz.ActionReadContact
	}
	if err := authz.Authorize(actorID, action, userResource(user)); err != nil {
		return nil, err
	}

	return s.profileView(user, actorID == user.ID, withContact), nil
}

// List returns the actor's own profile plus the reduced profiles of every
// user who consented to data sharing.
func (s *UserService) List(ctx context.Context, actorID string, limit, offset int) ([]ProfileView, error) {
	users, err := s.users.List(ctx, repository.ListOptions{
		Limit:  clampLimit(limit),
		Offset: clampOffset(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}

	views := []ProfileView{}
	for i := range users {
		u := &users[i]
		if err := authz.Authorize(actorID, authz.ActionRead, userResource(u)); err != nil {
			if errors.Is(err, apperror.ErrForbidden) {
				continue // not shared with us — skip, don't fail the listing
			}
			return nil, err
		}
		views = append(views, *s.profileView(u, actorID == u.ID, false))
	}

	return views, nil
}

// UpdateProfileInput carries the self-service profile edit. Nil pointers
// mean "leave unchanged".
type UpdateProfileInput struct {
	Username        *string
	DateOfBirth     *time.Time
	CanBeContacted  *bool
	CanDataBeShared *bool
}

// Update mutates the actor's own profile. The age floor is re-checked if
// the date of birth changes.
func (s *UserService) Update(ctx context.Context, actorID, targetID string, in UpdateProfileInput) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(actorID, authz.ActionUpdate, userResource(user)); err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "username cannot be empty")
		}
		if len(username) > maxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", maxUsernameLength))
		}
		user.Username = username
	}
	if in.DateOfBirth != nil {
		if model.AgeAt(*in.DateOfBirth, s.now()) < model.MinimumAge {
			return nil, apperror.ValidationFailed("date_of_birth",
				fmt.Sprintf("you must be at least %d years old", model.MinimumAge))
		}
		user.DateOfBirth = *in.DateOfBirth
	}
	if in.CanBeContacted != nil {
		user.CanBeContacted = *in.CanBeContacted
	}
	if in.CanDataBeShared != nil {
		user.CanDataBeShared = *in.CanDataBeShared
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("username", "username is already taken")
		}
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))

	return s.profileView(user, true, true), nil
}

// Delete removes the actor's own account. Authored projects and comments
// go with it; issue assignments are cleared (repository cascade rules).
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actorID, authz.ActionDelete, userResource(user)); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.String("userID", targetID))

	return nil
}

func userResource(u *model.User) authz.Resource {
	return authz.Resource{
		Kind:          authz.KindUser,
		OwnerID:       u.ID,
		DataShared:    u.CanDataBeShared,
		ContactShared: u.CanBeContacted,
	}
}

// Pagination clamps shared by the list endpoints.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
