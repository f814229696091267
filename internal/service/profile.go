package service

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docflow/internal/audit"
	"docflow/internal/model"
)

// LoginInput carries optional display names sent with a sign-in.
type LoginInput struct {
	FirstName string
	LastName  string
}

// ProfileService keeps the application-side user records.
type ProfileService interface {
	// RecordLogin upserts the caller's profile with the role from the token and records LOGIN.
	RecordLogin(ctx context.Context, caller model.Identity, in LoginInput) (*model.Profile, error)
	List(ctx context.Context) ([]model.Profile, error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
}

type profileService struct {
	*Deps
}

func NewProfileService(d *Deps) ProfileService {
	d.defaults()
	return &profileService{Deps: d}
}

func (s *profileService) RecordLogin(ctx context.Context, caller model.Identity, in LoginInput) (*model.Profile, error) {
	if caller.UserID == "" {
		return nil, &model.UnauthorizedError{}
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validationError(validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.RuneLength(0, 100)),
		validation.Field(&in.LastName, validation.RuneLength(0, 100)),
	)); err != nil {
		return nil, err
	}
	role := caller.Role
	if !role.Valid() {
		role = model.RoleClient
	}

	var stored *model.Profile
	err := s.Tx.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		stored, err = s.Profiles.Upsert(ctx, &model.Profile{
			UserID:    caller.UserID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      role,
			CreatedAt: s.Now(),
		})
		if err != nil {
			return err
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			Actor:  &caller,
			Action: model.ActionLogin,
			Detail: "signed in as " + string(role),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.AuditEntry(model.ActionLogin)
	s.Log.Info().Str("event", "login_recorded").Str("user_id", caller.UserID).Str("role", string(role)).Send()
	return stored, nil
}

func (s *profileService) List(ctx context.Context) ([]model.Profile, error) {
	return s.Profiles.List(ctx)
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, model.NewValidationError("user id is required")
	}
	return s.Profiles.FindByID(ctx, userID)
}
