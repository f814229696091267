package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/model"
)

func TestProfileService_RecordLogin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		caller     model.Identity
		in         LoginInput
		setupMocks func(f *fixture)
		wantKind   error
		wantRole   model.Role
	}{
		{
			name:   "approver signs in",
			caller: approver,
			in:     LoginInput{FirstName: " Bo ", LastName: "Ng"},
			setupMocks: func(f *fixture) {
				f.tx.On("ExecTx", mock.Anything).Return(nil)
				f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *model.Profile) bool {
					return p.UserID == approver.UserID && p.FirstName == "Bo" && p.Role == model.RoleApprover
				})).Return(&model.Profile{UserID: approver.UserID, FirstName: "Bo", LastName: "Ng", Role: model.RoleApprover}, nil)
				f.expectAudit(model.ActionLogin)
			},
			wantRole: model.RoleApprover,
		},
		{
			name:   "unknown role falls back to client",
			caller: model.Identity{UserID: ownerID, Role: "superuser"},
			setupMocks: func(f *fixture) {
				f.tx.On("ExecTx", mock.Anything).Return(nil)
				f.profiles.On("Upsert", mock.Anything, mock.MatchedBy(func(p *model.Profile) bool {
					return p.Role == model.RoleClient
				})).Return(&model.Profile{UserID: ownerID, Role: model.RoleClient}, nil)
				f.expectAudit(model.ActionLogin)
			},
			wantRole: model.RoleClient,
		},
		{
			name:       "anonymous",
			setupMocks: func(f *fixture) {},
			wantKind:   model.ErrUnauthorized,
		},
		{
			name:       "name too long",
			caller:     owner,
			in:         LoginInput{FirstName: strings.Repeat("a", 101)},
			setupMocks: func(f *fixture) {},
			wantKind:   model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setupMocks(f)

			p, err := NewProfileService(f.deps).RecordLogin(ctx, tt.caller, tt.in)

			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, p.Role)
			}
			f.assertExpectations(t)
		})
	}
}

func TestProfileService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.profiles.On("FindByID", mock.Anything, ownerID).Return(&model.Profile{UserID: ownerID}, nil)
	svc := NewProfileService(f.deps)

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	p, err := svc.Get(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, p.UserID)
	f.assertExpectations(t)
}
