package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/model"
	"docflow/internal/service"
)

type MockWorkflowService struct {
	mock.Mock
}

var _ service.WorkflowService = (*MockWorkflowService)(nil)

func (m *MockWorkflowService) result(args mock.Arguments) (*model.Document, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockWorkflowService) Submit(ctx context.Context, caller model.Identity, id string) (*model.Document, error) {
	return m.result(m.Called(ctx, caller, id))
}

func (m *MockWorkflowService) Approve(ctx context.Context, caller model.Identity, id, note string) (*model.Document, error) {
	return m.result(m.Called(ctx, caller, id, note))
}

func (m *MockWorkflowService) Reject(ctx context.Context, caller model.Identity, id, reason string) (*model.Document, error) {
	return m.result(m.Called(ctx, caller, id, reason))
}

type MockReportService struct {
	mock.Mock
}

var _ service.ReportService = (*MockReportService)(nil)

func (m *MockReportService) Summary(ctx context.Context) (*model.StatusSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusSummary), args.Error(1)
}

func (m *MockReportService) Users(ctx context.Context) ([]model.UserBreakdown, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserBreakdown), args.Error(1)
}

func (m *MockReportService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}

func (m *MockReportService) Report(ctx context.Context) (*model.Report, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

var _ service.ProfileService = (*MockProfileService)(nil)

func (m *MockProfileService) RecordLogin(ctx context.Context, caller model.Identity, in service.LoginInput) (*model.Profile, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileService) List(ctx context.Context) ([]model.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}
