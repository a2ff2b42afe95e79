package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) TemplateByID(ctx context.Context, id string, draft bool) (*models.WorkflowTemplate, error) {
	args := m.Called(ctx, id, draft)

	template, _ := args.Get(0).(*models.WorkflowTemplate)

	return template, args.Error(1)
}

func (m *MockPersistence) SaveTemplate(ctx context.Context, template *models.WorkflowTemplate) error {
	args := m.Called(ctx, template)

	return args.Error(0)
}

func (m *MockPersistence) Templates(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	args := m.Called(ctx)

	templates, _ := args.Get(0).([]*models.WorkflowTemplate)

	return templates, args.Error(1)
}

func (m *MockPersistence) InsertFinishedInstance(ctx context.Context, rep *report.Report) error {
	args := m.Called(ctx, rep)

	return args.Error(0)
}

func (m *MockPersistence) FinishedInstanceByID(ctx context.Context, instanceID string) (*report.Report, error) {
	args := m.Called(ctx, instanceID)

	rep, _ := args.Get(0).(*report.Report)

	return rep, args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
