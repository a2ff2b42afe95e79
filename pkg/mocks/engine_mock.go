package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flowtrack-io/flowtrack/pkg/models"
	"github.com/flowtrack-io/flowtrack/pkg/report"
)

// MockEngine is a mock implementation of engine.Engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Submit(ctx context.Context, trigger map[string]any, topic string) ([]models.LiveInstance, error) {
	args := m.Called(ctx, trigger, topic)

	instances, _ := args.Get(0).([]models.LiveInstance)

	return instances, args.Error(1)
}

func (m *MockEngine) Resume(ctx context.Context, rep *report.Report) (models.LiveInstance, error) {
	args := m.Called(ctx, rep)

	instance, _ := args.Get(0).(models.LiveInstance)

	return instance, args.Error(1)
}
