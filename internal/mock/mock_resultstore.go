package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Davknapp/tnodes/pkg/resultstore"
)

// MockResultStore is a mock implementation of pkg/resultstore.Repository.
type MockResultStore struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method.
func (m *MockResultStore) SaveRun(ctx context.Context, summary *resultstore.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// GetRunSummaries mocks the GetRunSummaries method.
func (m *MockResultStore) GetRunSummaries(ctx context.Context, runID string) ([]*resultstore.RunSummary, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resultstore.RunSummary), args.Error(1)
}

// Close mocks the Close method.
func (m *MockResultStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// HealthCheck mocks the HealthCheck method.
func (m *MockResultStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ExpectSaveRun sets up an expectation for SaveRun.
func (m *MockResultStore) ExpectSaveRun(err error) *mock.Call {
	return m.On("SaveRun", mock.Anything, mock.Anything).Return(err)
}

// ExpectGetRunSummaries sets up an expectation for GetRunSummaries.
func (m *MockResultStore) ExpectGetRunSummaries(runID string, summaries []*resultstore.RunSummary, err error) *mock.Call {
	return m.On("GetRunSummaries", mock.Anything, runID).Return(summaries, err)
}

var _ resultstore.Repository = (*MockResultStore)(nil)
