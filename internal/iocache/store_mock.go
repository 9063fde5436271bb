package iocache

import (
	"time"

	"github.com/huangsam/repostudy/internal/contract"
	"github.com/huangsam/repostudy/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetResultStore implements the StoreManager interface.
func (m *MockStoreManager) GetResultStore() contract.ResultStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ResultStore)
	return store
}

// MockResultStore is a mock implementation of ResultStore for testing.
type MockResultStore struct {
	mock.Mock
}

var _ contract.ResultStore = &MockResultStore{} // Compile-time check

// BeginRun implements the ResultStore interface.
func (m *MockResultStore) BeginRun(startTime time.Time, params map[string]any) (int64, error) {
	args := m.Called(startTime, params)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the ResultStore interface.
func (m *MockResultStore) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// UpsertSize implements the ResultStore interface.
func (m *MockResultStore) UpsertSize(rec schema.SizeRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

// UpsertQuality implements the ResultStore interface.
func (m *MockResultStore) UpsertQuality(rec schema.QualityRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

// RecordFailure implements the ResultStore interface.
func (m *MockResultStore) RecordFailure(runID int64, entry schema.FailureEntry) error {
	args := m.Called(runID, entry)
	return args.Error(0)
}

// GetAllSizes implements the ResultStore interface.
func (m *MockResultStore) GetAllSizes() ([]schema.SizeRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.SizeRecord)
	return rows, args.Error(1)
}

// GetAllQualities implements the ResultStore interface.
func (m *MockResultStore) GetAllQualities() ([]schema.QualityRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.QualityRecord)
	return rows, args.Error(1)
}

// GetAllRuns implements the ResultStore interface.
func (m *MockResultStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.RunRecord)
	return rows, args.Error(1)
}

// GetAllFailures implements the ResultStore interface.
func (m *MockResultStore) GetAllFailures() ([]schema.FailureRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.FailureRecord)
	return rows, args.Error(1)
}

// GetStatus implements the ResultStore interface.
func (m *MockResultStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the ResultStore interface.
func (m *MockResultStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
