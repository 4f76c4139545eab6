package iocache

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetCacheStore implements the StoreManager interface.
func (m *MockStoreManager) GetCacheStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetReportStore implements the StoreManager interface.
func (m *MockStoreManager) GetReportStore() contract.ReportStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ReportStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockReportStore is a mock implementation of ReportStore for testing.
type MockReportStore struct {
	mock.Mock
}

var _ contract.ReportStore = &MockReportStore{} // Compile-time check

// BeginRun implements the ReportStore interface.
func (m *MockReportStore) BeginRun(runID string, subjectID int64, window schema.MetricWindow, startTime time.Time, configParams map[string]any) error {
	args := m.Called(runID, subjectID, window, startTime, configParams)
	return args.Error(0)
}

// EndRun implements the ReportStore interface.
func (m *MockReportStore) EndRun(runID string, endTime time.Time, subject string, rating schema.QualityRating, errorCount int) error {
	args := m.Called(runID, endTime, subject, rating, errorCount)
	return args.Error(0)
}

// RecordMetrics implements the ReportStore interface.
func (m *MockReportStore) RecordMetrics(runID string, subjectID int64, rows []schema.MetricRow, recordedAt time.Time) error {
	args := m.Called(runID, subjectID, rows, recordedAt)
	return args.Error(0)
}

// GetStatus implements the ReportStore interface.
func (m *MockReportStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllReportRuns implements the ReportStore interface.
func (m *MockReportStore) GetAllReportRuns() ([]schema.ReportRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.ReportRunRecord)
	return runs, args.Error(1)
}

// GetAllFamilyMetrics implements the ReportStore interface.
func (m *MockReportStore) GetAllFamilyMetrics() ([]schema.FamilyMetricRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.FamilyMetricRecord)
	return rows, args.Error(1)
}

// Close implements the ReportStore interface.
func (m *MockReportStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
