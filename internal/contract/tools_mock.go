package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockVCSClient is a mock implementation of VCSClient for testing.
type MockVCSClient struct {
	mock.Mock
}

var _ VCSClient = &MockVCSClient{} // Compile-time check

// ShallowClone implements the VCSClient interface.
func (m *MockVCSClient) ShallowClone(ctx context.Context, url, dest string) error {
	args := m.Called(ctx, url, dest)
	return args.Error(0)
}

// ExtractSources implements the VCSClient interface.
func (m *MockVCSClient) ExtractSources(ctx context.Context, url, dest string, keep func(path string) bool) (int, error) {
	args := m.Called(ctx, url, dest, keep)
	return args.Int(0), args.Error(1)
}

// MockSizeCounter is a mock implementation of SizeCounter for testing.
type MockSizeCounter struct {
	mock.Mock
}

var _ SizeCounter = &MockSizeCounter{} // Compile-time check

// Count implements the SizeCounter interface.
func (m *MockSizeCounter) Count(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ret := m.Called(ctx, dir, args)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// MockQualityMeter is a mock implementation of QualityMeter for testing.
type MockQualityMeter struct {
	mock.Mock
}

var _ QualityMeter = &MockQualityMeter{} // Compile-time check

// Measure implements the QualityMeter interface.
func (m *MockQualityMeter) Measure(ctx context.Context, target, outDir string) error {
	args := m.Called(ctx, target, outDir)
	return args.Error(0)
}

// MockRepoFetcher is a mock implementation of RepoFetcher for testing.
type MockRepoFetcher struct {
	mock.Mock
}

var _ RepoFetcher = &MockRepoFetcher{} // Compile-time check

// SearchRepos implements the RepoFetcher interface.
func (m *MockRepoFetcher) SearchRepos(ctx context.Context, query string, page, perPage int) ([]RemoteRepo, int, error) {
	args := m.Called(ctx, query, page, perPage)
	repos, _ := args.Get(0).([]RemoteRepo)
	return repos, args.Int(1), args.Error(2)
}

// CountReleases implements the RepoFetcher interface.
func (m *MockRepoFetcher) CountReleases(ctx context.Context, owner, name string) (int64, error) {
	args := m.Called(ctx, owner, name)
	return args.Get(0).(int64), args.Error(1)
}
