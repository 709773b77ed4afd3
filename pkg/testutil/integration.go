package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
)

// IntegrationTestSuite provides a context, a scratch directory and per-source
// mock connectors for end-to-end validation tests.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
	mocks     map[core.Source]*MockConnector
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "penguin-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// SetupTest gives every test fresh mock connectors.
func (s *IntegrationTestSuite) SetupTest() {
	s.mocks = make(map[core.Source]*MockConnector)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	if s.tempDir != "" {
		_ = os.RemoveAll(s.tempDir)
	}
	s.T().Logf("suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the scratch directory
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// Mock returns the mock connector for source, creating it on first use.
func (s *IntegrationTestSuite) Mock(source core.Source) *MockConnector {
	m, ok := s.mocks[source]
	if !ok {
		m = NewMockConnector(source)
		s.mocks[source] = m
	}
	return m
}

// CreateTempFile writes content to name inside the scratch directory.
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, content, 0o600))
	return path
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
