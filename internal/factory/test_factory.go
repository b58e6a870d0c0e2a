package factory

import (
	"time"

	"github.com/mcoot/teambalancer/internal/dependencies/mocks"
	memorybus "github.com/mcoot/teambalancer/internal/pubsub/memory"
	"github.com/mcoot/teambalancer/internal/storage/memory"
	"github.com/mcoot/teambalancer/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.SequentialIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	bus := memorybus.New(logger)
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewSequentialIDs("id")

	app := newWithDependencies(store, bus, nil, mockClock, mockRandom, mockIDs, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
	}
}
