package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nemt/internal/domain"
	"nemt/internal/repository"
	"nemt/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. Update
// honors the compare-and-swap contract: a stale Version loses with
// ErrVersionConflict, a winning write increments it.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByTripNumber(ctx context.Context, tripNumber string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.TripNumber == tripNumber {
			copy := *t
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTripRepository) GetAll(ctx context.Context, organizationID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		if organizationID != "" && t.OrganizationID != organizationID {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != trip.Version {
		return repository.ErrVersionConflict
	}
	trip.Version++
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// GetTripByNumber returns the trip by trip number (for test assertions).
func (m *MockTripRepository) GetTripByNumber(tripNumber string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.TripNumber == tripNumber {
			return t
		}
	}
	return nil
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context, organizationID string) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if organizationID != "" && d.OrganizationID != organizationID {
			continue
		}
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK RATE REPOSITORY
// ──────────────────────────────────────────────

// MockRateRepository is a mock implementation of RateRepository.
type MockRateRepository struct {
	mu            sync.RWMutex
	driverTables  map[string]*domain.DriverRateTable
	facilityRates map[string][]domain.FacilityRate

	// Counters for verification
	GetDriverTableCallCount int32

	// Error injection
	GetDriverTableError error
	GetFacilityError    error
}

// NewMockRateRepository creates a new mock rate repository.
func NewMockRateRepository() *MockRateRepository {
	return &MockRateRepository{
		driverTables:  make(map[string]*domain.DriverRateTable),
		facilityRates: make(map[string][]domain.FacilityRate),
	}
}

// SetDriverRateTable seeds a driver's tiers.
func (m *MockRateRepository) SetDriverRateTable(table *domain.DriverRateTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driverTables[table.DriverID] = table
}

// SetFacilityRates seeds a facility's flat rates.
func (m *MockRateRepository) SetFacilityRates(facilityID string, rates []domain.FacilityRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilityRates[facilityID] = rates
}

func (m *MockRateRepository) GetDriverRateTable(ctx context.Context, driverID string) (*domain.DriverRateTable, error) {
	atomic.AddInt32(&m.GetDriverTableCallCount, 1)
	if m.GetDriverTableError != nil {
		return nil, m.GetDriverTableError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driverTables[driverID], nil
}

func (m *MockRateRepository) ReplaceDriverRateTable(ctx context.Context, table *domain.DriverRateTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driverTables[table.DriverID] = table
	return nil
}

func (m *MockRateRepository) GetFacilityRates(ctx context.Context, facilityID string) ([]domain.FacilityRate, error) {
	if m.GetFacilityError != nil {
		return nil, m.GetFacilityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.facilityRates[facilityID], nil
}

func (m *MockRateRepository) ReplaceFacilityRates(ctx context.Context, facilityID string, rates []domain.FacilityRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.facilityRates[facilityID] = rates
	return nil
}

// ──────────────────────────────────────────────
// MOCK CHANGE HISTORY REPOSITORY
// ──────────────────────────────────────────────

// MockChangeHistoryRepository is a mock implementation of ChangeHistoryRepository.
type MockChangeHistoryRepository struct {
	mu      sync.RWMutex
	records []*domain.ChangeHistory

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockChangeHistoryRepository creates a new mock change history repository.
func NewMockChangeHistoryRepository() *MockChangeHistoryRepository {
	return &MockChangeHistoryRepository{
		records: make([]*domain.ChangeHistory, 0),
	}
}

func (m *MockChangeHistoryRepository) Create(ctx context.Context, record *domain.ChangeHistory) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *record
	m.records = append(m.records, &copy)
	return nil
}

func (m *MockChangeHistoryRepository) ListByTripID(ctx context.Context, tripID string) ([]*domain.ChangeHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ChangeHistory, 0)
	for _, r := range m.records {
		if r.TripID == tripID {
			result = append(result, r)
		}
	}
	return result, nil
}

// CountRecords returns the total number of records.
func (m *MockChangeHistoryRepository) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// RecordsOfType returns records of one change type for a trip.
func (m *MockChangeHistoryRepository) RecordsOfType(tripID string, changeType domain.ChangeType) []*domain.ChangeHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.ChangeHistory, 0)
	for _, r := range m.records {
		if r.TripID == tripID && r.ChangeType == changeType {
			result = append(result, r)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK TRIP SEQUENCE
// ──────────────────────────────────────────────

// MockTripSequence hands out monotonically increasing sequence values.
type MockTripSequence struct {
	counter int64

	// Error injection
	NextError error
}

// NewMockTripSequence creates a sequence starting at start.
func NewMockTripSequence(start int64) *MockTripSequence {
	return &MockTripSequence{counter: start - 1}
}

func (m *MockTripSequence) Next(ctx context.Context) (int64, error) {
	if m.NextError != nil {
		return 0, m.NextError
	}
	return atomic.AddInt64(&m.counter, 1), nil
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner satisfies service.TxRunner by handing the callback the mock
// repositories directly. There is no rollback; error-path tests assert on
// the returned error instead.
type MockTxRunner struct {
	Trips   *MockTripRepository
	History *MockChangeHistoryRepository

	// Counters for verification
	InTxCallCount int32

	// Error injection
	InTxError error
}

// NewMockTxRunner creates a tx runner over the given mocks.
func NewMockTxRunner(trips *MockTripRepository, history *MockChangeHistoryRepository) *MockTxRunner {
	return &MockTxRunner{Trips: trips, History: history}
}

func (m *MockTxRunner) InTx(ctx context.Context, fn func(trips repository.TripRepository, history repository.ChangeHistoryRepository) error) error {
	atomic.AddInt32(&m.InTxCallCount, 1)
	if m.InTxError != nil {
		return m.InTxError
	}
	return fn(m.Trips, m.History)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:trip:" + tripID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:trip:"+tripID)
	return nil
}

// IsLocked checks if a trip is locked (for test assertions).
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:trip:"+tripID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

type mockLocation struct {
	lat, lng float64
}

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]mockLocation

	// Counters for verification
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]mockLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = mockLocation{lat: lat, lng: lng}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID string) (lat, lng float64, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, exists := m.locations[driverID]
	if !exists {
		return 0, 0, false, nil
	}
	return loc.lat, loc.lng, true, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRACKING ISSUER
// ──────────────────────────────────────────────

// MockTrackingIssuer records tracking link requests.
type MockTrackingIssuer struct {
	mu      sync.Mutex
	tripIDs []string

	// Error injection
	IssueError error
}

// NewMockTrackingIssuer creates a new mock tracking issuer.
func NewMockTrackingIssuer() *MockTrackingIssuer {
	return &MockTrackingIssuer{}
}

func (m *MockTrackingIssuer) IssueTrackingLink(ctx context.Context, tripID string) (string, error) {
	if m.IssueError != nil {
		return "", m.IssueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tripIDs = append(m.tripIDs, tripID)
	return "http://localhost:8080/v1/tracking/token-" + tripID, nil
}

// IssuedFor reports whether a link was issued for the trip.
func (m *MockTrackingIssuer) IssuedFor(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.tripIDs {
		if id == tripID {
			return true
		}
	}
	return false
}

// MockNotificationSink records delivered notifications.
type MockNotificationSink struct {
	mu            sync.Mutex
	notifications []service.Notification

	// Error injection
	DeliverError error
}

// NewMockNotificationSink creates a new mock notification sink.
func NewMockNotificationSink() *MockNotificationSink {
	return &MockNotificationSink{}
}

func (m *MockNotificationSink) Deliver(ctx context.Context, notification service.Notification) error {
	if m.DeliverError != nil {
		return m.DeliverError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notification)
	return nil
}

// DeliveredOfType returns the delivered notifications of one type.
func (m *MockNotificationSink) DeliveredOfType(t service.NotificationType) []service.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.Notification
	for _, n := range m.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// CountDelivered returns the total number of delivered notifications.
func (m *MockNotificationSink) CountDelivered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
