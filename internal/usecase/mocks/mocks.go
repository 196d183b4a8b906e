package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ilpnode/internal/domain"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu        sync.RWMutex
	accounts  map[string]*domain.Account
	usernames map[string]string
	alerts    map[string]string

	InsertFunc             func(ctx context.Context, account *domain.Account) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Account, error)
	GetByUsernameFunc      func(ctx context.Context, username string) (*domain.Account, error)
	UpdateFunc             func(ctx context.Context, account *domain.Account) error
	DeleteFunc             func(ctx context.Context, id string) (*domain.Account, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SetSettlementAlertFunc func(ctx context.Context, id, message string) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts:  make(map[string]*domain.Account),
		usernames: make(map[string]string),
		alerts:    make(map[string]string),
	}
}

func (m *MockAccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.usernames[account.Username]; taken {
		return domain.ErrDuplicateUsername
	}
	m.accounts[account.ID] = account
	m.usernames[account.Username] = account.ID
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		copied := *acc
		copied.SettlementAlert = m.alerts[id]
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	id, ok := m.usernames[username]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, id string) (*domain.Account, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	delete(m.accounts, id)
	delete(m.usernames, acc.Username)
	delete(m.alerts, id)
	return acc, nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*domain.Account
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, m.accounts[id])
	}
	return out, nil
}

func (m *MockAccountRepository) SetSettlementAlert(ctx context.Context, id, message string) error {
	if m.SetSettlementAlertFunc != nil {
		return m.SetSettlementAlertFunc(ctx, id, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if message == "" {
		delete(m.alerts, id)
		return nil
	}
	m.alerts[id] = message
	return nil
}

// MockBalanceStore is a mock implementation of BalanceStore. The default
// behavior honors the min_balance floor and emits triggers into Outbox when
// a crossing happens, mirroring the scripted store.
type MockBalanceStore struct {
	mu       sync.Mutex
	balances map[string]int64

	Outbox *MockOutboxRepository

	AdjustBalanceFunc func(ctx context.Context, account *domain.Account, delta int64) (int64, error)
	GetBalanceFunc    func(ctx context.Context, accountID string) (int64, error)
}

func NewMockBalanceStore() *MockBalanceStore {
	return &MockBalanceStore{balances: make(map[string]int64)}
}

func (m *MockBalanceStore) AdjustBalance(ctx context.Context, account *domain.Account, delta int64) (int64, error) {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, account, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.balances[account.ID]
	next := old + delta
	if account.MinBalance != nil && next < *account.MinBalance {
		return old, domain.ErrBalanceLimitExceeded
	}
	m.balances[account.ID] = next
	if m.Outbox != nil && account.SettleThreshold != nil &&
		old < *account.SettleThreshold && next >= *account.SettleThreshold {
		m.Outbox.Enqueue(ctx, &domain.SettlementTrigger{
			AccountID: account.ID,
			Amount:    next - account.SettleTarget(),
			Balance:   next,
			EmittedAt: time.Now().UnixMilli(),
		})
	}
	return next, nil
}

func (m *MockBalanceStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[accountID], nil
}

// SetBalance seeds a balance for a test.
func (m *MockBalanceStore) SetBalance(accountID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[accountID] = balance
}

// MockSettlementStore is a mock implementation of SettlementStore.
type MockSettlementStore struct {
	mu       sync.Mutex
	inFlight map[string]string
	seen     map[string]bool
	balances *MockBalanceStore

	AcquireInFlightFunc func(ctx context.Context, accountID, token string, ttl time.Duration) (bool, error)
	ReleaseInFlightFunc func(ctx context.Context, accountID, token string) error
	CreditIncomingFunc  func(ctx context.Context, accountID string, amount uint64, idempotencyKey string) (int64, bool, error)
}

// NewMockSettlementStore creates a MockSettlementStore crediting into the
// given balance store (nil keeps an isolated internal ledger).
func NewMockSettlementStore(balances *MockBalanceStore) *MockSettlementStore {
	if balances == nil {
		balances = NewMockBalanceStore()
	}
	return &MockSettlementStore{
		inFlight: make(map[string]string),
		seen:     make(map[string]bool),
		balances: balances,
	}
}

func (m *MockSettlementStore) AcquireInFlight(ctx context.Context, accountID, token string, ttl time.Duration) (bool, error) {
	if m.AcquireInFlightFunc != nil {
		return m.AcquireInFlightFunc(ctx, accountID, token, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.inFlight[accountID]; held {
		return false, nil
	}
	m.inFlight[accountID] = token
	return true, nil
}

func (m *MockSettlementStore) ReleaseInFlight(ctx context.Context, accountID, token string) error {
	if m.ReleaseInFlightFunc != nil {
		return m.ReleaseInFlightFunc(ctx, accountID, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[accountID] == token {
		delete(m.inFlight, accountID)
	}
	return nil
}

func (m *MockSettlementStore) CreditIncoming(ctx context.Context, accountID string, amount uint64, idempotencyKey string) (int64, bool, error) {
	if m.CreditIncomingFunc != nil {
		return m.CreditIncomingFunc(ctx, accountID, amount, idempotencyKey)
	}
	m.mu.Lock()
	duplicate := m.seen[accountID+":"+idempotencyKey]
	if !duplicate {
		m.seen[accountID+":"+idempotencyKey] = true
	}
	m.mu.Unlock()
	balance, err := m.balances.GetBalance(ctx, accountID)
	if err != nil {
		return 0, false, err
	}
	if duplicate {
		return balance, false, nil
	}
	newBalance, err := m.balances.AdjustBalance(ctx, &domain.Account{ID: accountID}, int64(amount))
	return newBalance, err == nil, err
}

// MockOutboxRepository is an in-memory settlement trigger queue.
type MockOutboxRepository struct {
	mu       sync.Mutex
	triggers []*domain.SettlementTrigger

	EnqueueFunc func(ctx context.Context, trigger *domain.SettlementTrigger) error
	DequeueFunc func(ctx context.Context, timeout time.Duration) (*domain.SettlementTrigger, error)
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, trigger *domain.SettlementTrigger) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, trigger)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	return nil
}

func (m *MockOutboxRepository) Dequeue(ctx context.Context, timeout time.Duration) (*domain.SettlementTrigger, error) {
	if m.DequeueFunc != nil {
		return m.DequeueFunc(ctx, timeout)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.triggers) == 0 {
		return nil, nil
	}
	trigger := m.triggers[0]
	m.triggers = m.triggers[1:]
	return trigger, nil
}

// Pending returns the queued triggers without consuming them.
func (m *MockOutboxRepository) Pending() []*domain.SettlementTrigger {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.SettlementTrigger, len(m.triggers))
	copy(out, m.triggers)
	return out
}

// MockRouteStore is a mock implementation of RouteStore.
type MockRouteStore struct {
	mu      sync.RWMutex
	static  map[string]string
	learned map[string]string

	ReplaceStaticRoutesFunc    func(ctx context.Context, routes map[string]string) error
	UpsertStaticRouteFunc      func(ctx context.Context, prefix, accountID string) error
	ReplaceLearnedRoutesFunc   func(ctx context.Context, routes map[string]string) error
	GetAllRoutesFunc           func(ctx context.Context) (map[string]string, map[string]string, error)
	RemoveRoutesForAccountFunc func(ctx context.Context, accountID string) error
}

func NewMockRouteStore() *MockRouteStore {
	return &MockRouteStore{
		static:  make(map[string]string),
		learned: make(map[string]string),
	}
}

func (m *MockRouteStore) ReplaceStaticRoutes(ctx context.Context, routes map[string]string) error {
	if m.ReplaceStaticRoutesFunc != nil {
		return m.ReplaceStaticRoutesFunc(ctx, routes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.static = make(map[string]string, len(routes))
	for prefix, id := range routes {
		m.static[prefix] = id
	}
	return nil
}

func (m *MockRouteStore) UpsertStaticRoute(ctx context.Context, prefix, accountID string) error {
	if m.UpsertStaticRouteFunc != nil {
		return m.UpsertStaticRouteFunc(ctx, prefix, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.static[prefix] = accountID
	return nil
}

func (m *MockRouteStore) ReplaceLearnedRoutes(ctx context.Context, routes map[string]string) error {
	if m.ReplaceLearnedRoutesFunc != nil {
		return m.ReplaceLearnedRoutesFunc(ctx, routes)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learned = make(map[string]string, len(routes))
	for prefix, id := range routes {
		m.learned[prefix] = id
	}
	return nil
}

func (m *MockRouteStore) GetAllRoutes(ctx context.Context) (map[string]string, map[string]string, error) {
	if m.GetAllRoutesFunc != nil {
		return m.GetAllRoutesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	static := make(map[string]string, len(m.static))
	for prefix, id := range m.static {
		static[prefix] = id
	}
	learned := make(map[string]string, len(m.learned))
	for prefix, id := range m.learned {
		learned[prefix] = id
	}
	return static, learned, nil
}

func (m *MockRouteStore) RemoveRoutesForAccount(ctx context.Context, accountID string) error {
	if m.RemoveRoutesForAccountFunc != nil {
		return m.RemoveRoutesForAccountFunc(ctx, accountID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for prefix, id := range m.static {
		if id == accountID {
			delete(m.static, prefix)
		}
	}
	for prefix, id := range m.learned {
		if id == accountID {
			delete(m.learned, prefix)
		}
	}
	return nil
}

// MockRateStore is a mock implementation of RateStore.
type MockRateStore struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal

	ReplaceRatesFunc func(ctx context.Context, rates map[string]decimal.Decimal) error
	GetAllRatesFunc  func(ctx context.Context) (map[string]decimal.Decimal, error)
}

func NewMockRateStore() *MockRateStore {
	return &MockRateStore{rates: make(map[string]decimal.Decimal)}
}

func (m *MockRateStore) ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal) error {
	if m.ReplaceRatesFunc != nil {
		return m.ReplaceRatesFunc(ctx, rates)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		m.rates[code] = rate
	}
	return nil
}

func (m *MockRateStore) GetAllRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if m.GetAllRatesFunc != nil {
		return m.GetAllRatesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(m.rates))
	for code, rate := range m.rates {
		out[code] = rate
	}
	return out, nil
}

// MockSettlementArchive records settlements in memory.
type MockSettlementArchive struct {
	mu      sync.Mutex
	records []*domain.SettlementRecord

	RecordFunc        func(ctx context.Context, rec *domain.SettlementRecord) error
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error)
}

func NewMockSettlementArchive() *MockSettlementArchive {
	return &MockSettlementArchive{}
}

func (m *MockSettlementArchive) Record(ctx context.Context, rec *domain.SettlementRecord) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MockSettlementArchive) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SettlementRecord
	for _, rec := range m.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Records returns everything archived so far.
func (m *MockSettlementArchive) Records() []*domain.SettlementRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.SettlementRecord, len(m.records))
	copy(out, m.records)
	return out
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + string(rune('0'+m.counter))
}
