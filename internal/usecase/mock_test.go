//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately without a real transaction unless a
// custom WithTxFunc is assigned.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock AccessRecordRepository ----

// MockAccessRecordRepo keeps records in memory by order id; any method can
// be overridden with its Func field.
type MockAccessRecordRepo struct {
	mu      sync.Mutex
	byOrder map[string]*model.AccessRecord

	FindByOrderIDFunc             func(ctx context.Context, tx repository.Tx, orderID string) (*model.AccessRecord, error)
	CreateFunc                    func(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error
	SaveFunc                      func(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error
	HasActiveAccessFunc           func(ctx context.Context, tx repository.Tx, ownerID string, kind model.ProductKind, at time.Time) (bool, error)
	CurrentSubscriptionWindowFunc func(ctx context.Context, tx repository.Tx, ownerID string, at time.Time) (*model.AccessRecord, error)
	LatestSubscriptionWindowFunc  func(ctx context.Context, tx repository.Tx, ownerID string) (*model.AccessRecord, error)
}

var _ repository.AccessRecordRepository = (*MockAccessRecordRepo)(nil)

func NewMockAccessRecordRepo() *MockAccessRecordRepo {
	return &MockAccessRecordRepo{byOrder: make(map[string]*model.AccessRecord)}
}

func (m *MockAccessRecordRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.AccessRecord, error) {
	if m.FindByOrderIDFunc != nil {
		return m.FindByOrderIDFunc(ctx, tx, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockAccessRecordRepo) Create(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byOrder[rec.OrderID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	m.byOrder[rec.OrderID] = &cp
	return nil
}

func (m *MockAccessRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.byOrder[rec.OrderID] = &cp
	return nil
}

func (m *MockAccessRecordRepo) DeleteByOrderID(ctx context.Context, tx repository.Tx, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byOrder[orderID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byOrder, orderID)
	return nil
}

func (m *MockAccessRecordRepo) HasActiveAccess(ctx context.Context, tx repository.Tx, ownerID string, kind model.ProductKind, at time.Time) (bool, error) {
	if m.HasActiveAccessFunc != nil {
		return m.HasActiveAccessFunc(ctx, tx, ownerID, kind, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byOrder {
		if rec.OwnerID != nil && *rec.OwnerID == ownerID && rec.ActiveAt(at) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccessRecordRepo) CurrentSubscriptionWindow(ctx context.Context, tx repository.Tx, ownerID string, at time.Time) (*model.AccessRecord, error) {
	if m.CurrentSubscriptionWindowFunc != nil {
		return m.CurrentSubscriptionWindowFunc(ctx, tx, ownerID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.AccessRecord
	for _, rec := range m.byOrder {
		if rec.OwnerID == nil || *rec.OwnerID != ownerID || !rec.ActiveAt(at) {
			continue
		}
		if best == nil || rec.StartAt.After(best.StartAt) {
			best = rec
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockAccessRecordRepo) LatestSubscriptionWindow(ctx context.Context, tx repository.Tx, ownerID string) (*model.AccessRecord, error) {
	if m.LatestSubscriptionWindowFunc != nil {
		return m.LatestSubscriptionWindowFunc(ctx, tx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.AccessRecord
	for _, rec := range m.byOrder {
		if rec.OwnerID == nil || *rec.OwnerID != ownerID || rec.RevokedAt != nil {
			continue
		}
		if best == nil || rec.StartAt.After(best.StartAt) {
			best = rec
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// Record returns a copy of the stored record for assertions.
func (m *MockAccessRecordRepo) Record(orderID string) *model.AccessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byOrder[orderID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// ---- Mock RecurringRepository ----

type MockRecurringRepo struct {
	mu   sync.Mutex
	byID map[string]*model.RecurringSubscription

	FindByIDFunc          func(ctx context.Context, tx repository.Tx, id string) (*model.RecurringSubscription, error)
	FindByOwnerFunc       func(ctx context.Context, tx repository.Tx, ownerID string) (*model.RecurringSubscription, error)
	SaveFunc              func(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error
	ListDueFunc           func(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.RecurringSubscription, error)
	HasActiveForOwnerFunc func(ctx context.Context, tx repository.Tx, ownerID string) (bool, error)
}

var _ repository.RecurringRepository = (*MockRecurringRepo)(nil)

func NewMockRecurringRepo() *MockRecurringRepo {
	return &MockRecurringRepo{byID: make(map[string]*model.RecurringSubscription)}
}

func (m *MockRecurringRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RecurringSubscription, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockRecurringRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.RecurringSubscription, error) {
	if m.FindByOwnerFunc != nil {
		return m.FindByOwnerFunc(ctx, tx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.OwnerID == ownerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRecurringRepo) Save(ctx context.Context, tx repository.Tx, s *model.RecurringSubscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *MockRecurringRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.RecurringSubscription, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, tx, now, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RecurringSubscription
	for _, s := range m.byID {
		if s.IsActive() && s.InstrumentID != nil && s.NextChargeAt != nil && !s.NextChargeAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRecurringRepo) HasActiveForOwner(ctx context.Context, tx repository.Tx, ownerID string) (bool, error) {
	if m.HasActiveForOwnerFunc != nil {
		return m.HasActiveForOwnerFunc(ctx, tx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		if s.OwnerID == ownerID && s.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRecurringRepo) SetLastAttempt(ctx context.Context, tx repository.Tx, id string, at time.Time, status model.ChargeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	s.LastAttemptAt = &t
	s.LastAttemptStatus = status
	return nil
}

func (m *MockRecurringRepo) Subscription(id string) *model.RecurringSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// ---- Mock ChargeAttemptRepository ----

type MockChargeAttemptRepo struct {
	mu       sync.Mutex
	Attempts []*model.ChargeAttempt

	CountSinceFunc func(ctx context.Context, tx repository.Tx, recurringID string, since time.Time) (int, error)
}

var _ repository.ChargeAttemptRepository = (*MockChargeAttemptRepo)(nil)

func NewMockChargeAttemptRepo() *MockChargeAttemptRepo { return &MockChargeAttemptRepo{} }

func (m *MockChargeAttemptRepo) Create(ctx context.Context, tx repository.Tx, a *model.ChargeAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.Attempts = append(m.Attempts, &cp)
	return nil
}

func (m *MockChargeAttemptRepo) CountSince(ctx context.Context, tx repository.Tx, recurringID string, since time.Time) (int, error) {
	if m.CountSinceFunc != nil {
		return m.CountSinceFunc(ctx, tx, recurringID, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.Attempts {
		if a.RecurringID == recurringID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ---- Mock ChargeAttemptLogRepository ----

type MockChargeAttemptLogRepo struct {
	mu   sync.Mutex
	Logs []*model.ChargeAttemptLog
}

var _ repository.ChargeAttemptLogRepository = (*MockChargeAttemptLogRepo)(nil)

func NewMockChargeAttemptLogRepo() *MockChargeAttemptLogRepo { return &MockChargeAttemptLogRepo{} }

func (m *MockChargeAttemptLogRepo) Create(ctx context.Context, tx repository.Tx, l *model.ChargeAttemptLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.Logs = append(m.Logs, &cp)
	return nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu         sync.Mutex
	byExternal map[string]*model.Payment

	ExistsPaidSinceFunc func(ctx context.Context, tx repository.Tx, ownerID, productID string, since time.Time) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{byExternal: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byExternal[p.ExternalPaymentID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byExternal[externalPaymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ExistsPaidSince(ctx context.Context, tx repository.Tx, ownerID, productID string, since time.Time) (bool, error) {
	if m.ExistsPaidSinceFunc != nil {
		return m.ExistsPaidSinceFunc(ctx, tx, ownerID, productID, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byExternal {
		if p.OwnerID != nil && *p.OwnerID == ownerID &&
			p.ProductID != nil && *p.ProductID == productID &&
			p.Status == model.PaymentStatusPaid &&
			p.PaidAt != nil && !p.PaidAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPaymentRepo) Payment(externalID string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byExternal[externalID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func (m *MockPaymentRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byExternal)
}

// ---- Mock PaymentInstrumentRepository ----

type MockInstrumentRepo struct {
	mu   sync.Mutex
	byID map[string]*model.PaymentInstrument

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.PaymentInstrument, error)
}

var _ repository.PaymentInstrumentRepository = (*MockInstrumentRepo)(nil)

func NewMockInstrumentRepo() *MockInstrumentRepo {
	return &MockInstrumentRepo{byID: make(map[string]*model.PaymentInstrument)}
}

func (m *MockInstrumentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentInstrument, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *MockInstrumentRepo) UpsertByNaturalKey(ctx context.Context, tx repository.Tx, i *model.PaymentInstrument) (*model.PaymentInstrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.byID {
		if old.OwnerID == i.OwnerID && old.Provider == i.Provider && old.Method == i.Method && old.RebillID == i.RebillID {
			old.CardMask = i.CardMask
			old.ExpDate = i.ExpDate
			old.Status = i.Status
			cp := *old
			return &cp, nil
		}
	}
	cp := *i
	m.byID[i.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MockInstrumentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.InstrumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	i.Status = status
	return nil
}

func (m *MockInstrumentRepo) Put(i *model.PaymentInstrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *i
	m.byID[i.ID] = &cp
}

func (m *MockInstrumentRepo) Instrument(id string) *model.PaymentInstrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *i
	return &cp
}

// ---- Mock DirectoryRepository ----

type MockDirectoryRepo struct {
	mu         sync.Mutex
	owners     map[string]*model.Owner   // by username
	products   map[string]*model.Product // by shop id
	ownersByID map[string]*model.Owner
	prodByID   map[string]*model.Product
}

var _ repository.DirectoryRepository = (*MockDirectoryRepo)(nil)

func NewMockDirectoryRepo() *MockDirectoryRepo {
	return &MockDirectoryRepo{
		owners:     make(map[string]*model.Owner),
		products:   make(map[string]*model.Product),
		ownersByID: make(map[string]*model.Owner),
		prodByID:   make(map[string]*model.Product),
	}
}

func (m *MockDirectoryRepo) FindOrCreateOwner(ctx context.Context, tx repository.Tx, o *model.Owner) (*model.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.owners[o.Username]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *o
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	m.owners[cp.Username] = &cp
	m.ownersByID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MockDirectoryRepo) FindOwnerByID(ctx context.Context, tx repository.Tx, id string) (*model.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.ownersByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockDirectoryRepo) FindOrCreateProduct(ctx context.Context, tx repository.Tx, shopID, name string, lifetimeDays int) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.products[shopID]; ok {
		cp := *existing
		return &cp, nil
	}
	p := &model.Product{ID: uuid.NewString(), ShopID: shopID, Name: name, Kind: model.ProductKindCourse, LifetimeDays: lifetimeDays}
	m.products[shopID] = p
	m.prodByID[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *MockDirectoryRepo) FindProductByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prodByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockDirectoryRepo) FindProductByShopID(ctx context.Context, tx repository.Tx, shopID string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[shopID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockDirectoryRepo) PutOwner(o *model.Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.owners[cp.Username] = &cp
	m.ownersByID[cp.ID] = &cp
}

func (m *MockDirectoryRepo) PutProduct(p *model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[cp.ShopID] = &cp
	m.prodByID[cp.ID] = &cp
}

// ---- Mock DeadLetterRepository ----

type MockDeadLetterRepo struct {
	mu      sync.Mutex
	Letters []*model.DeadLetter

	CreateFunc func(ctx context.Context, tx repository.Tx, d *model.DeadLetter) error
}

var _ repository.DeadLetterRepository = (*MockDeadLetterRepo)(nil)

func NewMockDeadLetterRepo() *MockDeadLetterRepo { return &MockDeadLetterRepo{} }

func (m *MockDeadLetterRepo) Create(ctx context.Context, tx repository.Tx, d *model.DeadLetter) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.Letters = append(m.Letters, &cp)
	return nil
}

// ---- Mock WindowCache ----

type MockCache struct {
	mu          sync.Mutex
	windows     map[string]*adapter.CachedWindow
	active      map[string]bool
	recurring   map[string]bool
	Invalidated []string
}

var _ adapter.WindowCache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{
		windows:   make(map[string]*adapter.CachedWindow),
		active:    make(map[string]bool),
		recurring: make(map[string]bool),
	}
}

func (m *MockCache) GetWindow(ctx context.Context, ownerID string) (*adapter.CachedWindow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[ownerID]
	return w, ok
}

func (m *MockCache) SetWindow(ctx context.Context, ownerID string, w *adapter.CachedWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[ownerID] = w
	return nil
}

func (m *MockCache) GetActive(ctx context.Context, ownerID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.active[ownerID]
	return v, ok
}

func (m *MockCache) SetActive(ctx context.Context, ownerID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[ownerID] = active
	return nil
}

func (m *MockCache) GetRecurringActive(ctx context.Context, ownerID string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.recurring[ownerID]
	return v, ok
}

func (m *MockCache) SetRecurringActive(ctx context.Context, ownerID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recurring[ownerID] = active
	return nil
}

func (m *MockCache) InvalidateOwner(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, ownerID)
	delete(m.active, ownerID)
	delete(m.recurring, ownerID)
	m.Invalidated = append(m.Invalidated, ownerID)
	return nil
}

// ---- Mock NotificationDispatcher ----

type MockNotifier struct {
	mu             sync.Mutex
	AccessGrants   []string // order ids
	ChargeAttempts []string // attempt ids
}

var _ adapter.NotificationDispatcher = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

func (m *MockNotifier) NotifyAccessGranted(ctx context.Context, ownerID, orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessGrants = append(m.AccessGrants, orderID)
}

func (m *MockNotifier) NotifyChargeAttempt(ctx context.Context, ownerID, attemptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargeAttempts = append(m.ChargeAttempts, attemptID)
}

// ---- Mock RecurringGateway ----

type MockGateway struct {
	InitFunc   func(ctx context.Context, p adapter.InitParams) (string, error)
	ChargeFunc func(ctx context.Context, paymentID, rebillID, email string) (*adapter.ChargeResult, error)

	InitCalls   []adapter.InitParams
	ChargeCalls []string // payment ids
}

var _ adapter.RecurringGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "tinkoff" }

func (m *MockGateway) Init(ctx context.Context, p adapter.InitParams) (string, error) {
	m.InitCalls = append(m.InitCalls, p)
	if m.InitFunc != nil {
		return m.InitFunc(ctx, p)
	}
	return "pay-1", nil
}

func (m *MockGateway) Charge(ctx context.Context, paymentID, rebillID, email string) (*adapter.ChargeResult, error) {
	m.ChargeCalls = append(m.ChargeCalls, paymentID)
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, paymentID, rebillID, email)
	}
	return &adapter.ChargeResult{
		Success:           true,
		Status:            "CONFIRMED",
		ExternalPaymentID: paymentID,
		Raw:               map[string]any{"Status": "CONFIRMED"},
	}, nil
}
