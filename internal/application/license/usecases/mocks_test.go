package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	appentitlement "github.com/hrshiti/inplay-sub000/internal/application/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// memoryLicenseRepository mirrors the storage contract of license.Repository.
// Stored licenses are copies so callers cannot mutate them without a write.
type memoryLicenseRepository struct {
	mu     sync.Mutex
	rows   []*license.License
	nextID uint

	collisionsLeft   int
	CreateFunc       func(ctx context.Context, l *license.License) error
	UpdateFunc       func(ctx context.Context, l *license.License) (bool, error)
	FindExpiredFunc  func(ctx context.Context, now time.Time, limit int) ([]*license.License, error)
	abuseFlagWrites  int
	lifecycleUpdates int
}

func newMemoryLicenseRepository() *memoryLicenseRepository {
	return &memoryLicenseRepository{nextID: 1}
}

func clone(l *license.License) *license.License {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}

func (m *memoryLicenseRepository) CreateWithinDeviceLimit(ctx context.Context, l *license.License, maxDevices int, now time.Time) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, l); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collisionsLeft > 0 {
		m.collisionsLeft--
		return license.ErrKeyCollision
	}

	active := 0
	for _, row := range m.rows {
		if row.UserID() != l.UserID() || row.ContentID() != l.ContentID() || !row.IsActive() {
			continue
		}
		if row.IsExpiredAt(now) {
			_ = row.Expire(now)
			continue
		}
		if row.DeviceID() == l.DeviceID() {
			return license.NewError(license.KindAlreadyExists, "one_license_per_device", map[string]any{"sid": row.SID()})
		}
		active++
	}
	if active >= maxDevices {
		return license.NewError(license.KindMaxDevicesReached, "max_devices", map[string]any{"limit": maxDevices, "active": active})
	}
	for _, row := range m.rows {
		if row.KeyHash() == l.KeyHash() {
			return license.ErrKeyCollision
		}
	}

	if err := l.SetID(m.nextID); err != nil {
		return err
	}
	m.nextID++
	m.rows = append(m.rows, clone(l))
	return nil
}

func (m *memoryLicenseRepository) find(match func(*license.License) bool) *license.License {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if match(row) {
			return clone(row)
		}
	}
	return nil
}

func (m *memoryLicenseRepository) stored(id uint) *license.License {
	for _, row := range m.rows {
		if row.ID() == id {
			return row
		}
	}
	return nil
}

func (m *memoryLicenseRepository) GetBySID(ctx context.Context, sid string) (*license.License, error) {
	return m.find(func(l *license.License) bool { return l.SID() == sid }), nil
}

func (m *memoryLicenseRepository) GetByKeyHash(ctx context.Context, keyHash string) (*license.License, error) {
	return m.find(func(l *license.License) bool { return l.KeyHash() == keyHash }), nil
}

func (m *memoryLicenseRepository) FindActiveByKeyAndDevice(ctx context.Context, keyHash, deviceID string) (*license.License, error) {
	return m.find(func(l *license.License) bool {
		return l.KeyHash() == keyHash && l.DeviceID() == deviceID && l.IsActive()
	}), nil
}

func (m *memoryLicenseRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*license.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*license.License
	for _, row := range m.rows {
		if row.UserID() == userID && row.IsUsableAt(now) {
			out = append(out, clone(row))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssuedAt().After(out[j].IssuedAt()) })
	return out, nil
}

func (m *memoryLicenseRepository) UpdateLifecycle(ctx context.Context, l *license.License) (bool, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, l)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.stored(l.ID())
	if row == nil || !row.IsActive() {
		return false, nil
	}
	*row = *clone(l)
	m.lifecycleUpdates++
	return true, nil
}

func (m *memoryLicenseRepository) IncrementAccess(ctx context.Context, id uint, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.stored(id)
	if row == nil {
		return 0, fmt.Errorf("license %d not found", id)
	}
	if err := row.RecordAccess(at, 0); err != nil {
		return 0, err
	}
	return row.AccessCount(), nil
}

func (m *memoryLicenseRepository) MarkAbuseFlagged(ctx context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row := m.stored(id); row != nil && row.FlagAbuse(at) {
		m.abuseFlagWrites++
	}
	return nil
}

func (m *memoryLicenseRepository) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]*license.License, error) {
	if m.FindExpiredFunc != nil {
		return m.FindExpiredFunc(ctx, now, limit)
	}
	return m.findExpired(now, limit), nil
}

func (m *memoryLicenseRepository) findExpired(now time.Time, limit int) []*license.License {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*license.License
	for _, row := range m.rows {
		if row.IsActive() && row.IsExpiredAt(now) {
			out = append(out, clone(row))
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (m *memoryLicenseRepository) ExpireBatch(ctx context.Context, ids []uint, now time.Time) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []uint
	for _, id := range ids {
		row := m.stored(id)
		if row == nil || !row.IsActive() {
			continue
		}
		if err := row.Expire(now); err == nil {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

// revokeStored revokes a row in place, as another request would.
func (m *memoryLicenseRepository) revokeStored(id uint, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.stored(id)
	if row == nil {
		return fmt.Errorf("license %d not found", id)
	}
	return row.Revoke(now, license.ReasonUserRequested)
}

// snapshot returns copies of all rows for whole-state comparisons.
func (m *memoryLicenseRepository) snapshot() []license.License {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]license.License, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out
}

type mockContentRepository struct {
	mu             sync.Mutex
	items          map[string]*content.Content
	downloadCounts map[string]int
	IncrementErr   error
}

func newMockContentRepository() *mockContentRepository {
	return &mockContentRepository{items: map[string]*content.Content{}, downloadCounts: map[string]int{}}
}

func (m *mockContentRepository) GetByID(ctx context.Context, id string) (*content.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockContentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	if m.IncrementErr != nil {
		return m.IncrementErr
	}
	m.mu.Lock()
	m.downloadCounts[id]++
	m.mu.Unlock()
	return nil
}

func (m *mockContentRepository) IncrementViewCount(ctx context.Context, id string) error {
	return nil
}

type mockUserRepository struct {
	users map[string]*user.User
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return m.users[id], nil
}

type mockPurchaseRepository struct {
	owned map[string]bool
}

func (m *mockPurchaseRepository) HasCompletedPurchase(ctx context.Context, userID, contentID string) (bool, error) {
	return m.owned[userID+"/"+contentID], nil
}

type sequentialKeys struct {
	mu sync.Mutex
	n  int
}

func (k *sequentialKeys) Generate() (string, string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.n++
	plain := fmt.Sprintf("lk_test_%04d", k.n)
	return plain, k.Hash(plain), nil
}

func (k *sequentialKeys) Hash(plain string) string {
	return "hash:" + plain
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []license.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event license.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count(t license.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type recordingMetrics struct {
	mu        sync.Mutex
	issued    map[string]int
	validated map[string]int
	revoked   map[string]int
	expired   int
	abuse     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{issued: map[string]int{}, validated: map[string]int{}, revoked: map[string]int{}}
}

func (m *recordingMetrics) LicenseIssued(result string) {
	m.mu.Lock()
	m.issued[result]++
	m.mu.Unlock()
}

func (m *recordingMetrics) LicenseValidated(result string) {
	m.mu.Lock()
	m.validated[result]++
	m.mu.Unlock()
}

func (m *recordingMetrics) LicenseRevoked(by string) {
	m.mu.Lock()
	m.revoked[by]++
	m.mu.Unlock()
}

func (m *recordingMetrics) LicensesExpired(n int) {
	m.mu.Lock()
	m.expired += n
	m.mu.Unlock()
}

func (m *recordingMetrics) AbuseFlagged() {
	m.mu.Lock()
	m.abuse++
	m.mu.Unlock()
}

type stubSigner struct{}

func (stubSigner) Sign(ctx context.Context, locator string, expiresAt time.Time, opts content.SignOptions) (string, error) {
	return "https://cdn.example.com/" + locator + "?exp=" + expiresAt.Format(time.RFC3339), nil
}

// harness wires every license use case over in-memory ports.
type harness struct {
	clock     *biztime.FixedClock
	licenses  *memoryLicenseRepository
	contents  *mockContentRepository
	users     *mockUserRepository
	purchases *mockPurchaseRepository
	keys      *sequentialKeys
	publisher *recordingPublisher
	metrics   *recordingMetrics
	policy    Policy

	issue    *IssueLicenseUseCase
	validate *ValidateLicenseUseCase
	revoke   *RevokeLicenseUseCase
	list     *ListActiveLicensesUseCase
	expire   *ExpireLicensesUseCase
}

func newHarness() *harness {
	h := &harness{
		clock:     biztime.NewFixedClock(baseTime),
		licenses:  newMemoryLicenseRepository(),
		contents:  newMockContentRepository(),
		users:     &mockUserRepository{users: map[string]*user.User{}},
		purchases: &mockPurchaseRepository{owned: map[string]bool{}},
		keys:      &sequentialKeys{},
		publisher: &recordingPublisher{},
		metrics:   newRecordingMetrics(),
		policy:    DefaultPolicy(),
	}
	h.build()
	return h
}

func (h *harness) build() {
	log := logger.NewDiscard()
	resolver := appentitlement.NewResolver(h.contents, h.users, h.purchases, h.clock, log)
	links := delivery.NewLinkBuilder(stubSigner{}, "https://media.example.com")
	sidCounter := 0
	newSID := func() (string, error) {
		sidCounter++
		return fmt.Sprintf("lic_%016d", sidCounter), nil
	}

	h.issue = NewIssueLicenseUseCase(h.licenses, h.contents, resolver, links, h.keys, newSID, h.publisher, h.metrics, h.policy, h.clock, log)
	h.validate = NewValidateLicenseUseCase(h.licenses, resolver, links, h.keys, h.publisher, h.metrics, h.policy, h.clock, log)
	h.revoke = NewRevokeLicenseUseCase(h.licenses, h.keys, h.publisher, h.metrics, h.clock, log)
	h.list = NewListActiveLicensesUseCase(h.licenses, h.clock, log)
	h.expire = NewExpireLicensesUseCase(h.licenses, h.publisher, h.metrics, h.policy.SweepBatchSize, h.clock, log)
}

func (h *harness) addContent(c *content.Content) {
	h.contents.items[c.ID] = c
}

func (h *harness) addSubscriber(userID string, endDate time.Time) {
	h.users.users[userID] = &user.User{ID: userID, Subscription: &user.Subscription{IsActive: true, EndDate: endDate}}
}

func (h *harness) addUser(userID string) {
	h.users.users[userID] = &user.User{ID: userID}
}

func (h *harness) cancelSubscription(userID string) {
	if u := h.users.users[userID]; u != nil && u.Subscription != nil {
		u.Subscription.IsActive = false
	}
}

func (h *harness) addPurchase(userID, contentID string) {
	h.purchases.owned[userID+"/"+contentID] = true
}

func paidRemoteContent(id string) *content.Content {
	return &content.Content{
		ID:     id,
		Title:  "Paid Film",
		Type:   "movie",
		Status: content.StatusPublished,
		IsPaid: true,
		Asset: content.Asset{
			Host:            content.AssetHostRemote,
			Locator:         "videos/" + id + "/master.mp4",
			DurationSeconds: 5400,
			Renditions:      map[string]string{"720p": "videos/" + id + "/720p.mp4"},
		},
		PosterURL: "https://img.example.com/" + id + ".jpg",
	}
}

func freeLocalContent(id string) *content.Content {
	return &content.Content{
		ID:     id,
		Title:  "Free Short",
		Status: content.StatusPublished,
		Asset:  content.Asset{Host: content.AssetHostLocal, Locator: id + ".mp4"},
	}
}
