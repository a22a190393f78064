package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/Dan9191/asset-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type assetKey struct{ name, uid string }

// memStore is an in-memory Store that counts balance writes
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	assets    map[assetKey]*models.Asset
	history   []*models.AssetHistory
	processed map[uuid.UUID]bool
	updates   int
	failOn    string
	failMark  error
}

func newMemStore() *memStore {
	return &memStore{assets: map[assetKey]*models.Asset{}, processed: map[uuid.UUID]bool{}}
}

func (m *memStore) put(uid, name string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.assets[assetKey{name, uid}] = &models.Asset{
		ID: m.nextID, Name: name, UID: uid, Type: "bank", Balance: decimal.NewFromInt(balance),
	}
}

func (m *memStore) balance(t *testing.T, uid, name string) decimal.Decimal {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetKey{name, uid}]
	if !ok {
		t.Fatalf("asset %s/%s not stored", uid, name)
	}
	return a.Balance
}

func (m *memStore) CreateAsset(_ context.Context, asset *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := assetKey{asset.Name, asset.UID}
	if _, ok := m.assets[k]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	asset.ID = m.nextID
	asset.CreatedAt = time.Now()
	asset.UpdatedAt = asset.CreatedAt
	cp := *asset
	m.assets[k] = &cp
	return nil
}

func (m *memStore) FindAssetByNameAndUID(_ context.Context, name, uid string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetKey{name, uid}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) FindAssetByName(_ context.Context, name string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Asset
	for k, a := range m.assets {
		if k.name == name && (found == nil || a.ID < found.ID) {
			found = a
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *memStore) FindAssetsByUID(_ context.Context, uid, _ string) ([]*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Asset
	for k, a := range m.assets {
		if k.uid == uid {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateAssetBalance(_ context.Context, asset *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if asset.Name == m.failOn {
		return errors.New("connection reset")
	}
	k := assetKey{asset.Name, asset.UID}
	stored, ok := m.assets[k]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Balance = asset.Balance
	stored.UpdatedAt = time.Now()
	asset.UpdatedAt = stored.UpdatedAt
	m.updates++
	return nil
}

func (m *memStore) DeleteAsset(_ context.Context, name, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := assetKey{name, uid}
	if _, ok := m.assets[k]; !ok {
		return repository.ErrNotFound
	}
	delete(m.assets, k)
	return nil
}

func (m *memStore) SnapshotBalances(_ context.Context, date time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assets {
		m.history = append(m.history, &models.AssetHistory{
			Name: a.Name, UID: a.UID, Type: a.Type, Balance: a.Balance, Date: date,
		})
	}
	return int64(len(m.assets)), nil
}

func (m *memStore) FindAssetHistory(_ context.Context, name, uid string) ([]*models.AssetHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AssetHistory
	for _, h := range m.history {
		if h.Name == name && h.UID == uid {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) IsTransferProcessed(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[id], nil
}

func (m *memStore) MarkTransferProcessed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMark != nil {
		return m.failMark
	}
	m.processed[id] = true
	return nil
}

// InTx restores assets and processed ids when fn fails
func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	assets := make(map[assetKey]*models.Asset, len(m.assets))
	for k, a := range m.assets {
		cp := *a
		assets[k] = &cp
	}
	processed := make(map[uuid.UUID]bool, len(m.processed))
	for id, ok := range m.processed {
		processed[id] = ok
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.assets, m.processed = assets, processed
		m.mu.Unlock()
		return err
	}
	return nil
}

type stubRecords struct {
	records     []models.PaymentRecord
	err         error
	year, month int
}

func (s *stubRecords) QueryPaymentRecords(_ context.Context, year, month int, _ string) ([]models.PaymentRecord, error) {
	s.year, s.month = year, month
	return s.records, s.err
}

type sentNotification struct {
	to    string
	asset string
	delta decimal.Decimal
}

type recordingNotifier struct {
	sent []sentNotification
}

func (n *recordingNotifier) SendBalanceNotification(to string, asset *models.Asset, delta decimal.Decimal) error {
	n.sent = append(n.sent, sentNotification{to: to, asset: asset.Name, delta: delta})
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(store *memStore) *Service {
	return NewService(store, &stubRecords{}, nil, quietLogger())
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
