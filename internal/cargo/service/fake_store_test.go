package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/repository"
)

// memStore 内存版仓库，满足 ShipmentStore 和 BoxStore
type memStore struct {
	mu        sync.Mutex
	nextID    uint64
	shipments map[uint64]*entity.Shipment
	boxes     map[uint64]*entity.Box
	scans     map[uint64]int64
	creates   int
	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		shipments: make(map[uint64]*entity.Shipment),
		boxes:     make(map[uint64]*entity.Box),
		scans:     make(map[uint64]int64),
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shipments {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Create(_ context.Context, s *entity.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.shipments {
		if existing.Code == s.Code {
			return repository.ErrDuplicateCode
		}
	}
	s.ID = m.id()
	for i := range s.Articles {
		a := &s.Articles[i]
		a.ID = m.id()
		a.ShipmentID = s.ID
		for j := range a.Boxes {
			b := &a.Boxes[j]
			b.ID = m.id()
			b.ArticleID = a.ID
			b.ShipmentID = s.ID
			cp := *b
			m.boxes[b.ID] = &cp
		}
	}
	cp := *s
	m.shipments[s.ID] = &cp
	return nil
}

func (m *memStore) FindByID(_ context.Context, id uint64) (*entity.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	cp.Articles = nil
	return &cp, nil
}

func (m *memStore) FindByCode(ctx context.Context, code string) (*entity.Shipment, error) {
	m.mu.Lock()
	var id uint64
	for _, s := range m.shipments {
		if s.Code == code {
			id = s.ID
		}
	}
	m.mu.Unlock()
	return m.FindByID(ctx, id)
}

func (m *memStore) ListArticles(_ context.Context, shipmentID uint64) ([]entity.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[shipmentID]
	if !ok {
		return nil, nil
	}
	out := make([]entity.Article, len(s.Articles))
	copy(out, s.Articles)
	return out, nil
}

func (m *memStore) List(_ context.Context, _ string, _, _ int) ([]repository.ShipmentSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.ShipmentSummary
	for _, s := range m.shipments {
		out = append(out, repository.ShipmentSummary{Shipment: *s, Articles: int64(len(s.Articles))})
	}
	return out, int64(len(out)), nil
}

// ListBoxes 与数据库相同的排序：posicion, numero_caja, id_qr
func (m *memStore) ListBoxes(_ context.Context, shipmentID uint64) ([]entity.BoxListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[shipmentID]
	if !ok {
		return nil, nil
	}
	var rows []entity.BoxListing
	for _, a := range s.Articles {
		for _, b := range a.Boxes {
			rows = append(rows, entity.BoxListing{
				BoxID:       b.ID,
				ArticleID:   a.ID,
				Position:    a.Position,
				Number:      b.Number,
				Total:       b.Total,
				Code:        b.Code,
				Payload:     b.Payload,
				Description: a.Description,
				Ref:         a.Ref,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Position != rows[j].Position {
			return rows[i].Position < rows[j].Position
		}
		if rows[i].Number != rows[j].Number {
			return rows[i].Number < rows[j].Number
		}
		return rows[i].BoxID < rows[j].BoxID
	})
	return rows, nil
}

func (m *memStore) FindBox(_ context.Context, id uint64) (*entity.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) FindBoxByCode(ctx context.Context, code string) (*entity.Box, error) {
	m.mu.Lock()
	var id uint64
	for _, b := range m.boxes {
		if b.Code == code {
			id = b.ID
		}
	}
	m.mu.Unlock()
	return m.FindBox(ctx, id)
}

func (m *memStore) RecordScan(_ context.Context, scan *entity.BoxScan) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans[scan.BoxID]++
	return m.scans[scan.BoxID], nil
}

// memCache 记录命中次数
type memCache struct {
	data map[string][]byte
	hits int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, boxID uint64, width int) ([]byte, bool) {
	v, ok := c.data[pngKey(boxID, width)]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *memCache) Set(_ context.Context, boxID uint64, width int, png []byte) {
	c.data[pngKey(boxID, width)] = png
}

// memObjects 内存对象存储
type memObjects struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (o *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if o.putErr != nil {
		return o.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.objects[key] = data
	o.types[key] = contentType
	return nil
}

func (o *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := o.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o *memObjects) URL(_ context.Context, key string, expire time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/%s?expires=%d", key, int(expire.Seconds())), nil
}
