package ordersync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// memStore is an in-memory orders.Store. Atomically snapshots the data and
// restores it when the callback fails, mimicking a rolled-back transaction.
type memStore struct {
	mu         sync.Mutex
	ordersByID map[uuid.UUID]*orders.Order
	remoteIdx  map[string]uuid.UUID
	items      map[uuid.UUID][]orders.LineItem
	states     map[string]*orders.SyncJobState

	failSaves     int
	stateSaveErrs int
	recordSaveErr error
}

func newMemStore() *memStore {
	return &memStore{
		ordersByID: make(map[uuid.UUID]*orders.Order),
		remoteIdx:  make(map[string]uuid.UUID),
		items:      make(map[uuid.UUID][]orders.LineItem),
		states:     make(map[string]*orders.SyncJobState),
	}
}

func (s *memStore) Orders() orders.OrderRepository         { return (*memOrderRepo)(s) }
func (s *memStore) SyncStates() orders.SyncStateRepository { return (*memStateRepo)(s) }

func (s *memStore) Atomically(ctx context.Context, fn func(orders.Store) error) error {
	s.mu.Lock()
	ordersSnap := make(map[uuid.UUID]*orders.Order, len(s.ordersByID))
	for k, v := range s.ordersByID {
		cp := *v
		ordersSnap[k] = &cp
	}
	remoteSnap := make(map[string]uuid.UUID, len(s.remoteIdx))
	for k, v := range s.remoteIdx {
		remoteSnap[k] = v
	}
	itemsSnap := make(map[uuid.UUID][]orders.LineItem, len(s.items))
	for k, v := range s.items {
		itemsSnap[k] = append([]orders.LineItem(nil), v...)
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.ordersByID = ordersSnap
		s.remoteIdx = remoteSnap
		s.items = itemsSnap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordersByID)
}

func (s *memStore) orderByRemoteID(remoteID string) *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.remoteIdx[remoteID]
	if !ok {
		return nil
	}
	cp := *s.ordersByID[id]
	cp.Items = append([]orders.LineItem(nil), s.items[id]...)
	return &cp
}

func (s *memStore) state(syncType string) *orders.SyncJobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[syncType]; ok {
		cp := *st
		return &cp
	}
	return nil
}

type memOrderRepo memStore

func (r *memOrderRepo) FindByRemoteID(_ context.Context, remoteOrderID string) (*orders.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.remoteIdx[remoteOrderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	cp := *r.ordersByID[id]
	cp.Items = append([]orders.LineItem(nil), r.items[id]...)
	return &cp, nil
}

func (r *memOrderRepo) Save(_ context.Context, order *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaves > 0 {
		r.failSaves--
		if r.recordSaveErr != nil {
			return r.recordSaveErr
		}
		return errors.New("save failed")
	}
	cp := *order
	cp.Items = nil
	r.ordersByID[order.ID] = &cp
	r.remoteIdx[order.RemoteOrderID] = order.ID
	return nil
}

func (r *memOrderRepo) ReplaceLineItems(_ context.Context, orderID uuid.UUID, items []orders.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[orderID] = append([]orders.LineItem(nil), items...)
	return nil
}

func (r *memOrderRepo) MarkScanned(_ context.Context, trackingNumber string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.ordersByID {
		if o.TrackingNumber == trackingNumber {
			o.ScannedStatus = true
			o.ScannedAt = &at
			return nil
		}
	}
	return orders.ErrOrderNotFound
}

type memStateRepo memStore

func (r *memStateRepo) Get(_ context.Context, syncType string) (*orders.SyncJobState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[syncType]
	if !ok {
		return nil, orders.ErrSyncStateNotFound
	}
	cp := *st
	if st.RunParams != nil {
		params := *st.RunParams
		cp.RunParams = &params
	}
	return &cp, nil
}

func (r *memStateRepo) Save(_ context.Context, state *orders.SyncJobState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stateSaveErrs > 0 {
		r.stateSaveErrs--
		return errors.New("state save failed")
	}
	cp := *state
	if state.RunParams != nil {
		params := *state.RunParams
		cp.RunParams = &params
	}
	r.states[state.SyncType] = &cp
	return nil
}

func (r *memStateRepo) EnsureExists(_ context.Context, syncType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[syncType]; !ok {
		r.states[syncType] = &orders.SyncJobState{
			SyncType:  syncType,
			Status:    orders.SyncStatusIdle,
			UpdatedAt: time.Now().UTC(),
		}
	}
	return nil
}

// fakeSource serves scripted pages keyed by cursor. The empty cursor maps
// to the first page of a fresh run.
type fakeSource struct {
	mu      sync.Mutex
	pages   map[string]*orders.OrderPage
	errs    map[string]error
	queries []orders.PageQuery
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: make(map[string]*orders.OrderPage),
		errs:  make(map[string]error),
	}
}

func (f *fakeSource) addPage(cursor string, page *orders.OrderPage) {
	f.pages[cursor] = page
}

func (f *fakeSource) failAt(cursor string, err error) {
	f.errs[cursor] = err
}

func (f *fakeSource) FetchPage(_ context.Context, query orders.PageQuery) (*orders.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err, ok := f.errs[query.Cursor]; ok {
		return nil, err
	}
	page, ok := f.pages[query.Cursor]
	if !ok {
		return &orders.OrderPage{}, nil
	}
	return page, nil
}

func remoteOrder(id string, items ...orders.RemoteLineItem) orders.RemoteOrder {
	return orders.RemoteOrder{
		ID:            id,
		Name:          "#" + id,
		Currency:      "EUR",
		TotalPrice:    "10.00",
		SubtotalPrice: "8.00",
		TotalTax:      "2.00",
		LineItems:     items,
	}
}
