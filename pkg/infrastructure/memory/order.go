package memory

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

// Sequencer hands out durable ids; jsonfile.Sequence satisfies it.
type Sequencer interface {
	Next(name string, floor int) (int, error)
}

const orderSequence = "orders"

// OrderStore keeps orders for the lifetime of the process only.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[int]model.Order
	seq    Sequencer
}

var _ model.OrderRepository = (*OrderStore)(nil)

func NewOrderStore(seq Sequencer) *OrderStore {
	return &OrderStore{orders: make(map[int]model.Order), seq: seq}
}

func (s *OrderStore) NextID() (int, error) {
	return s.seq.Next(orderSequence, 1)
}

func (s *OrderStore) Create(order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return errors.Errorf("order %d already exists", order.ID)
	}
	s.orders[order.ID] = *order
	return nil
}

func (s *OrderStore) Find(id int) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return &order, nil
}

func (s *OrderStore) Update(order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if stored.Version != order.Version {
		return errors.Wrapf(model.ErrOptimisticLock, "order %d", order.ID)
	}
	order.Version++
	s.orders[order.ID] = *order
	return nil
}

func (s *OrderStore) ListOpen() ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []model.Order
	for _, o := range s.orders {
		if o.Status != model.Sold {
			open = append(open, o)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}
