package tests

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"shopbot/pkg/domain/model"
	"shopbot/pkg/domain/service"
)

var errDeliveryFailed = errors.New("bot was blocked by the user")

var _ model.CatalogRepository = &mockCatalog{}

type mockCatalog struct {
	products  []model.Product
	seq       int
	appendErr error
	// beforeUpdate runs once at the start of the next Update.
	beforeUpdate func()
}

func (m *mockCatalog) Load() ([]model.Product, error) {
	return append([]model.Product(nil), m.products...), nil
}

func (m *mockCatalog) Find(id string) (*model.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (m *mockCatalog) NextID() (string, error) {
	m.seq++
	if m.seq < len(m.products)+1 {
		m.seq = len(m.products) + 1
	}
	return model.FormatProductID(m.seq), nil
}

func (m *mockCatalog) Append(product model.Product) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.products = append(m.products, product)
	return nil
}

func (m *mockCatalog) Update(fn func([]model.Product) ([]model.Product, error)) error {
	if hook := m.beforeUpdate; hook != nil {
		m.beforeUpdate = nil
		hook()
	}
	updated, err := fn(append([]model.Product(nil), m.products...))
	if err != nil {
		return err
	}
	m.products = updated
	return nil
}

func (m *mockCatalog) Replace(products []model.Product) error {
	m.products = products
	return nil
}

func (m *mockCatalog) Export() (model.Document, error) {
	data, err := json.MarshalIndent(m.products, "", "  ")
	return model.Document{Name: model.CatalogDocumentName, Content: data}, err
}

var _ model.RosterRepository = &mockRoster{}

type mockRoster struct {
	operators []model.Operator
}

func newRoster(operators ...model.Operator) *mockRoster {
	return &mockRoster{operators: operators}
}

func admin(id int64) model.Operator {
	return model.Operator{UserID: model.NumericIdentity(id), Role: model.RoleAdmin, Permissions: []model.Permission{model.PermissionAll}}
}

func seller(id int64) model.Operator {
	return model.Operator{UserID: model.NumericIdentity(id), Role: model.RoleSeller, Permissions: []model.Permission{model.PermissionOrders}}
}

func (m *mockRoster) Load() ([]model.Operator, error) {
	return append([]model.Operator(nil), m.operators...), nil
}

func (m *mockRoster) Update(fn func([]model.Operator) ([]model.Operator, error)) error {
	updated, err := fn(append([]model.Operator(nil), m.operators...))
	if err != nil {
		return err
	}
	m.operators = updated
	return nil
}

func (m *mockRoster) Replace(operators []model.Operator) error {
	m.operators = operators
	return nil
}

func (m *mockRoster) Export() (model.Document, error) {
	data, err := json.MarshalIndent(model.RosterDocument{Admins: m.operators}, "", "  ")
	return model.Document{Name: model.RosterDocumentName, Content: data}, err
}

var _ model.OrderRepository = &mockOrderRepository{}

type mockOrderRepository struct {
	store map[int]*model.Order
	next  int
}

func (m *mockOrderRepository) NextID() (int, error) {
	m.next++
	return m.next, nil
}

func (m *mockOrderRepository) Create(order *model.Order) error {
	if _, exists := m.store[order.ID]; exists {
		return errors.New("order with this ID already exists")
	}
	stored := *order
	m.store[order.ID] = &stored
	return nil
}

func (m *mockOrderRepository) Find(id int) (*model.Order, error) {
	if order, ok := m.store[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, model.ErrOrderNotFound
}

func (m *mockOrderRepository) Update(order *model.Order) error {
	stored, ok := m.store[order.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if stored.Version != order.Version {
		return model.ErrOptimisticLock
	}
	order.Version++
	updated := *order
	m.store[order.ID] = &updated
	return nil
}

func (m *mockOrderRepository) ListOpen() ([]model.Order, error) {
	var open []model.Order
	for id := 1; id <= m.next; id++ {
		if o, ok := m.store[id]; ok && o.Status != model.Sold {
			open = append(open, *o)
		}
	}
	return open, nil
}

var _ model.Messenger = &mockMessenger{}

type mockMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []model.OutgoingMessage
	edits     map[int]string
	deleted   []model.MessageRef
	documents []model.Document
	failFor   map[string]bool
	failEdits bool
}

func newMessenger() *mockMessenger {
	return &mockMessenger{edits: map[int]string{}, failFor: map[string]bool{}}
}

func (m *mockMessenger) Send(_ context.Context, msg model.OutgoingMessage) (model.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To.String()] {
		return model.MessageRef{}, errDeliveryFailed
	}
	m.nextID++
	m.sent = append(m.sent, msg)
	return model.MessageRef{Chat: msg.To, MessageID: m.nextID}, nil
}

func (m *mockMessenger) EditText(_ context.Context, ref model.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failEdits {
		return errors.New("message to edit not found")
	}
	m.edits[ref.MessageID] = text
	return nil
}

func (m *mockMessenger) Delete(_ context.Context, ref model.MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockMessenger) SendDocument(_ context.Context, to model.ChatRef, doc model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to.String()] {
		return errDeliveryFailed
	}
	m.documents = append(m.documents, doc)
	return nil
}

func (m *mockMessenger) sentTo(chat model.ChatRef) []model.OutgoingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutgoingMessage
	for _, msg := range m.sent {
		if msg.To == chat {
			out = append(out, msg)
		}
	}
	return out
}

func (m *mockMessenger) last(chat model.ChatRef) model.OutgoingMessage {
	msgs := m.sentTo(chat)
	if len(msgs) == 0 {
		return model.OutgoingMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *mockMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.documents = nil
	m.deleted = nil
	m.edits = map[int]string{}
}

var _ service.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Reset() {
	m.events = nil
}

var (
	productsChannel = model.ChatRef{Username: "@ShopProducts"}
	ordersChannel   = model.ChatRef{Username: "@ShopOrders"}
	testChannels    = service.Channels{Products: productsChannel, Orders: ordersChannel, Currency: "руб."}
)

func callerWithID(id int64, username string) model.Caller {
	return model.Caller{ID: id, Username: username, FirstName: "User" + strconv.FormatInt(id, 10)}
}
