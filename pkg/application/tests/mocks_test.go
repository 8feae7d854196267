package tests

import (
	"context"
	"strconv"
	"sync"

	"shopbot/pkg/domain/model"
	domain "shopbot/pkg/domain/service"
)

// call records one routed service invocation.
type call struct {
	method string
	arg    string
}

type recorder struct {
	calls []call
	err   error
}

func (r *recorder) record(method, arg string) error {
	r.calls = append(r.calls, call{method: method, arg: arg})
	return r.err
}

type stubPermissions struct {
	granted map[int64]bool
}

func (s *stubPermissions) HasPermission(caller model.Caller, _ model.Permission) (bool, error) {
	return s.granted[caller.ID], nil
}

func (s *stubPermissions) Require(caller model.Caller, token model.Permission) error {
	if ok, _ := s.HasPermission(caller, token); !ok {
		return model.ErrPermissionDenied
	}
	return nil
}

type stubIntake struct{ *recorder }

func (s stubIntake) Start(_ context.Context, _ model.Caller, session *model.Session) error {
	session.State = model.AwaitPhoto
	return s.record("intake.start", "")
}

func (s stubIntake) HandlePhoto(_ context.Context, _ model.Caller, _ *model.Session, photoID string) error {
	return s.record("intake.photo", photoID)
}

func (s stubIntake) HandleText(_ context.Context, _ model.Caller, _ *model.Session, text string) error {
	return s.record("intake.text", text)
}

type stubPublication struct{ *recorder }

func (s stubPublication) Publish(_ context.Context, _ model.Caller, _ *model.Session, productID string) (*model.Product, error) {
	return &model.Product{ID: productID}, s.record("publish", productID)
}

func (s stubPublication) Reconcile(context.Context) (int, error) {
	return 0, s.record("reconcile", "")
}

type stubOrders struct{ *recorder }

func (s stubOrders) PlaceOrder(_ context.Context, _ model.Caller, productID string) (*model.Order, model.DeliveryReport, error) {
	return &model.Order{ID: 1, ProductID: productID}, nil, s.record("order.place", productID)
}

func (s stubOrders) ChangeStatus(_ context.Context, _ model.Caller, orderID int, status model.OrderStatus) (*model.Order, model.DeliveryReport, error) {
	err := s.record("order.status."+status.String(), strconv.Itoa(orderID))
	return &model.Order{ID: orderID, Status: status}, nil, err
}

func (s stubOrders) ListOpen(context.Context, model.Caller) ([]model.Order, error) {
	return nil, s.record("order.list", "")
}

type stubRoster struct{ *recorder }

func (s stubRoster) StartAdd(_ context.Context, _ model.Caller, session *model.Session) error {
	session.State = model.AwaitEmployeeID
	return s.record("roster.start", "")
}

func (s stubRoster) HandleText(_ context.Context, _ model.Caller, _ *model.Session, text string) error {
	return s.record("roster.text", text)
}

func (s stubRoster) ChooseRole(_ context.Context, _ model.Caller, _ *model.Session, role model.Role) (*model.Operator, error) {
	return &model.Operator{Role: role}, s.record("roster.role", string(role))
}

func (s stubRoster) ShowRemoveMenu(context.Context, model.Caller) error {
	return s.record("roster.menu", "")
}

func (s stubRoster) Remove(_ context.Context, _ model.Caller, userID string) error {
	return s.record("roster.remove", userID)
}

type stubCatalog struct{ *recorder }

func (s stubCatalog) ShowDeleteMenu(context.Context, model.Caller) error {
	return s.record("catalog.menu", "")
}

func (s stubCatalog) DeleteProduct(_ context.Context, _ model.Caller, productID string) (*model.Product, error) {
	return &model.Product{ID: productID}, s.record("catalog.delete", productID)
}

type stubImport struct{ *recorder }

func (s stubImport) Import(_ context.Context, _ model.Caller, doc model.Document) error {
	return s.record("import", doc.Name)
}

var (
	_ domain.IntakeService      = stubIntake{}
	_ domain.PublicationService = stubPublication{}
	_ domain.OrderService       = stubOrders{}
	_ domain.RosterService      = stubRoster{}
	_ domain.CatalogService     = stubCatalog{}
	_ domain.ImportService      = stubImport{}
)

type mockMessenger struct {
	mu   sync.Mutex
	sent []model.OutgoingMessage
}

func (m *mockMessenger) Send(_ context.Context, msg model.OutgoingMessage) (model.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return model.MessageRef{Chat: msg.To, MessageID: len(m.sent)}, nil
}

func (m *mockMessenger) EditText(context.Context, model.MessageRef, string) error { return nil }

func (m *mockMessenger) Delete(context.Context, model.MessageRef) error { return nil }

func (m *mockMessenger) SendDocument(context.Context, model.ChatRef, model.Document) error {
	return nil
}

func (m *mockMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

type mockSessions struct {
	sessions map[int64]*model.Session
	released int
}

func (m *mockSessions) Acquire(userID int64) (*model.Session, func()) {
	s, ok := m.sessions[userID]
	if !ok {
		s = &model.Session{UserID: userID}
		m.sessions[userID] = s
	}
	return s, func() { m.released++ }
}
