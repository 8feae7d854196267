package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/model"
)

type OrderService interface {
	// PlaceOrder is open to any caller; it never requires a permission.
	PlaceOrder(ctx context.Context, caller model.Caller, productID string) (*model.Order, model.DeliveryReport, error)
	ChangeStatus(ctx context.Context, caller model.Caller, orderID int, status model.OrderStatus) (*model.Order, model.DeliveryReport, error)
	ListOpen(ctx context.Context, caller model.Caller) ([]model.Order, error)
}

func NewOrderService(
	catalog model.CatalogRepository,
	orders model.OrderRepository,
	roster model.RosterRepository,
	permissions PermissionService,
	messenger model.Messenger,
	channels Channels,
	dispatcher EventDispatcher,
) OrderService {
	return &orderService{
		catalog:     catalog,
		orders:      orders,
		roster:      roster,
		permissions: permissions,
		notifier:    notifier{messenger: messenger},
		messenger:   messenger,
		channels:    channels,
		dispatcher:  dispatcher,
	}
}

type orderService struct {
	catalog     model.CatalogRepository
	orders      model.OrderRepository
	roster      model.RosterRepository
	permissions PermissionService
	notifier    notifier
	messenger   model.Messenger
	channels    Channels
	dispatcher  EventDispatcher
}

type statusTexts struct {
	operators string
	buyer     string
	actor     string
}

var transitionTexts = map[model.OrderStatus]statusTexts{
	model.Processing: {
		operators: "Заказ #%d теперь в обработке (обновил %s)",
		buyer:     "Ваш заказ #%d в обработке!",
		actor:     "Заказ #%d взят в обработку!",
	},
	model.Sold: {
		operators: "Заказ #%d отмечен как продан (обновил %s)",
		buyer:     "Ваш заказ #%d продан! Спасибо за покупку!",
		actor:     "Заказ #%d отмечен как продан!",
	},
}

func (s *orderService) PlaceOrder(ctx context.Context, caller model.Caller, productID string) (*model.Order, model.DeliveryReport, error) {
	product, err := s.catalog.Find(productID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "place order for product %s", productID)
	}
	operators, err := s.roster.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "load roster")
	}

	var report model.DeliveryReport
	_, d := s.notifier.send(ctx, "product detail", model.OutgoingMessage{
		To:      caller.Chat(),
		Text:    RenderAnnouncement(*product, s.channels.Currency),
		PhotoID: product.PhotoID,
		HTML:    true,
	})
	report = append(report, d)

	orderID, err := s.orders.NextID()
	if err != nil {
		return nil, report, errors.Wrap(err, "allocate order id")
	}
	order := &model.Order{
		ID:           orderID,
		BuyerID:      caller.ID,
		BuyerName:    caller.DisplayName(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		Status:       model.New,
	}

	logRef, d := s.notifier.send(ctx, "order log", model.OutgoingMessage{
		To:   s.channels.Orders,
		Text: RenderOrderLog(*order),
	})
	report = append(report, d)
	if d.Err == nil {
		order.LogMessage = logRef
	}

	if err := s.orders.Create(order); err != nil {
		return nil, report, errors.Wrapf(err, "store order %d", order.ID)
	}
	dispatch(s.dispatcher, model.OrderPlaced{OrderID: order.ID, ProductID: product.ID, BuyerID: caller.ID})

	notices := make([]model.OutgoingMessage, 0, len(operators))
	for _, op := range operators {
		notices = append(notices, model.OutgoingMessage{
			To:       op.UserID.Chat(),
			Text:     renderOrderNotice(*order, s.channels.Currency),
			HTML:     true,
			Keyboard: orderKeyboard(*order),
		})
	}
	report = append(report, s.notifier.broadcast(ctx, "operator notice", notices)...)
	report = append(report, s.notifier.reply(ctx, caller, "Заказ оформлен! С вами свяжутся."))

	return order, report, nil
}

// ChangeStatus commits the new status before any message goes out; delivery
// failures end up in the report and never undo the transition. A concurrent
// change to the same order makes the later writer fail with ErrOptimisticLock.
func (s *orderService) ChangeStatus(ctx context.Context, caller model.Caller, orderID int, status model.OrderStatus) (*model.Order, model.DeliveryReport, error) {
	if err := s.permissions.Require(caller, model.PermissionOrders); err != nil {
		return nil, nil, err
	}
	order, err := s.orders.Find(orderID)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "order %d", orderID)
	}
	texts, known := transitionTexts[status]
	if !known || !order.Status.CanTransitionTo(status) {
		return nil, nil, errors.Wrapf(model.ErrInvalidTransition, "order %d: %s -> %s", orderID, order.Status, status)
	}

	oldStatus := order.Status
	order.Status = status
	if err := s.orders.Update(order); err != nil {
		return nil, nil, errors.Wrapf(err, "update order %d", orderID)
	}
	dispatch(s.dispatcher, model.OrderStatusChanged{
		OrderID:   order.ID,
		OldStatus: oldStatus,
		NewStatus: status,
		ActorID:   caller.ID,
	})

	var report model.DeliveryReport
	if !order.LogMessage.IsZero() {
		err := s.messenger.EditText(ctx, order.LogMessage, RenderOrderLog(*order))
		report = append(report, model.Delivery{To: order.LogMessage.Chat, Purpose: "order log edit", Err: err})
		if err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn("order log edit failed")
		}
	}

	operators, err := s.roster.Load()
	if err != nil {
		return order, report, errors.Wrap(err, "load roster")
	}
	notices := make([]model.OutgoingMessage, 0, len(operators))
	for _, op := range operators {
		notices = append(notices, model.OutgoingMessage{
			To:   op.UserID.Chat(),
			Text: fmt.Sprintf(texts.operators, order.ID, caller.DisplayName()),
		})
	}
	report = append(report, s.notifier.broadcast(ctx, "operator update", notices)...)

	_, d := s.notifier.send(ctx, "buyer update", model.OutgoingMessage{
		To:   model.ChatRef{ID: order.BuyerID},
		Text: fmt.Sprintf(texts.buyer, order.ID),
	})
	report = append(report, d)
	report = append(report, s.notifier.reply(ctx, caller, fmt.Sprintf(texts.actor, order.ID)))

	return order, report, nil
}

func (s *orderService) ListOpen(ctx context.Context, caller model.Caller) ([]model.Order, error) {
	if err := s.permissions.Require(caller, model.PermissionOrders); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOpen()
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if len(orders) == 0 {
		s.notifier.reply(ctx, caller, "Открытых заказов нет.")
		return orders, nil
	}
	for _, o := range orders {
		s.notifier.send(ctx, "open order", model.OutgoingMessage{
			To:       caller.Chat(),
			Text:     RenderOrderLog(o),
			Keyboard: orderKeyboard(o),
		})
	}
	return orders, nil
}
