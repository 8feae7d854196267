package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/model"
	domain "shopbot/pkg/domain/service"
)

type SessionStore interface {
	Acquire(userID int64) (*model.Session, func())
}

// Services bundles the domain services the assistant routes to.
type Services struct {
	Permissions domain.PermissionService
	Intake      domain.IntakeService
	Publication domain.PublicationService
	Orders      domain.OrderService
	Roster      domain.RosterService
	Catalog     domain.CatalogService
	Import      domain.ImportService
}

// Assistant is the single entry point for inbound interactions. It holds the
// caller's session for the whole interaction and answers every failure with a
// chat message.
type Assistant interface {
	Handle(ctx context.Context, in Interaction) error
}

func NewAssistant(services Services, sessions SessionStore, messenger model.Messenger) Assistant {
	return &assistant{services: services, sessions: sessions, messenger: messenger}
}

type assistant struct {
	services  Services
	sessions  SessionStore
	messenger model.Messenger
}

const (
	commandStart      = "start"
	commandCancel     = "cancel"
	commandUploadJSON = "upload_json"
)

func (a *assistant) Handle(ctx context.Context, in Interaction) error {
	entry := log.WithFields(log.Fields{
		"interaction": uuid.NewString(),
		"user_id":     in.Caller.ID,
		"kind":        in.Kind.String(),
	})

	session, release := a.sessions.Acquire(in.Caller.ID)
	defer release()

	entry.WithField("state", session.State.String()).Debug("handling interaction")

	var err error
	switch in.Kind {
	case CommandInteraction:
		err = a.handleCommand(ctx, in, session)
	case TextInteraction:
		err = a.handleText(ctx, in, session)
	case PhotoInteraction:
		err = a.handlePhoto(ctx, in, session)
	case DocumentInteraction:
		err = a.handleDocument(ctx, in, session)
	case CallbackInteraction:
		err = a.handleCallback(ctx, in, session)
	}
	if err == nil {
		return nil
	}
	return a.replyError(ctx, entry, in.Caller, err)
}

func (a *assistant) handleCommand(ctx context.Context, in Interaction, session *model.Session) error {
	session.Reset()

	switch in.Command {
	case commandStart:
		a.send(ctx, model.OutgoingMessage{
			To:   in.Caller.Chat(),
			Text: "Добро пожаловать! Выберите роль:",
			Keyboard: model.Keyboard{
				{{Text: "Заказ", Data: domain.ActionRoleOrder}},
				{{Text: "Админ", Data: domain.ActionRoleAdmin}},
			},
		})
	case commandCancel:
		a.reply(ctx, in.Caller, "Действие отменено.")
	case commandUploadJSON:
		if in.Document != nil {
			return a.services.Import.Import(ctx, in.Caller, *in.Document)
		}
		if err := a.services.Permissions.Require(in.Caller, model.PermissionAll); err != nil {
			return err
		}
		session.State = model.AwaitUpload
		a.reply(ctx, in.Caller, "Отправьте JSON-файл (products.json или admins.json):")
	default:
		a.reply(ctx, in.Caller, "Неизвестная команда. Используйте /start.")
	}
	return nil
}

func (a *assistant) handleText(ctx context.Context, in Interaction, session *model.Session) error {
	switch {
	case session.InIntake():
		return a.services.Intake.HandleText(ctx, in.Caller, session, in.Text)
	case session.State == model.AwaitEmployeeID:
		return a.services.Roster.HandleText(ctx, in.Caller, session, in.Text)
	case session.State == model.AwaitEmployeeRole:
		a.reply(ctx, in.Caller, "Выберите роль сотрудника кнопкой выше.")
	case session.State == model.AwaitPublish:
		a.reply(ctx, in.Caller, "Опубликуйте товар или нажмите «Редактировать».")
	case session.State == model.AwaitUpload:
		a.reply(ctx, in.Caller, "Отправьте JSON-файл (products.json или admins.json):")
	default:
		a.reply(ctx, in.Caller, "Используйте /start, чтобы открыть меню.")
	}
	return nil
}

func (a *assistant) handlePhoto(ctx context.Context, in Interaction, session *model.Session) error {
	if session.InIntake() {
		return a.services.Intake.HandlePhoto(ctx, in.Caller, session, in.PhotoID)
	}
	a.reply(ctx, in.Caller, "Фото принимается только при добавлении товара.")
	return nil
}

func (a *assistant) handleDocument(ctx context.Context, in Interaction, session *model.Session) error {
	if session.State != model.AwaitUpload && !strings.HasPrefix(strings.TrimSpace(in.Text), "/"+commandUploadJSON) {
		a.reply(ctx, in.Caller, "Чтобы загрузить JSON, используйте /upload_json.")
		return nil
	}
	session.Reset()
	if in.Document == nil {
		return errors.Wrap(model.ErrInvalidDocument, "empty upload")
	}
	return a.services.Import.Import(ctx, in.Caller, *in.Document)
}

func (a *assistant) handleCallback(ctx context.Context, in Interaction, session *model.Session) error {
	data := in.Data
	caller := in.Caller

	switch data {
	case domain.ActionRoleOrder:
		_, err := a.services.Orders.ListOpen(ctx, caller)
		return err
	case domain.ActionRoleAdmin:
		return a.showAdminMenu(ctx, caller)
	case domain.ActionAddProduct:
		return a.services.Intake.Start(ctx, caller, session)
	case domain.ActionDeleteProduct:
		return a.services.Catalog.ShowDeleteMenu(ctx, caller)
	case domain.ActionAddEmployee:
		return a.services.Roster.StartAdd(ctx, caller, session)
	case domain.ActionRemoveEmployee:
		return a.services.Roster.ShowRemoveMenu(ctx, caller)
	case domain.ActionAdminEmployee:
		_, err := a.services.Roster.ChooseRole(ctx, caller, session, model.RoleAdmin)
		return err
	case domain.ActionSellerEmployee:
		_, err := a.services.Roster.ChooseRole(ctx, caller, session, model.RoleSeller)
		return err
	}

	if id, ok := strings.CutPrefix(data, domain.PrefixOrder); ok {
		_, _, err := a.services.Orders.PlaceOrder(ctx, caller, id)
		return err
	}
	if id, ok := strings.CutPrefix(data, domain.PrefixPublish); ok {
		_, err := a.services.Publication.Publish(ctx, caller, session, id)
		return err
	}
	if id, ok := strings.CutPrefix(data, domain.PrefixDeleteProduct); ok {
		_, err := a.services.Catalog.DeleteProduct(ctx, caller, id)
		return err
	}
	if id, ok := strings.CutPrefix(data, domain.PrefixDeleteEmployee); ok {
		return a.services.Roster.Remove(ctx, caller, id)
	}
	if id, ok := strings.CutPrefix(data, domain.PrefixStatusProcessing); ok {
		return a.changeStatus(ctx, caller, id, model.Processing)
	}
	if id, ok := strings.CutPrefix(data, domain.PrefixStatusSold); ok {
		return a.changeStatus(ctx, caller, id, model.Sold)
	}

	log.WithField("data", data).Warn("unknown callback")
	return nil
}

func (a *assistant) changeStatus(ctx context.Context, caller model.Caller, rawID string, status model.OrderStatus) error {
	// Older buttons carried "<order>_<message>"; only the order id matters now.
	rawID, _, _ = strings.Cut(rawID, "_")
	orderID, err := strconv.Atoi(rawID)
	if err != nil {
		return errors.Wrapf(model.ErrOrderNotFound, "bad order id %q", rawID)
	}
	_, report, err := a.services.Orders.ChangeStatus(ctx, caller, orderID, status)
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		log.WithFields(log.Fields{"order_id": orderID, "failed": len(failed)}).Warn("status change partially delivered")
	}
	return nil
}

func (a *assistant) showAdminMenu(ctx context.Context, caller model.Caller) error {
	if err := a.services.Permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	a.send(ctx, model.OutgoingMessage{
		To:   caller.Chat(),
		Text: "Меню админа:",
		Keyboard: model.Keyboard{
			{{Text: "Добавить товар", Data: domain.ActionAddProduct}},
			{{Text: "Удалить товар", Data: domain.ActionDeleteProduct}},
			{{Text: "Добавить сотрудника", Data: domain.ActionAddEmployee}},
			{{Text: "Удалить сотрудника", Data: domain.ActionRemoveEmployee}},
		},
	})
	return nil
}

var errorReplies = []struct {
	err  error
	text string
}{
	{model.ErrPermissionDenied, "Недостаточно прав для этого действия!"},
	{model.ErrProductNotFound, "Товар не найден!"},
	{model.ErrOrderNotFound, "Заказ не найден!"},
	{model.ErrOperatorNotFound, "Сотрудник не найден!"},
	{model.ErrOperatorExists, "Такой сотрудник уже есть в списке!"},
	{model.ErrLastOperator, "Нельзя удалить последнего админа!"},
	{model.ErrDraftNotFound, "Ошибка, товар не найден!"},
	{model.ErrInvalidTransition, "Статус этого заказа так изменить нельзя."},
	{model.ErrOptimisticLock, "Заказ только что изменил другой сотрудник, попробуйте ещё раз."},
	{model.ErrUnknownDocument, "Неверный файл! Отправьте products.json или admins.json."},
	{domain.ErrNoPendingEmployee, "Сначала введите ID сотрудника."},
}

// replyError answers expected failures and swallows them; anything else is
// reported generically and returned to the caller.
func (a *assistant) replyError(ctx context.Context, entry *log.Entry, caller model.Caller, err error) error {
	if errors.Is(err, model.ErrInvalidDocument) {
		entry.WithError(err).Info("rejected upload")
		a.reply(ctx, caller, "Некорректная структура JSON! "+err.Error())
		return nil
	}
	for _, r := range errorReplies {
		if errors.Is(err, r.err) {
			entry.WithError(err).Info("interaction rejected")
			a.reply(ctx, caller, r.text)
			return nil
		}
	}
	entry.WithError(err).Error("interaction failed")
	a.reply(ctx, caller, "Произошла ошибка, попробуйте позже.")
	return err
}

func (a *assistant) reply(ctx context.Context, caller model.Caller, text string) {
	a.send(ctx, model.OutgoingMessage{To: caller.Chat(), Text: text})
}

func (a *assistant) send(ctx context.Context, msg model.OutgoingMessage) {
	if _, err := a.messenger.Send(ctx, msg); err != nil {
		log.WithError(err).WithField("to", msg.To.String()).Warn("reply failed")
	}
}
