package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

var ErrNoPendingEmployee = errors.New("no employee id entered yet")

// RosterService adds operators through a two-step conversation and removes
// them through a single menu action.
type RosterService interface {
	StartAdd(ctx context.Context, caller model.Caller, session *model.Session) error
	HandleText(ctx context.Context, caller model.Caller, session *model.Session, text string) error
	ChooseRole(ctx context.Context, caller model.Caller, session *model.Session, role model.Role) (*model.Operator, error)
	ShowRemoveMenu(ctx context.Context, caller model.Caller) error
	Remove(ctx context.Context, caller model.Caller, userID string) error
}

func NewRosterService(
	roster model.RosterRepository,
	permissions PermissionService,
	backup BackupService,
	messenger model.Messenger,
	dispatcher EventDispatcher,
) RosterService {
	return &rosterService{
		roster:      roster,
		permissions: permissions,
		backup:      backup,
		notifier:    notifier{messenger: messenger},
		dispatcher:  dispatcher,
	}
}

type rosterService struct {
	roster      model.RosterRepository
	permissions PermissionService
	backup      BackupService
	notifier    notifier
	dispatcher  EventDispatcher
}

func (s *rosterService) StartAdd(ctx context.Context, caller model.Caller, session *model.Session) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	session.Reset()
	session.State = model.AwaitEmployeeID
	s.notifier.reply(ctx, caller, "Введите Telegram ID или @username:")
	return nil
}

func (s *rosterService) HandleText(ctx context.Context, caller model.Caller, session *model.Session, text string) error {
	if err := s.recheck(caller, session); err != nil {
		return err
	}
	if session.State != model.AwaitEmployeeID {
		return nil
	}
	id, err := model.ParseIdentity(text)
	if err != nil {
		s.notifier.reply(ctx, caller, "Введите корректный ID или @username:")
		return nil
	}
	session.Employee = &id
	session.State = model.AwaitEmployeeRole
	s.notifier.send(ctx, "role menu", model.OutgoingMessage{
		To:   caller.Chat(),
		Text: "Выберите роль сотрудника:",
		Keyboard: model.Keyboard{
			{{Text: "Админ", Data: ActionAdminEmployee}},
			{{Text: "Продавец", Data: ActionSellerEmployee}},
		},
	})
	return nil
}

func (s *rosterService) ChooseRole(ctx context.Context, caller model.Caller, session *model.Session, role model.Role) (*model.Operator, error) {
	if err := s.recheck(caller, session); err != nil {
		return nil, err
	}
	if session.State != model.AwaitEmployeeRole || session.Employee == nil {
		return nil, ErrNoPendingEmployee
	}

	operator := model.Operator{
		UserID:      *session.Employee,
		Role:        role,
		Permissions: model.PermissionsFor(role),
	}
	session.Reset()

	err := s.roster.Update(func(operators []model.Operator) ([]model.Operator, error) {
		for _, op := range operators {
			if op.UserID.Equal(operator.UserID) {
				return nil, errors.Wrapf(model.ErrOperatorExists, "operator %s", operator.UserID)
			}
		}
		return append(operators, operator), nil
	})
	if err != nil {
		return nil, err
	}
	dispatch(s.dispatcher, model.OperatorAdded{UserID: operator.UserID, Role: role})

	s.backup.SendBackup(ctx, caller.Chat())
	s.notifier.reply(ctx, caller, fmt.Sprintf("Добавлен сотрудник %s с ролью %s!", operator.UserID, role))
	return &operator, nil
}

func (s *rosterService) ShowRemoveMenu(ctx context.Context, caller model.Caller) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	operators, err := s.roster.Load()
	if err != nil {
		return errors.Wrap(err, "load roster")
	}
	if len(operators) <= 1 {
		return model.ErrLastOperator
	}
	keyboard := make(model.Keyboard, 0, len(operators))
	for _, op := range operators {
		label := fmt.Sprintf("%s (%s)", op.UserID, op.Role)
		keyboard = append(keyboard, []model.Button{{Text: label, Data: PrefixDeleteEmployee + op.UserID.String()}})
	}
	s.notifier.send(ctx, "remove menu", model.OutgoingMessage{
		To:       caller.Chat(),
		Text:     "Выберите сотрудника для удаления:",
		Keyboard: keyboard,
	})
	return nil
}

func (s *rosterService) Remove(ctx context.Context, caller model.Caller, userID string) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	target := model.Identity{Value: userID}

	var removed model.Operator
	err := s.roster.Update(func(operators []model.Operator) ([]model.Operator, error) {
		if len(operators) <= 1 {
			return nil, model.ErrLastOperator
		}
		for i, op := range operators {
			if op.UserID.Equal(target) {
				removed = op
				return append(operators[:i:i], operators[i+1:]...), nil
			}
		}
		return nil, errors.Wrapf(model.ErrOperatorNotFound, "operator %s", userID)
	})
	if err != nil {
		return err
	}
	dispatch(s.dispatcher, model.OperatorRemoved{UserID: removed.UserID})

	s.backup.SendBackup(ctx, caller.Chat())
	s.notifier.reply(ctx, caller, fmt.Sprintf("Сотрудник %s удалён!", removed.UserID))
	return nil
}

func (s *rosterService) recheck(caller model.Caller, session *model.Session) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		session.Reset()
		return err
	}
	return nil
}
