package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/model"
)

// CatalogService covers operator-side product removal.
type CatalogService interface {
	ShowDeleteMenu(ctx context.Context, caller model.Caller) error
	DeleteProduct(ctx context.Context, caller model.Caller, productID string) (*model.Product, error)
}

func NewCatalogService(
	catalog model.CatalogRepository,
	permissions PermissionService,
	backup BackupService,
	messenger model.Messenger,
	channels Channels,
	dispatcher EventDispatcher,
) CatalogService {
	return &catalogService{
		catalog:     catalog,
		permissions: permissions,
		backup:      backup,
		messenger:   messenger,
		notifier:    notifier{messenger: messenger},
		channels:    channels,
		dispatcher:  dispatcher,
	}
}

type catalogService struct {
	catalog     model.CatalogRepository
	permissions PermissionService
	backup      BackupService
	messenger   model.Messenger
	notifier    notifier
	channels    Channels
	dispatcher  EventDispatcher
}

func (s *catalogService) ShowDeleteMenu(ctx context.Context, caller model.Caller) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	products, err := s.catalog.Load()
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	if len(products) == 0 {
		s.notifier.reply(ctx, caller, "Товаров нет!")
		return nil
	}
	keyboard := make(model.Keyboard, 0, len(products))
	for _, p := range products {
		keyboard = append(keyboard, []model.Button{{Text: p.Name, Data: PrefixDeleteProduct + p.ID}})
	}
	s.notifier.send(ctx, "delete menu", model.OutgoingMessage{
		To:       caller.Chat(),
		Text:     "Выберите товар для удаления:",
		Keyboard: keyboard,
	})
	return nil
}

// DeleteProduct removes the record; retracting the channel post is best-effort.
func (s *catalogService) DeleteProduct(ctx context.Context, caller model.Caller, productID string) (*model.Product, error) {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return nil, err
	}

	var removed model.Product
	err := s.catalog.Update(func(products []model.Product) ([]model.Product, error) {
		for i, p := range products {
			if p.ID == productID {
				removed = p
				return append(products[:i:i], products[i+1:]...), nil
			}
		}
		return nil, errors.Wrapf(model.ErrProductNotFound, "product %s", productID)
	})
	if err != nil {
		return nil, err
	}

	if removed.Published() {
		ref := model.MessageRef{Chat: s.channels.Products, MessageID: removed.MessageID}
		if err := s.messenger.Delete(ctx, ref); err != nil {
			log.WithError(err).WithField("product_id", removed.ID).Warn("failed to retract product post")
			s.notifier.send(ctx, "retract notice", model.OutgoingMessage{
				To:   caller.Chat(),
				Text: "Не удалось удалить пост товара из канала, удалите его вручную.",
			})
		}
	}
	dispatch(s.dispatcher, model.ProductDeleted{ProductID: removed.ID})

	s.backup.SendBackup(ctx, caller.Chat())
	s.notifier.reply(ctx, caller, fmt.Sprintf("Товар %s удалён!", removed.Name))
	return &removed, nil
}
