package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/model"
)

type PublicationService interface {
	// Publish posts the caller's staged draft and appends it to the catalog.
	Publish(ctx context.Context, caller model.Caller, session *model.Session, productID string) (*model.Product, error)
	// Reconcile posts every catalog product that has no channel message yet
	// and returns how many were posted.
	Reconcile(ctx context.Context) (int, error)
}

func NewPublicationService(
	catalog model.CatalogRepository,
	permissions PermissionService,
	backup BackupService,
	messenger model.Messenger,
	channels Channels,
	dispatcher EventDispatcher,
) PublicationService {
	return &publicationService{
		catalog:     catalog,
		permissions: permissions,
		backup:      backup,
		messenger:   messenger,
		notifier:    notifier{messenger: messenger},
		channels:    channels,
		dispatcher:  dispatcher,
	}
}

type publicationService struct {
	catalog     model.CatalogRepository
	permissions PermissionService
	backup      BackupService
	messenger   model.Messenger
	notifier    notifier
	channels    Channels
	dispatcher  EventDispatcher
}

func (s *publicationService) Publish(ctx context.Context, caller model.Caller, session *model.Session, productID string) (*model.Product, error) {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return nil, err
	}
	if session.Draft == nil || session.Draft.ID != productID {
		return nil, errors.Wrapf(model.ErrDraftNotFound, "product %s", productID)
	}

	product := *session.Draft
	ref, delivery := s.announce(ctx, product)
	if delivery.Err == nil {
		product.MessageID = ref.MessageID
	}

	if err := s.catalog.Append(product); err != nil {
		if product.Published() {
			s.retract(ctx, product, ref)
		}
		return nil, errors.Wrapf(err, "append product %s", product.ID)
	}
	session.Reset()

	if product.Published() {
		dispatch(s.dispatcher, model.ProductPublished{ProductID: product.ID, MessageID: product.MessageID})
	}

	s.backup.SendBackup(ctx, caller.Chat())
	if product.Published() {
		s.notifier.reply(ctx, caller, "Товар опубликован в "+s.channels.Products.String()+"!")
	} else {
		s.notifier.reply(ctx, caller, "Товар сохранён, но пост в канале не удался. Он будет опубликован при следующей синхронизации.")
	}
	return &product, nil
}

// Reconcile posts outside the catalog lock and records the message ids in a
// second, short update. A post whose product vanished or was posted
// meanwhile is retracted.
func (s *publicationService) Reconcile(ctx context.Context) (int, error) {
	products, err := s.catalog.Load()
	if err != nil {
		return 0, errors.Wrap(err, "load catalog")
	}
	posts := make(map[string]model.MessageRef)
	for _, p := range products {
		if p.Published() {
			continue
		}
		ref, delivery := s.announce(ctx, p)
		if delivery.Err != nil {
			continue
		}
		posts[p.ID] = ref
	}
	if len(posts) == 0 {
		return 0, nil
	}

	var posted []model.Product
	err = s.catalog.Update(func(current []model.Product) ([]model.Product, error) {
		posted = posted[:0]
		for i := range current {
			ref, ok := posts[current[i].ID]
			if !ok || current[i].Published() {
				continue
			}
			current[i].MessageID = ref.MessageID
			posted = append(posted, current[i])
		}
		return current, nil
	})
	if err != nil {
		for id, ref := range posts {
			s.retract(ctx, model.Product{ID: id}, ref)
		}
		return 0, errors.Wrap(err, "reconcile catalog")
	}

	for _, p := range posted {
		delete(posts, p.ID)
		dispatch(s.dispatcher, model.ProductPublished{ProductID: p.ID, MessageID: p.MessageID})
	}
	for id, ref := range posts {
		s.retract(ctx, model.Product{ID: id}, ref)
	}
	log.WithField("posted", len(posted)).Info("catalog reconciled with products channel")
	return len(posted), nil
}

// retract removes a channel post that has no catalog entry behind it.
func (s *publicationService) retract(ctx context.Context, p model.Product, ref model.MessageRef) {
	if err := s.messenger.Delete(ctx, ref); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"product_id": p.ID,
			"message_id": ref.MessageID,
		}).Warn("failed to retract orphaned product post")
	}
}

func (s *publicationService) announce(ctx context.Context, p model.Product) (model.MessageRef, model.Delivery) {
	return s.notifier.send(ctx, "announcement", model.OutgoingMessage{
		To:       s.channels.Products,
		Text:     RenderAnnouncement(p, s.channels.Currency),
		PhotoID:  p.PhotoID,
		HTML:     true,
		Keyboard: announcementKeyboard(p),
	})
}
