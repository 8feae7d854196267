package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

var ErrInvalidPrice = errors.New("price must be a non-negative number")

// IntakeService drives the photo → description → price conversation that
// stages a product draft in the caller's session.
type IntakeService interface {
	Start(ctx context.Context, caller model.Caller, session *model.Session) error
	HandlePhoto(ctx context.Context, caller model.Caller, session *model.Session, photoID string) error
	HandleText(ctx context.Context, caller model.Caller, session *model.Session, text string) error
}

func NewIntakeService(
	catalog model.CatalogRepository,
	permissions PermissionService,
	messenger model.Messenger,
	channels Channels,
	dispatcher EventDispatcher,
) IntakeService {
	return &intakeService{
		catalog:     catalog,
		permissions: permissions,
		notifier:    notifier{messenger: messenger},
		channels:    channels,
		dispatcher:  dispatcher,
	}
}

type intakeService struct {
	catalog     model.CatalogRepository
	permissions PermissionService
	notifier    notifier
	channels    Channels
	dispatcher  EventDispatcher
}

const (
	promptPhoto       = "Отправьте фото товара (или напишите 'без фото'):"
	repromptPhoto     = "Отправьте фото или напишите 'без фото':"
	promptDescription = "Введите описание товара:"
	repromptPrice     = "Введите корректную цену (число):"
)

func (s *intakeService) Start(ctx context.Context, caller model.Caller, session *model.Session) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	session.Reset()
	session.State = model.AwaitPhoto
	s.notifier.reply(ctx, caller, promptPhoto)
	return nil
}

func (s *intakeService) HandlePhoto(ctx context.Context, caller model.Caller, session *model.Session, photoID string) error {
	if err := s.recheck(caller, session); err != nil {
		return err
	}
	if session.State != model.AwaitPhoto {
		s.reprompt(ctx, caller, session)
		return nil
	}
	session.PhotoID = photoID
	s.toDescription(ctx, caller, session)
	return nil
}

func (s *intakeService) HandleText(ctx context.Context, caller model.Caller, session *model.Session, text string) error {
	if err := s.recheck(caller, session); err != nil {
		return err
	}

	switch session.State {
	case model.AwaitPhoto:
		if !strings.EqualFold(strings.TrimSpace(text), NoPhotoText) {
			s.notifier.reply(ctx, caller, repromptPhoto)
			return nil
		}
		session.PhotoID = ""
		s.toDescription(ctx, caller, session)
	case model.AwaitDescription:
		session.Description = text
		session.State = model.AwaitPrice
		s.notifier.reply(ctx, caller, "Введите цену товара ("+s.channels.Currency+"):")
	case model.AwaitPrice:
		price, err := ParsePrice(text)
		if err != nil {
			s.notifier.reply(ctx, caller, repromptPrice)
			return nil
		}
		return s.stageDraft(ctx, caller, session, price)
	}
	return nil
}

// ParsePrice accepts a finite non-negative decimal; a comma works as the decimal separator.
func ParsePrice(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	price, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, ErrInvalidPrice
	}
	return price, nil
}

func (s *intakeService) stageDraft(ctx context.Context, caller model.Caller, session *model.Session, price float64) error {
	id, err := s.catalog.NextID()
	if err != nil {
		return errors.Wrap(err, "allocate product id")
	}
	draft := model.Product{
		ID:          id,
		Name:        model.PlaceholderName(id),
		Price:       price,
		Description: session.Description,
		PhotoID:     session.PhotoID,
	}
	session.Draft = &draft
	session.State = model.AwaitPublish

	s.notifier.send(ctx, "draft preview", model.OutgoingMessage{
		To:       caller.Chat(),
		Text:     RenderAnnouncement(draft, s.channels.Currency),
		PhotoID:  draft.PhotoID,
		HTML:     true,
		Keyboard: draftKeyboard(draft),
	})
	dispatch(s.dispatcher, model.ProductDrafted{ProductID: id, AuthorID: caller.ID})
	return nil
}

func (s *intakeService) toDescription(ctx context.Context, caller model.Caller, session *model.Session) {
	session.State = model.AwaitDescription
	s.notifier.reply(ctx, caller, promptDescription)
}

func (s *intakeService) reprompt(ctx context.Context, caller model.Caller, session *model.Session) {
	switch session.State {
	case model.AwaitPhoto:
		s.notifier.reply(ctx, caller, repromptPhoto)
	case model.AwaitDescription:
		s.notifier.reply(ctx, caller, promptDescription)
	case model.AwaitPrice:
		s.notifier.reply(ctx, caller, repromptPrice)
	}
}

// recheck drops the wizard when the caller lost the admin permission mid-way.
func (s *intakeService) recheck(caller model.Caller, session *model.Session) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		session.Reset()
		return err
	}
	return nil
}
