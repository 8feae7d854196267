package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"

	"shopbot/pkg/domain/model"
)

// ImportService replaces a whole document with an operator upload.
// Uploads may carry // comments and trailing commas.
type ImportService interface {
	Import(ctx context.Context, caller model.Caller, doc model.Document) error
}

func NewImportService(
	catalog model.CatalogRepository,
	roster model.RosterRepository,
	permissions PermissionService,
	publication PublicationService,
	backup BackupService,
	messenger model.Messenger,
	dispatcher EventDispatcher,
) ImportService {
	return &importService{
		catalog:     catalog,
		roster:      roster,
		permissions: permissions,
		publication: publication,
		backup:      backup,
		notifier:    notifier{messenger: messenger},
		dispatcher:  dispatcher,
	}
}

type importService struct {
	catalog     model.CatalogRepository
	roster      model.RosterRepository
	permissions PermissionService
	publication PublicationService
	backup      BackupService
	notifier    notifier
	dispatcher  EventDispatcher
}

func (s *importService) Import(ctx context.Context, caller model.Caller, doc model.Document) error {
	if err := s.permissions.Require(caller, model.PermissionAll); err != nil {
		return err
	}
	content := jsonc.ToJSON(doc.Content)

	switch doc.Name {
	case model.CatalogDocumentName:
		return s.importCatalog(ctx, caller, content)
	case model.RosterDocumentName:
		return s.importRoster(ctx, caller, content)
	}
	return errors.Wrapf(model.ErrUnknownDocument, "%q", doc.Name)
}

func (s *importService) importCatalog(ctx context.Context, caller model.Caller, content []byte) error {
	products, err := model.ValidateCatalog(content)
	if err != nil {
		return err
	}
	if err := s.catalog.Replace(products); err != nil {
		return errors.Wrap(err, "save catalog")
	}
	posted, err := s.publication.Reconcile(ctx)
	if err != nil {
		return err
	}
	dispatch(s.dispatcher, model.CatalogImported{Products: len(products), Posted: posted})

	s.backup.SendBackup(ctx, caller.Chat())
	s.notifier.reply(ctx, caller, fmt.Sprintf("%s загружен и синхронизирован! Опубликовано новых товаров: %d.", model.CatalogDocumentName, posted))
	return nil
}

func (s *importService) importRoster(ctx context.Context, caller model.Caller, content []byte) error {
	operators, err := model.ValidateRoster(content)
	if err != nil {
		return err
	}
	if len(operators) == 0 {
		return errors.Wrap(model.ErrInvalidDocument, "roster must keep at least one operator")
	}
	if err := s.roster.Replace(operators); err != nil {
		return errors.Wrap(err, "save roster")
	}
	dispatch(s.dispatcher, model.RosterImported{Operators: len(operators)})

	s.backup.SendBackup(ctx, caller.Chat())
	s.notifier.reply(ctx, caller, model.RosterDocumentName+" загружен!")
	return nil
}
