package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"shopbot/pkg/domain/model"
)

// BackupService sends both documents to an operator after a mutation.
type BackupService interface {
	SendBackup(ctx context.Context, to model.ChatRef) model.DeliveryReport
}

func NewBackupService(catalog model.CatalogRepository, roster model.RosterRepository, messenger model.Messenger) BackupService {
	return &backupService{catalog: catalog, roster: roster, messenger: messenger}
}

type backupService struct {
	catalog   model.CatalogRepository
	roster    model.RosterRepository
	messenger model.Messenger
}

func (s *backupService) SendBackup(ctx context.Context, to model.ChatRef) model.DeliveryReport {
	var report model.DeliveryReport
	for _, export := range []func() (model.Document, error){s.catalog.Export, s.roster.Export} {
		doc, err := export()
		if err != nil {
			report = append(report, model.Delivery{To: to, Purpose: "backup", Err: err})
			log.WithError(err).Warn("backup export failed")
			continue
		}
		err = s.messenger.SendDocument(ctx, to, doc)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"to": to.String(), "document": doc.Name}).Warn("backup delivery failed")
		}
		report = append(report, model.Delivery{To: to, Purpose: "backup " + doc.Name, Err: err})
	}
	return report
}
