package tests

import (
	"testing"

	"shopbot/pkg/domain/model"
	"shopbot/pkg/domain/service"
)

type fixture struct {
	catalog    *mockCatalog
	roster     *mockRoster
	orders     *mockOrderRepository
	messenger  *mockMessenger
	dispatcher *mockEventDispatcher

	permissions  service.PermissionService
	intake       service.IntakeService
	publication  service.PublicationService
	orderService service.OrderService
	rosterSvc    service.RosterService
	catalogSvc   service.CatalogService
	importer     service.ImportService
}

func setup(t *testing.T, operators ...model.Operator) *fixture {
	t.Helper()
	f := &fixture{
		catalog:    &mockCatalog{},
		roster:     newRoster(operators...),
		orders:     &mockOrderRepository{store: make(map[int]*model.Order)},
		messenger:  newMessenger(),
		dispatcher: &mockEventDispatcher{},
	}
	f.permissions = service.NewPermissionService(f.roster)
	backup := service.NewBackupService(f.catalog, f.roster, f.messenger)
	f.intake = service.NewIntakeService(f.catalog, f.permissions, f.messenger, testChannels, f.dispatcher)
	f.publication = service.NewPublicationService(f.catalog, f.permissions, backup, f.messenger, testChannels, f.dispatcher)
	f.orderService = service.NewOrderService(f.catalog, f.orders, f.roster, f.permissions, f.messenger, testChannels, f.dispatcher)
	f.rosterSvc = service.NewRosterService(f.roster, f.permissions, backup, f.messenger, f.dispatcher)
	f.catalogSvc = service.NewCatalogService(f.catalog, f.permissions, backup, f.messenger, testChannels, f.dispatcher)
	f.importer = service.NewImportService(f.catalog, f.roster, f.permissions, f.publication, backup, f.messenger, f.dispatcher)
	return f
}
