package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/pkg/domain/model"
)

const uploadedCatalog = `[
  // new stock
  {"id": "001", "name": "Red mug", "price": "250", "description": "ceramic", "message_id": 31},
  {"id": "002", "name": "Spoon", "price": 15.5, "description": 42},
]`

func TestImportCatalog(t *testing.T) {
	ctx := context.Background()
	f := setup(t, admin(1))
	caller := callerWithID(1, "")
	f.catalog.products = []model.Product{{ID: "009", Name: "old", Price: 1, Description: "gone"}}

	err := f.importer.Import(ctx, caller, model.Document{Name: "products.json", Content: []byte(uploadedCatalog)})
	require.NoError(t, err)

	require.Len(t, f.catalog.products, 2)
	assert.Equal(t, 250.0, f.catalog.products[0].Price)
	assert.Equal(t, 31, f.catalog.products[0].MessageID)
	assert.Equal(t, "42", f.catalog.products[1].Description)
	assert.True(t, f.catalog.products[1].Published(), "unposted products are announced after import")
	assert.Len(t, f.messenger.sentTo(productsChannel), 1)

	assert.Contains(t, f.dispatcher.events, model.CatalogImported{Products: 2, Posted: 1})
	assert.Len(t, f.messenger.documents, 2)
}

func TestImportRoster(t *testing.T) {
	ctx := context.Background()
	f := setup(t, admin(1))
	caller := callerWithID(1, "")
	content := `{"admins": [
		{"user_id": 1, "role": "admin", "permissions": ["all"]},
		{"user_id": "@clerk", "role": "seller", "permissions": ["orders"]}
	]}`

	require.NoError(t, f.importer.Import(ctx, caller, model.Document{Name: "admins.json", Content: []byte(content)}))
	require.Len(t, f.roster.operators, 2)
	assert.Equal(t, model.Identity{Value: "@clerk"}, f.roster.operators[1].UserID)
	assert.Equal(t, "admins.json загружен!", f.messenger.last(caller.Chat()).Text)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	caller := callerWithID(1, "")
	original := []model.Product{mug}

	cases := []struct {
		name string
		doc  model.Document
		want error
	}{
		{"malformed json", model.Document{Name: "products.json", Content: []byte(`[{"id": "001"`)}, model.ErrInvalidDocument},
		{"missing price", model.Document{Name: "products.json", Content: []byte(`[{"id": "001", "name": "a", "description": "b"}]`)}, model.ErrInvalidDocument},
		{"non-numeric price", model.Document{Name: "products.json", Content: []byte(`[{"id": "001", "name": "a", "price": "cheap", "description": "b"}]`)}, model.ErrInvalidDocument},
		{"object instead of list", model.Document{Name: "products.json", Content: []byte(`{"id": "001"}`)}, model.ErrInvalidDocument},
		{"roster without admins", model.Document{Name: "admins.json", Content: []byte(`{"users": []}`)}, model.ErrInvalidDocument},
		{"empty roster", model.Document{Name: "admins.json", Content: []byte(`{"admins": []}`)}, model.ErrInvalidDocument},
		{"unknown file", model.Document{Name: "orders.json", Content: []byte(`[]`)}, model.ErrUnknownDocument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, admin(1))
			f.catalog.products = append([]model.Product(nil), original...)

			err := f.importer.Import(ctx, caller, tc.doc)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, original, f.catalog.products)
			assert.Equal(t, []model.Operator{admin(1)}, f.roster.operators)
			assert.Empty(t, f.messenger.documents)
		})
	}
}

func TestImportRequiresAdmin(t *testing.T) {
	f := setup(t, admin(1), seller(2))

	err := f.importer.Import(context.Background(), callerWithID(2, ""), model.Document{Name: "admins.json", Content: []byte(`{"admins": []}`)})
	assert.ErrorIs(t, err, model.ErrPermissionDenied)
	assert.Len(t, f.roster.operators, 2)
}
