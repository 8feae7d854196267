package model

type ProductDrafted struct {
	ProductID string
	AuthorID  int64
}

func (e ProductDrafted) Type() string { return "ProductDrafted" }

type ProductPublished struct {
	ProductID string
	MessageID int
}

func (e ProductPublished) Type() string { return "ProductPublished" }

type ProductDeleted struct {
	ProductID string
}

func (e ProductDeleted) Type() string { return "ProductDeleted" }

type CatalogImported struct {
	Products int
	Posted   int
}

func (e CatalogImported) Type() string { return "CatalogImported" }

type RosterImported struct {
	Operators int
}

func (e RosterImported) Type() string { return "RosterImported" }

type OrderPlaced struct {
	OrderID   int
	ProductID string
	BuyerID   int64
}

func (e OrderPlaced) Type() string { return "OrderPlaced" }

type OrderStatusChanged struct {
	OrderID   int
	OldStatus OrderStatus
	NewStatus OrderStatus
	ActorID   int64
}

func (e OrderStatusChanged) Type() string { return "OrderStatusChanged" }

type OperatorAdded struct {
	UserID Identity
	Role   Role
}

func (e OperatorAdded) Type() string { return "OperatorAdded" }

type OperatorRemoved struct {
	UserID Identity
}

func (e OperatorRemoved) Type() string { return "OperatorRemoved" }
