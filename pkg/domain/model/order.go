package model

import (
	"errors"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("order status cannot change this way")
	ErrOptimisticLock    = errors.New("order has been modified by another operator")
)

type OrderStatus int

const (
	New OrderStatus = iota
	Processing
	Sold
)

func (s OrderStatus) String() string {
	switch s {
	case New:
		return "new"
	case Processing:
		return "processing"
	case Sold:
		return "sold"
	}
	return "unknown"
}

// Label is the status as shown in the order log.
func (s OrderStatus) Label() string {
	switch s {
	case New:
		return "Новый"
	case Processing:
		return "В обработке"
	case Sold:
		return "Продан"
	}
	return "?"
}

// CanTransitionTo allows new→processing, new→sold and processing→sold.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case New:
		return next == Processing || next == Sold
	case Processing:
		return next == Sold
	}
	return false
}

// Order lives in process memory only; its id comes from a durable sequence.
type Order struct {
	ID           int
	LogMessage   MessageRef
	BuyerID      int64
	BuyerName    string
	ProductID    string
	ProductName  string
	ProductPrice float64
	Status       OrderStatus
	Version      int
}

type OrderRepository interface {
	NextID() (int, error)
	Create(order *Order) error
	Find(id int) (*Order, error)
	// Update stores order only if it still carries the stored Version and
	// bumps Version on success; otherwise it returns ErrOptimisticLock.
	Update(order *Order) error
	ListOpen() ([]Order, error)
}
