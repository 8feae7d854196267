package model

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDraftNotFound   = errors.New("no staged product draft")
)

// Product is a catalog entry. MessageID is zero until the listing has been
// posted to the products channel.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	PhotoID     string  `json:"photo_id,omitempty"`
	MessageID   int     `json:"message_id,omitempty"`
}

func (p Product) Published() bool {
	return p.MessageID != 0
}

// FormatProductID renders a sequence value the way catalog ids are stored.
func FormatProductID(n int) string {
	return fmt.Sprintf("%03d", n)
}

// PlaceholderName is the name a freshly drafted product gets.
func PlaceholderName(id string) string {
	return "Товар #" + id
}

type CatalogRepository interface {
	Load() ([]Product, error)
	Find(id string) (*Product, error)
	// NextID reserves the next product id from the durable sequence.
	NextID() (string, error)
	Append(product Product) error
	// Update runs a read-modify-write cycle under the store lock.
	Update(fn func(products []Product) ([]Product, error)) error
	Replace(products []Product) error
	Export() (Document, error)
}
