package jsonfile

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

// Catalog keeps the product list in a single JSON array document.
// Every operation re-reads the file; writes are serialized by mu.
type Catalog struct {
	mu   sync.Mutex
	path string
	seq  *Sequence
}

var _ model.CatalogRepository = (*Catalog)(nil)

func NewCatalog(path string, seq *Sequence) *Catalog {
	return &Catalog{path: path, seq: seq}
}

func (c *Catalog) Load() ([]model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Catalog) Find(id string) (*model.Product, error) {
	products, err := c.Load()
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, model.ErrProductNotFound
}

// NextID never goes below the catalog length + 1 or the highest numeric id + 1,
// so imported documents cannot collide with freshly drafted products.
func (c *Catalog) NextID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products, err := c.load()
	if err != nil {
		return "", err
	}
	floor := len(products) + 1
	for _, p := range products {
		if n, err := strconv.Atoi(p.ID); err == nil && n+1 > floor {
			floor = n + 1
		}
	}
	n, err := c.seq.Next(ProductSequence, floor)
	if err != nil {
		return "", err
	}
	return model.FormatProductID(n), nil
}

func (c *Catalog) Append(product model.Product) error {
	return c.Update(func(products []model.Product) ([]model.Product, error) {
		return append(products, product), nil
	})
}

func (c *Catalog) Update(fn func(products []model.Product) ([]model.Product, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	products, err := c.load()
	if err != nil {
		return err
	}
	updated, err := fn(products)
	if err != nil {
		return err
	}
	return c.save(updated)
}

func (c *Catalog) Replace(products []model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(products)
}

func (c *Catalog) Export() (model.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.load(); err != nil {
		return model.Document{}, err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return model.Document{}, errors.Wrapf(err, "read %s", c.path)
	}
	return model.Document{Name: filepath.Base(c.path), Content: data}, nil
}

func (c *Catalog) load() ([]model.Product, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return []model.Product{}, c.save(nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", c.path)
	}
	products, err := model.ValidateCatalog(data)
	if err != nil {
		quarantine(c.path, data, err)
		return []model.Product{}, c.save(nil)
	}
	return products, nil
}

func (c *Catalog) save(products []model.Product) error {
	if products == nil {
		products = []model.Product{}
	}
	return writeJSON(c.path, products)
}
