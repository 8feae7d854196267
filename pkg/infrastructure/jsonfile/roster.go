package jsonfile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

// Roster keeps operators in a {"admins": [...]} document. A missing, invalid
// or empty document is reseeded with the default administrator.
type Roster struct {
	mu           sync.Mutex
	path         string
	defaultAdmin model.Identity
}

var _ model.RosterRepository = (*Roster)(nil)

func NewRoster(path string, defaultAdmin model.Identity) *Roster {
	return &Roster{path: path, defaultAdmin: defaultAdmin}
}

func (r *Roster) Load() ([]model.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Roster) Update(fn func(operators []model.Operator) ([]model.Operator, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	operators, err := r.load()
	if err != nil {
		return err
	}
	updated, err := fn(operators)
	if err != nil {
		return err
	}
	return r.save(updated)
}

func (r *Roster) Replace(operators []model.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(operators)
}

func (r *Roster) Export() (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.load(); err != nil {
		return model.Document{}, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return model.Document{}, errors.Wrapf(err, "read %s", r.path)
	}
	return model.Document{Name: filepath.Base(r.path), Content: data}, nil
}

func (r *Roster) seed() ([]model.Operator, error) {
	operators := []model.Operator{{
		UserID:      r.defaultAdmin,
		Role:        model.RoleAdmin,
		Permissions: model.PermissionsFor(model.RoleAdmin),
	}}
	return operators, r.save(operators)
}

func (r *Roster) load() ([]model.Operator, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return r.seed()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", r.path)
	}
	operators, err := model.ValidateRoster(data)
	if err != nil {
		quarantine(r.path, data, err)
		return r.seed()
	}
	if len(operators) == 0 {
		return r.seed()
	}
	return operators, nil
}

func (r *Roster) save(operators []model.Operator) error {
	if operators == nil {
		operators = []model.Operator{}
	}
	return writeJSON(r.path, model.RosterDocument{Admins: operators})
}
