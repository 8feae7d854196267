package service

import (
	"github.com/pkg/errors"

	"shopbot/pkg/domain/model"
)

type PermissionService interface {
	HasPermission(caller model.Caller, token model.Permission) (bool, error)
	// Require returns model.ErrPermissionDenied when the caller lacks token.
	Require(caller model.Caller, token model.Permission) error
}

func NewPermissionService(roster model.RosterRepository) PermissionService {
	return &permissionService{roster: roster}
}

type permissionService struct {
	roster model.RosterRepository
}

// HasPermission re-reads the roster on every call; the first matching record decides.
func (s *permissionService) HasPermission(caller model.Caller, token model.Permission) (bool, error) {
	operators, err := s.roster.Load()
	if err != nil {
		return false, errors.Wrap(err, "load roster")
	}
	for _, op := range operators {
		if op.UserID.Matches(caller) {
			return op.Grants(token), nil
		}
	}
	return false, nil
}

func (s *permissionService) Require(caller model.Caller, token model.Permission) error {
	ok, err := s.HasPermission(caller, token)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(model.ErrPermissionDenied, "%s requires %q", caller.DisplayName(), token)
	}
	return nil
}
