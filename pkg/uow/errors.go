package uow

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotRegistered     = errors.New("[uow] repository not registered")
	ErrRepositoryAlreadyRegistered = errors.New("[uow] repository already registered")
	ErrInvalidRepositoryType       = errors.New("[uow] invalid repository type")
)

// notRegisteredError ErrRepositoryNotRegistered с именем запрошенного репозитория.
func notRegisteredError(name RepositoryName) error {
	return fmt.Errorf("%w: %q", ErrRepositoryNotRegistered, name)
}
