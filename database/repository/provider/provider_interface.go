package providerRepo

import (
	"errors"

	"coverly/models"
)

// ErrNotFound is returned when no provider matches the lookup.
var ErrNotFound = errors.New("provider not found")

// ErrDuplicateUser is returned when a provider already exists for the user.
var ErrDuplicateUser = errors.New("provider already exists for user")

// ProviderRepository defines persistence for coverage providers.
type ProviderRepository interface {
	// Create fails with ErrDuplicateUser if the user already owns a provider.
	Create(provider *models.Provider) error
	GetByID(id string) (*models.Provider, error)
	GetByUserID(userID string) (*models.Provider, error)
	GetByPaymentAccount(accountID string) (*models.Provider, error)
	Update(provider *models.Provider) error
	ListByStatus(status models.ProviderStatus) ([]models.Provider, error)
	GetAll() ([]models.Provider, error)
}
