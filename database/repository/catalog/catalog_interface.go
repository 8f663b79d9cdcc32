package catalogRepo

import (
	"errors"

	"coverly/models"
)

var ErrNotFound = errors.New("service not found")

// ServiceRepository persists the provider-owned coverage offerings.
type ServiceRepository interface {
	Create(service *models.Service) error
	GetByID(id string) (*models.Service, error)
	Update(service *models.Service) error
	List(filter models.ServiceFilter) ([]models.Service, error)
}
