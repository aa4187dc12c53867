package service

import (
	"strings"

	"github.com/oakline/customer-directory/internal/models"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// IsActive defaults to true when omitted
	IsActive *bool `json:"isActive,omitempty"`
}

// Validate performs validation on the create customer request
func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return models.ErrInvalidInput("firstName is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return models.ErrInvalidInput("lastName is required")
	}
	return nil
}

// UpdateCustomerRequest represents a request to replace a customer's fields
type UpdateCustomerRequest struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
}

// Validate performs validation on the update customer request
func (r *UpdateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return models.ErrInvalidInput("firstName is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return models.ErrInvalidInput("lastName is required")
	}
	return nil
}
