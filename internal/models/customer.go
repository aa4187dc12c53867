package models

import "strings"

// Customer represents a person tracked by the directory
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
}

// Validate performs basic validation on customer data
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return ErrInvalidInput("firstName is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return ErrInvalidInput("lastName is required")
	}
	return nil
}
