package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oakline/customer-directory/internal/cache"
	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/repository"
)

// CustomerService handles customer business logic
type CustomerService interface {
	// GetByID returns the customer, or nil when no customer has the id
	GetByID(ctx context.Context, id int64) (*models.Customer, error)

	ListActive(ctx context.Context) ([]*models.Customer, error)
	ListInactive(ctx context.Context) ([]*models.Customer, error)

	// SearchByName matches term against first or last name
	// case-insensitively. An empty term matches every customer.
	SearchByName(ctx context.Context, term string) ([]*models.Customer, error)

	Create(ctx context.Context, req *CreateCustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, id int64, req *UpdateCustomerRequest) (*models.Customer, error)

	// Delete reports false when no customer has the id
	Delete(ctx context.Context, id int64) (bool, error)

	Activate(ctx context.Context, id int64) (*models.Customer, error)
	Deactivate(ctx context.Context, id int64) (*models.Customer, error)
}

type customerService struct {
	store  repository.CustomerStore
	cache  cache.Cache
	logger *slog.Logger
}

// NewCustomerService creates a new customer service. customerCache may be
// nil when caching is disabled.
func NewCustomerService(
	store repository.CustomerStore,
	customerCache cache.Cache,
	logger *slog.Logger,
) CustomerService {
	return &customerService{
		store:  store,
		cache:  customerCache,
		logger: logger,
	}
}

// GetByID retrieves a customer by ID, consulting the cache first
func (s *customerService) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCustomer(ctx, id)
		if err != nil {
			s.logger.Warn("customer cache read failed",
				slog.Int64("customer_id", id),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	repo := s.store.Open()
	customer, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, nil
	}

	if s.cache != nil {
		if err := s.cache.SetCustomer(ctx, customer); err != nil {
			s.logger.Warn("customer cache write failed",
				slog.Int64("customer_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return customer, nil
}

// ListActive returns active customers ordered by last name
func (s *customerService) ListActive(ctx context.Context) ([]*models.Customer, error) {
	repo := s.store.Open()
	customers, err := repo.Find(ctx, models.ActiveCustomers())
	if err != nil {
		return nil, fmt.Errorf("failed to list active customers: %w", err)
	}
	return customers, nil
}

// ListInactive returns inactive customers ordered by last name
func (s *customerService) ListInactive(ctx context.Context) ([]*models.Customer, error) {
	repo := s.store.Open()
	customers, err := repo.Find(ctx, models.InactiveCustomers())
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive customers: %w", err)
	}
	return customers, nil
}

// SearchByName returns customers whose first or last name contains term
func (s *customerService) SearchByName(ctx context.Context, term string) ([]*models.Customer, error) {
	repo := s.store.Open()
	customers, err := repo.Find(ctx, models.CustomersByName(term))
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	return customers, nil
}

// Create creates a new customer from the trimmed request fields
func (s *customerService) Create(ctx context.Context, req *CreateCustomerRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		IsActive:  true,
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	repo := s.store.Open()
	repo.Add(customer)
	if err := repo.Persist(ctx); err != nil {
		s.logger.Error("failed to create customer",
			slog.String("last_name", customer.LastName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created",
		slog.Int64("customer_id", customer.ID),
	)

	return customer, nil
}

// Update replaces the fields of an existing customer
func (s *customerService) Update(ctx context.Context, id int64, req *UpdateCustomerRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	repo := s.store.Open()
	customer, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	customer.FirstName = strings.TrimSpace(req.FirstName)
	customer.LastName = strings.TrimSpace(req.LastName)
	customer.IsActive = req.IsActive

	repo.Update(customer)
	if err := repo.Persist(ctx); err != nil {
		s.logger.Error("failed to update customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.invalidate(ctx, id)

	s.logger.Info("customer updated",
		slog.Int64("customer_id", id),
	)

	return customer, nil
}

// Delete removes a customer, reporting false when it does not exist
func (s *customerService) Delete(ctx context.Context, id int64) (bool, error) {
	repo := s.store.Open()
	customer, err := repo.ByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return false, nil
	}

	repo.Remove(customer)
	if err := repo.Persist(ctx); err != nil {
		s.logger.Error("failed to delete customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("failed to delete customer: %w", err)
	}

	s.invalidate(ctx, id)

	s.logger.Info("customer deleted",
		slog.Int64("customer_id", id),
	)

	return true, nil
}

// Activate sets the customer's active flag
func (s *customerService) Activate(ctx context.Context, id int64) (*models.Customer, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate clears the customer's active flag
func (s *customerService) Deactivate(ctx context.Context, id int64) (*models.Customer, error) {
	return s.setActive(ctx, id, false)
}

func (s *customerService) setActive(ctx context.Context, id int64, active bool) (*models.Customer, error) {
	repo := s.store.Open()
	customer, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	customer.IsActive = active

	repo.Update(customer)
	if err := repo.Persist(ctx); err != nil {
		s.logger.Error("failed to toggle customer active flag",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to toggle customer active flag: %w", err)
	}

	s.invalidate(ctx, id)

	s.logger.Info("customer active flag changed",
		slog.Int64("customer_id", id),
		slog.Bool("active", active),
	)

	return customer, nil
}

// invalidate drops the cached entry for id. Cache failures are logged, not
// propagated.
func (s *customerService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCustomer(ctx, id); err != nil {
		s.logger.Warn("customer cache invalidation failed",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
	}
}
