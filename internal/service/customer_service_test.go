package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/repository"
	"github.com/oakline/customer-directory/internal/repository/memory"
)

// mockCache records cache traffic for testing
type mockCache struct {
	customers     map[int64]*models.Customer
	gets          int
	sets          int
	invalidations int
	err           error
}

func newMockCache() *mockCache {
	return &mockCache{customers: make(map[int64]*models.Customer)}
}

func (m *mockCache) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	return m.customers[id], nil
}

func (m *mockCache) SetCustomer(ctx context.Context, customer *models.Customer) error {
	m.sets++
	if m.err != nil {
		return m.err
	}
	m.customers[customer.ID] = customer
	return nil
}

func (m *mockCache) InvalidateCustomer(ctx context.Context, id int64) error {
	m.invalidations++
	if m.err != nil {
		return m.err
	}
	delete(m.customers, id)
	return nil
}

func (m *mockCache) Close() error                     { return nil }
func (m *mockCache) Health(ctx context.Context) error { return nil }

// countingStore counts repository opens so cache hits are observable
type countingStore struct {
	repository.CustomerStore
	opens int
}

func (s *countingStore) Open() repository.CustomerRepository {
	s.opens++
	return s.CustomerStore.Open()
}

var errBackendDown = errors.New("backend down")

// failingStore simulates an unreachable backend
type failingStore struct{}

func (failingStore) Open() repository.CustomerRepository { return failingRepository{} }
func (failingStore) Health(ctx context.Context) error    { return errBackendDown }
func (failingStore) Close() error                        { return nil }

type failingRepository struct{}

func (failingRepository) Find(ctx context.Context, spec models.CustomerSpec) ([]*models.Customer, error) {
	return nil, errBackendDown
}

func (failingRepository) ByID(ctx context.Context, id int64) (*models.Customer, error) {
	return nil, errBackendDown
}

func (failingRepository) Add(customer *models.Customer)    {}
func (failingRepository) Update(customer *models.Customer) {}
func (failingRepository) Remove(customer *models.Customer) {}

func (failingRepository) Persist(ctx context.Context) error { return errBackendDown }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(b bool) *bool { return &b }

func newTestService(t *testing.T) CustomerService {
	t.Helper()
	return NewCustomerService(memory.NewStore(), nil, testLogger())
}

// seedDirectory creates three active and two inactive customers. "smith"
// matches two of them: Benjamin Smith by last name and Smithson Baker by
// first name.
func seedDirectory(t *testing.T, svc CustomerService) {
	t.Helper()
	ctx := context.Background()

	seeds := []CreateCustomerRequest{
		{FirstName: "Alice", LastName: "Anderson"},
		{FirstName: "Benjamin", LastName: "Smith"},
		{FirstName: "Clara", LastName: "Jones"},
		{FirstName: "Smithson", LastName: "Baker", IsActive: boolPtr(false)},
		{FirstName: "Dana", LastName: "Watts", IsActive: boolPtr(false)},
	}
	for i := range seeds {
		if _, err := svc.Create(ctx, &seeds[i]); err != nil {
			t.Fatalf("Create(%s) error = %v", seeds[i].LastName, err)
		}
	}
}

func lastNames(customers []*models.Customer) []string {
	out := make([]string, len(customers))
	for i, c := range customers {
		out[i] = c.LastName
	}
	return out
}

func TestCustomerService_CreateDefaultsToActive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !created.IsActive {
		t.Error("Create() IsActive = false, want true by default")
	}
	if created.ID == 0 {
		t.Error("Create() ID = 0, want assigned id")
	}

	inactive, err := svc.Create(ctx, &CreateCustomerRequest{
		FirstName: "Dana",
		LastName:  "Watts",
		IsActive:  boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if inactive.IsActive {
		t.Error("Create() IsActive = true, want false when requested")
	}
}

func TestCustomerService_CreateTrimsNames(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "  Alice ", LastName: " Anderson  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.FirstName != "Alice" || created.LastName != "Anderson" {
		t.Errorf("Create() names = (%q, %q), want trimmed (Alice, Anderson)",
			created.FirstName, created.LastName)
	}

	// The stored customer equals the returned one.
	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("GetByID() = nil, want created customer")
	}
	if *loaded != *created {
		t.Errorf("GetByID() = %+v, want %+v", loaded, created)
	}
}

func TestCustomerService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateCustomerRequest
	}{
		{"missing first name", CreateCustomerRequest{LastName: "Anderson"}},
		{"missing last name", CreateCustomerRequest{FirstName: "Alice"}},
		{"whitespace-only first name", CreateCustomerRequest{FirstName: "   ", LastName: "Anderson"}},
		{"whitespace-only last name", CreateCustomerRequest{FirstName: "Alice", LastName: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)

			_, err := svc.Create(context.Background(), &tt.req)
			if err == nil {
				t.Fatal("Create() error = nil, want validation error")
			}

			var appErr *models.AppError
			if !errors.As(err, &appErr) || appErr.Code != "INVALID_INPUT" {
				t.Errorf("Create() error = %v, want AppError with code INVALID_INPUT", err)
			}
		})
	}
}

func TestCustomerService_GetByIDMissingReturnsNil(t *testing.T) {
	svc := newTestService(t)

	customer, err := svc.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if customer != nil {
		t.Errorf("GetByID(99) = %+v, want nil", customer)
	}
}

func TestCustomerService_ListActiveSortedByLastName(t *testing.T) {
	svc := newTestService(t)
	seedDirectory(t, svc)

	customers, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}

	want := []string{"Anderson", "Jones", "Smith"}
	got := lastNames(customers)
	if len(got) != len(want) {
		t.Fatalf("ListActive() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListActive()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCustomerService_ListInactive(t *testing.T) {
	svc := newTestService(t)
	seedDirectory(t, svc)

	customers, err := svc.ListInactive(context.Background())
	if err != nil {
		t.Fatalf("ListInactive() error = %v", err)
	}

	want := []string{"Baker", "Watts"}
	got := lastNames(customers)
	if len(got) != len(want) {
		t.Fatalf("ListInactive() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListInactive()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCustomerService_SearchByName(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []string
	}{
		{"matches first and last names", "smith", []string{"Baker", "Smith"}},
		{"matching is case-insensitive", "SMITH", []string{"Baker", "Smith"}},
		{"matches substrings", "son", []string{"Anderson", "Baker"}},
		{"empty term matches everyone", "", []string{"Anderson", "Baker", "Jones", "Smith", "Watts"}},
		{"no matches", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			seedDirectory(t, svc)

			customers, err := svc.SearchByName(context.Background(), tt.term)
			if err != nil {
				t.Fatalf("SearchByName(%q) error = %v", tt.term, err)
			}

			got := lastNames(customers)
			if len(got) != len(tt.want) {
				t.Fatalf("SearchByName(%q) = %v, want %v", tt.term, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("SearchByName(%q)[%d] = %q, want %q", tt.term, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCustomerService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, &UpdateCustomerRequest{
		ID:        created.ID,
		FirstName: " Alicia ",
		LastName:  " Andersen ",
		IsActive:  false,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.FirstName != "Alicia" || updated.LastName != "Andersen" {
		t.Errorf("Update() names = (%q, %q), want trimmed (Alicia, Andersen)",
			updated.FirstName, updated.LastName)
	}
	if updated.IsActive {
		t.Error("Update() IsActive = true, want false")
	}

	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if *loaded != *updated {
		t.Errorf("GetByID() = %+v, want %+v", loaded, updated)
	}
}

func TestCustomerService_UpdateMissingCustomer(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), 99, &UpdateCustomerRequest{
		ID:        99,
		FirstName: "Ghost",
		LastName:  "Entry",
		IsActive:  true,
	})
	if err == nil {
		t.Fatal("Update() error = nil, want not-found error")
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Update() error = %v, want errors.Is(err, ErrNotFound)", err)
	}
}

func TestCustomerService_UpdateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Update(ctx, created.ID, &UpdateCustomerRequest{
		ID:        created.ID,
		FirstName: "",
		LastName:  "Anderson",
		IsActive:  true,
	})
	if err == nil {
		t.Fatal("Update() error = nil, want validation error")
	}

	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_INPUT" {
		t.Errorf("Update() error = %v, want AppError with code INVALID_INPUT", err)
	}

	// The stored customer is untouched by the rejected update.
	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if loaded.FirstName != "Alice" {
		t.Errorf("FirstName = %q after rejected update, want %q", loaded.FirstName, "Alice")
	}
}

func TestCustomerService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true")
	}

	customer, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if customer != nil {
		t.Errorf("GetByID() = %+v after delete, want nil", customer)
	}
}

func TestCustomerService_DeleteMissingCustomer(t *testing.T) {
	svc := newTestService(t)

	deleted, err := svc.Delete(context.Background(), 99)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Error("Delete(99) = true, want false")
	}
}

func TestCustomerService_ActivateDeactivate(t *testing.T) {
	svc := newTestService(t)
	seedDirectory(t, svc)
	ctx := context.Background()

	// Benjamin Smith is seeded with id 2.
	customer, err := svc.Deactivate(ctx, 2)
	if err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if customer.IsActive {
		t.Error("Deactivate() IsActive = true, want false")
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("ListActive() returned %d customers after deactivate, want 2", len(active))
	}

	customer, err = svc.Activate(ctx, 2)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if !customer.IsActive {
		t.Error("Activate() IsActive = false, want true")
	}

	active, err = svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 3 {
		t.Errorf("ListActive() returned %d customers after activate, want 3", len(active))
	}
}

func TestCustomerService_ActivateMissingCustomer(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Activate(context.Background(), 99)
	if err == nil {
		t.Fatal("Activate() error = nil, want not-found error")
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Activate() error = %v, want errors.Is(err, ErrNotFound)", err)
	}
}

func TestCustomerService_GetByIDUsesCache(t *testing.T) {
	store := &countingStore{CustomerStore: memory.NewStore()}
	cache := newMockCache()
	svc := NewCustomerService(store, cache, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	opensAfterCreate := store.opens

	// First read misses the cache, hits the store and populates the entry.
	if _, err := svc.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if store.opens != opensAfterCreate+1 {
		t.Errorf("store opens = %d after first read, want %d", store.opens, opensAfterCreate+1)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}

	// Second read is served from the cache.
	customer, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if customer == nil || customer.LastName != "Anderson" {
		t.Errorf("GetByID() = %+v, want cached Anderson", customer)
	}
	if store.opens != opensAfterCreate+1 {
		t.Errorf("store opens = %d after second read, want %d", store.opens, opensAfterCreate+1)
	}
	if cache.gets != 2 {
		t.Errorf("cache gets = %d, want 2", cache.gets)
	}
}

func TestCustomerService_UpdateInvalidatesCache(t *testing.T) {
	store := &countingStore{CustomerStore: memory.NewStore()}
	cache := newMockCache()
	svc := NewCustomerService(store, cache, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, &UpdateCustomerRequest{
		ID:        created.ID,
		FirstName: "Alicia",
		LastName:  "Anderson",
		IsActive:  true,
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if cache.invalidations != 1 {
		t.Errorf("cache invalidations = %d, want 1", cache.invalidations)
	}

	// The stale entry is gone, so the next read reflects the update.
	customer, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if customer.FirstName != "Alicia" {
		t.Errorf("FirstName = %q after update, want %q", customer.FirstName, "Alicia")
	}
}

func TestCustomerService_DeleteInvalidatesCache(t *testing.T) {
	cache := newMockCache()
	svc := NewCustomerService(memory.NewStore(), cache, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if _, err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if cache.invalidations != 1 {
		t.Errorf("cache invalidations = %d, want 1", cache.invalidations)
	}
}

func TestCustomerService_CacheFailuresDoNotBreakReads(t *testing.T) {
	cache := newMockCache()
	cache.err = errors.New("cache down")
	svc := NewCustomerService(memory.NewStore(), cache, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	customer, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v, want cache failure swallowed", err)
	}
	if customer == nil || customer.LastName != "Anderson" {
		t.Errorf("GetByID() = %+v, want customer from store", customer)
	}
}

func TestCustomerService_StoreErrorsPropagate(t *testing.T) {
	svc := NewCustomerService(failingStore{}, nil, testLogger())
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, 1); !errors.Is(err, errBackendDown) {
		t.Errorf("GetByID() error = %v, want backend error", err)
	}
	if _, err := svc.ListActive(ctx); !errors.Is(err, errBackendDown) {
		t.Errorf("ListActive() error = %v, want backend error", err)
	}
	if _, err := svc.SearchByName(ctx, "smith"); !errors.Is(err, errBackendDown) {
		t.Errorf("SearchByName() error = %v, want backend error", err)
	}
	if _, err := svc.Create(ctx, &CreateCustomerRequest{FirstName: "Alice", LastName: "Anderson"}); !errors.Is(err, errBackendDown) {
		t.Errorf("Create() error = %v, want backend error", err)
	}
	if _, err := svc.Delete(ctx, 1); !errors.Is(err, errBackendDown) {
		t.Errorf("Delete() error = %v, want backend error", err)
	}
}
