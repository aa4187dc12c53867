package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/repository"
)

// Store is an in-memory customer backend. Committed state lives in a
// mutex-guarded map; each opened repository stages its own changes and
// commits them against the map atomically on Persist.
type Store struct {
	mu        sync.RWMutex
	customers map[int64]models.Customer
	nextID    int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		customers: make(map[int64]models.Customer),
		nextID:    1,
	}
}

// Open returns a fresh repository with empty staged state.
func (s *Store) Open() repository.CustomerRepository {
	return &customerRepository{store: s}
}

// Health reports the store as always reachable.
func (s *Store) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ repository.CustomerStore = (*Store)(nil)

type opKind int

const (
	opAdd opKind = iota
	opUpdate
	opRemove
)

type pendingOp struct {
	kind     opKind
	customer *models.Customer
}

// customerRepository implements the repository contract over a Store.
type customerRepository struct {
	store   *Store
	pending []pendingOp
}

// Find returns the committed customers selected by spec.
func (r *customerRepository) Find(ctx context.Context, spec models.CustomerSpec) ([]*models.Customer, error) {
	r.store.mu.RLock()
	snapshot := make([]*models.Customer, 0, len(r.store.customers))
	for _, c := range r.store.customers {
		snapshot = append(snapshot, &c)
	}
	r.store.mu.RUnlock()

	// Deterministic base order so equal sort keys resolve by id.
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })

	return repository.Apply(snapshot, spec), nil
}

// ByID returns a copy of the committed customer, or nil when absent.
func (r *customerRepository) ByID(ctx context.Context, id int64) (*models.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Add stages customer for insertion.
func (r *customerRepository) Add(customer *models.Customer) {
	r.pending = append(r.pending, pendingOp{kind: opAdd, customer: customer})
}

// Update stages customer for overwrite.
func (r *customerRepository) Update(customer *models.Customer) {
	r.pending = append(r.pending, pendingOp{kind: opUpdate, customer: customer})
}

// Remove stages customer for deletion.
func (r *customerRepository) Remove(customer *models.Customer) {
	r.pending = append(r.pending, pendingOp{kind: opRemove, customer: customer})
}

// Persist applies every staged change to a copy of the committed map and
// swaps the copy in only if all of them succeed. Assigned ids are written
// back to the staged entities after the swap.
func (r *customerRepository) Persist(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	next := make(map[int64]models.Customer, len(r.store.customers))
	for id, c := range r.store.customers {
		next[id] = c
	}

	nextID := r.store.nextID
	type assignment struct {
		customer *models.Customer
		id       int64
	}
	var assigned []assignment

	for _, op := range r.pending {
		switch op.kind {
		case opAdd:
			id := nextID
			nextID++
			c := *op.customer
			c.ID = id
			next[id] = c
			assigned = append(assigned, assignment{customer: op.customer, id: id})

		case opUpdate:
			if _, ok := next[op.customer.ID]; !ok {
				return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", op.customer.ID))
			}
			next[op.customer.ID] = *op.customer

		case opRemove:
			if _, ok := next[op.customer.ID]; !ok {
				return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", op.customer.ID))
			}
			delete(next, op.customer.ID)
		}
	}

	r.store.customers = next
	r.store.nextID = nextID
	for _, a := range assigned {
		a.customer.ID = a.id
	}
	r.pending = nil

	return nil
}
