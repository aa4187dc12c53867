package repository

import (
	"context"
	"sort"

	"github.com/oakline/customer-directory/internal/models"
)

// Spec describes a filtered, optionally ordered selection of entities,
// decoupled from any storage backend.
type Spec[T any] interface {
	// Predicate returns the filter to apply, or nil to match everything.
	Predicate() func(*T) bool
	// OrderBy returns the ascending sort-key selector, or nil.
	OrderBy() func(*T) string
	// OrderByDescending returns the descending sort-key selector, or nil.
	OrderByDescending() func(*T) string
}

// Repository defines the generic interface for entity data access. Reads
// reflect committed state only. Add, Update and Remove stage changes on the
// repository instance; nothing reaches the backing store until Persist
// commits every staged change as one atomic unit. Staged changes that are
// never persisted are lost with the instance.
type Repository[T any, S Spec[T]] interface {
	// Find returns the entities selected by spec, in spec order.
	Find(ctx context.Context, spec S) ([]*T, error)

	// ByID returns the entity with the given id, or nil when absent.
	// Absence is not an error.
	ByID(ctx context.Context, id int64) (*T, error)

	// Add stages entity for insertion. The storage-assigned id is written
	// back to entity once Persist succeeds.
	Add(entity *T)

	// Update stages entity to overwrite the stored row with the same id.
	Update(entity *T)

	// Remove stages entity for deletion.
	Remove(entity *T)

	// Persist commits all staged changes atomically, in staging order. On
	// failure nothing is committed and the staged changes are kept.
	Persist(ctx context.Context) error
}

// CustomerRepository is the repository contract instantiated for customers.
type CustomerRepository = Repository[models.Customer, models.CustomerSpec]

// CustomerStore hands out request-scoped customer repositories over one
// shared backend.
type CustomerStore interface {
	// Open returns a fresh repository with empty staged state. Staged
	// changes are never shared between opened repositories.
	Open() CustomerRepository

	// Health checks that the backend is reachable.
	Health(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

var _ Spec[models.Customer] = models.CustomerSpec{}

// Apply evaluates spec against items in memory: the filter predicate first,
// then the ascending sort if present, else the descending sort if present.
// The input slice is not modified. Sorting is stable, so entities with equal
// sort keys keep their input order.
func Apply[T any, S Spec[T]](items []*T, spec S) []*T {
	out := make([]*T, 0, len(items))
	pred := spec.Predicate()
	for _, item := range items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}

	if key := spec.OrderBy(); key != nil {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	} else if key := spec.OrderByDescending(); key != nil {
		sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	}

	return out
}
