package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/oakline/customer-directory/internal/db"
	"github.com/oakline/customer-directory/internal/models"
	"github.com/oakline/customer-directory/internal/repository"
)

// Store is the SQLite customer backend.
type Store struct {
	db *db.DB
}

// NewStore creates a store over an open SQLite handle.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_customers_active ON customers (active);
`

// EnsureSchema creates the customers table and its active-flag index if
// they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Open returns a fresh repository with empty staged state.
func (s *Store) Open() repository.CustomerRepository {
	return &customerRepository{db: s.db}
}

// Health checks that the database file is reachable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
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

// customerRepository implements the repository contract using SQLite.
type customerRepository struct {
	db      *db.DB
	pending []pendingOp
}

// findQuery translates spec into a SQL query and its arguments.
func findQuery(spec models.CustomerSpec) (string, []interface{}) {
	query := `
		SELECT id, first_name, last_name, active
		FROM customers
		WHERE 1=1`
	args := []interface{}{}

	if active, ok := spec.ActiveFilter(); ok {
		query += " AND active = ?"
		args = append(args, active)
	}

	if term, ok := spec.NameFilter(); ok {
		// lower() folds ASCII only; see models.CustomersByName.
		query += ` AND (lower(first_name) LIKE ? ESCAPE '\' OR lower(last_name) LIKE ? ESCAPE '\')`
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		args = append(args, pattern, pattern)
	}

	if field, dir, ok := spec.Sort(); ok {
		order := "ASC"
		if dir == models.SortDescending {
			order = "DESC"
		}
		// id tie-break keeps listings deterministic for equal sort keys.
		query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortColumn(field), order)
	}

	return query, args
}

// sortColumn maps a sort field to its column name.
func sortColumn(field models.CustomerSortField) string {
	switch field {
	case models.SortByLastName:
		return "last_name"
	default:
		return "id"
	}
}

// escapeLike escapes the LIKE wildcards in term so it matches as a literal
// substring. The backslash replacement must come first.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, "%", `\%`)
	term = strings.ReplaceAll(term, "_", `\_`)
	return term
}

// Find returns the customers selected by spec, in spec order.
func (r *customerRepository) Find(ctx context.Context, spec models.CustomerSpec) ([]*models.Customer, error) {
	query, args := findQuery(spec)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer := &models.Customer{}
		err := rows.Scan(
			&customer.ID,
			&customer.FirstName,
			&customer.LastName,
			&customer.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

// ByID returns the customer with the given id, or nil when absent.
func (r *customerRepository) ByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `
		SELECT id, first_name, last_name, active
		FROM customers
		WHERE id = ?`

	customer := &models.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return customer, nil
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

// Persist commits all staged changes in a single transaction. Assigned ids
// are written back to the staged entities only after the commit succeeds.
func (r *customerRepository) Persist(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	type assignment struct {
		customer *models.Customer
		id       int64
	}
	var assigned []assignment

	for _, op := range r.pending {
		switch op.kind {
		case opAdd:
			result, err := tx.ExecContext(ctx, `
				INSERT INTO customers (first_name, last_name, active)
				VALUES (?, ?, ?)`,
				op.customer.FirstName,
				op.customer.LastName,
				op.customer.IsActive,
			)
			if err != nil {
				return fmt.Errorf("failed to insert customer: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get inserted id: %w", err)
			}
			assigned = append(assigned, assignment{customer: op.customer, id: id})

		case opUpdate:
			result, err := tx.ExecContext(ctx, `
				UPDATE customers
				SET first_name = ?, last_name = ?, active = ?
				WHERE id = ?`,
				op.customer.FirstName,
				op.customer.LastName,
				op.customer.IsActive,
				op.customer.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update customer: %w", err)
			}
			if err := requireRow(result, op.customer.ID); err != nil {
				return err
			}

		case opRemove:
			result, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, op.customer.ID)
			if err != nil {
				return fmt.Errorf("failed to delete customer: %w", err)
			}
			if err := requireRow(result, op.customer.ID); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, a := range assigned {
		a.customer.ID = a.id
	}
	r.pending = nil

	return nil
}

// requireRow converts a zero-row write into a not-found error.
func requireRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	return nil
}
