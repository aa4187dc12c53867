package models

import "strings"

// CustomerSortField identifies an attribute customers can be ordered by.
type CustomerSortField string

// SortDirection indicates ascending or descending order.
type SortDirection string

const (
	// SortByLastName orders customers by their last name.
	SortByLastName CustomerSortField = "last_name"

	// SortAscending orders smallest sort key first.
	SortAscending SortDirection = "asc"
	// SortDescending orders largest sort key first.
	SortDescending SortDirection = "desc"
)

// filterKind tags the single filter criterion a CustomerSpec carries.
type filterKind int

const (
	filterNone filterKind = iota
	filterActiveIs
	filterNameContains
)

// CustomerSpec describes which customers to select and how to order them.
// A spec is immutable after construction: build one with AllCustomers,
// ActiveCustomers, InactiveCustomers or CustomersByName.
type CustomerSpec struct {
	filter filterKind
	active bool
	term   string

	sortField CustomerSortField
	sortDir   SortDirection
	sorted    bool
}

// AllCustomers matches every customer with no particular order.
func AllCustomers() CustomerSpec {
	return CustomerSpec{}
}

// ActiveCustomers matches customers whose active flag is set, ordered by
// last name ascending.
func ActiveCustomers() CustomerSpec {
	return CustomerSpec{
		filter:    filterActiveIs,
		active:    true,
		sortField: SortByLastName,
		sortDir:   SortAscending,
		sorted:    true,
	}
}

// InactiveCustomers matches customers whose active flag is cleared, ordered
// by last name ascending.
func InactiveCustomers() CustomerSpec {
	return CustomerSpec{
		filter:    filterActiveIs,
		active:    false,
		sortField: SortByLastName,
		sortDir:   SortAscending,
		sorted:    true,
	}
}

// CustomersByName matches customers whose first or last name contains term
// case-insensitively, ordered by last name ascending. An empty term builds a
// valid spec that matches every customer; callers are expected to guard
// empty search terms before constructing one.
//
// How far case folding reaches for non-ASCII names depends on the backend:
// the in-memory matcher folds full Unicode, SQLite lower() folds ASCII only,
// and PostgreSQL ILIKE follows the database collation.
func CustomersByName(term string) CustomerSpec {
	return CustomerSpec{
		filter:    filterNameContains,
		term:      term,
		sortField: SortByLastName,
		sortDir:   SortAscending,
		sorted:    true,
	}
}

// Predicate returns the filter as a function over customers, or nil when
// the spec matches everything.
func (s CustomerSpec) Predicate() func(*Customer) bool {
	switch s.filter {
	case filterActiveIs:
		active := s.active
		return func(c *Customer) bool { return c.IsActive == active }
	case filterNameContains:
		term := strings.ToLower(s.term)
		return func(c *Customer) bool {
			return strings.Contains(strings.ToLower(c.FirstName), term) ||
				strings.Contains(strings.ToLower(c.LastName), term)
		}
	default:
		return nil
	}
}

// OrderBy returns the ascending sort-key selector, or nil when the spec is
// unsorted or sorts descending.
func (s CustomerSpec) OrderBy() func(*Customer) string {
	if !s.sorted || s.sortDir != SortAscending {
		return nil
	}
	return s.sortKey()
}

// OrderByDescending returns the descending sort-key selector, or nil when
// the spec is unsorted or sorts ascending.
func (s CustomerSpec) OrderByDescending() func(*Customer) string {
	if !s.sorted || s.sortDir != SortDescending {
		return nil
	}
	return s.sortKey()
}

func (s CustomerSpec) sortKey() func(*Customer) string {
	switch s.sortField {
	case SortByLastName:
		return func(c *Customer) string { return c.LastName }
	default:
		return nil
	}
}

// ActiveFilter reports the active-flag criterion, if the spec carries one.
// The SQL adapters translate specs through these declarative accessors
// rather than the closures above.
func (s CustomerSpec) ActiveFilter() (active, ok bool) {
	return s.active, s.filter == filterActiveIs
}

// NameFilter reports the name-contains criterion, if the spec carries one.
func (s CustomerSpec) NameFilter() (term string, ok bool) {
	return s.term, s.filter == filterNameContains
}

// Sort reports the sort key and direction, if the spec carries one.
func (s CustomerSpec) Sort() (CustomerSortField, SortDirection, bool) {
	if !s.sorted {
		return "", "", false
	}
	return s.sortField, s.sortDir, true
}
