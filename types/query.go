package types

const (
	DefaultPage         = 1
	DefaultItemsPerPage = 20
	// MaxItemsPerPage is the largest page the server will return.
	MaxItemsPerPage = 100
)

type OrderField string

const (
	OrderByTaskIdentifier OrderField = "taskIdentifier"
	OrderByRunAt          OrderField = "runAt"
)

var AllOrderFields = []OrderField{OrderByTaskIdentifier, OrderByRunAt}

func (f OrderField) IsValid() bool {
	return f == OrderByTaskIdentifier || f == OrderByRunAt
}

type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

func (d OrderDirection) IsValid() bool {
	return d == Asc || d == Desc
}

// Pagination selects a page. Nil fields mean server default.
type Pagination struct {
	Page         *int
	ItemsPerPage *int
}

type Order struct {
	Field     *OrderField
	Direction *OrderDirection
}

type Filters struct {
	// TaskIdentifier is matched as a case-insensitive substring by the server.
	TaskIdentifier *string
}

// QueryParameters drives what a job listing returns.
type QueryParameters struct {
	Pagination Pagination
	Order      Order
	Filters    Filters
}

// Page resolves the requested page, defaulting to DefaultPage.
func (q QueryParameters) Page() int {
	if q.Pagination.Page == nil {
		return DefaultPage
	}
	return *q.Pagination.Page
}

// ItemsPerPage resolves the page size, defaulting to DefaultItemsPerPage.
func (q QueryParameters) ItemsPerPage() int {
	if q.Pagination.ItemsPerPage == nil {
		return DefaultItemsPerPage
	}
	return *q.Pagination.ItemsPerPage
}

// Clone returns a deep copy so callers can keep a snapshot while the original
// keeps changing.
func (q QueryParameters) Clone() QueryParameters {
	return QueryParameters{
		Pagination: Pagination{
			Page:         clonePtr(q.Pagination.Page),
			ItemsPerPage: clonePtr(q.Pagination.ItemsPerPage),
		},
		Order: Order{
			Field:     clonePtr(q.Order.Field),
			Direction: clonePtr(q.Order.Direction),
		},
		Filters: Filters{
			TaskIdentifier: clonePtr(q.Filters.TaskIdentifier),
		},
	}
}

// Equal compares the resolved leaf values of two parameter sets. A nil leaf
// only equals another nil leaf.
func (q QueryParameters) Equal(other QueryParameters) bool {
	return ptrEqual(q.Pagination.Page, other.Pagination.Page) &&
		ptrEqual(q.Pagination.ItemsPerPage, other.Pagination.ItemsPerPage) &&
		ptrEqual(q.Order.Field, other.Order.Field) &&
		ptrEqual(q.Order.Direction, other.Order.Direction) &&
		ptrEqual(q.Filters.TaskIdentifier, other.Filters.TaskIdentifier)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
