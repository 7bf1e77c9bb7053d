package client

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/graphboard/graphboard/types"
)

const (
	paramPage           = "pagination[page]"
	paramItemsPerPage   = "pagination[itemsPerPage]"
	paramOrderField     = "order[field]"
	paramOrderDirection = "order[direction]"
	paramTaskIdentifier = "filters[taskIdentifier]"
)

// EncodeQuery flattens parameters into the bracketed query shape the API
// reads. Unset leaves are left out so the server applies its defaults.
func EncodeQuery(params types.QueryParameters) url.Values {
	values := url.Values{}
	if params.Pagination.Page != nil {
		values.Set(paramPage, strconv.Itoa(*params.Pagination.Page))
	}
	if params.Pagination.ItemsPerPage != nil {
		values.Set(paramItemsPerPage, strconv.Itoa(*params.Pagination.ItemsPerPage))
	}
	if params.Order.Field != nil {
		values.Set(paramOrderField, string(*params.Order.Field))
	}
	if params.Order.Direction != nil {
		values.Set(paramOrderDirection, string(*params.Order.Direction))
	}
	if params.Filters.TaskIdentifier != nil {
		values.Set(paramTaskIdentifier, *params.Filters.TaskIdentifier)
	}
	return values
}

// DecodeQuery is the inverse of EncodeQuery. Unknown keys are ignored.
func DecodeQuery(values url.Values) (types.QueryParameters, error) {
	var params types.QueryParameters

	if _, ok := values[paramPage]; ok {
		page, err := strconv.Atoi(values.Get(paramPage))
		if err != nil {
			return params, fmt.Errorf("decode %s: %w", paramPage, err)
		}
		params.Pagination.Page = &page
	}
	if _, ok := values[paramItemsPerPage]; ok {
		itemsPerPage, err := strconv.Atoi(values.Get(paramItemsPerPage))
		if err != nil {
			return params, fmt.Errorf("decode %s: %w", paramItemsPerPage, err)
		}
		params.Pagination.ItemsPerPage = &itemsPerPage
	}
	if _, ok := values[paramOrderField]; ok {
		field := types.OrderField(values.Get(paramOrderField))
		if !field.IsValid() {
			return params, fmt.Errorf("decode %s: unknown field %q", paramOrderField, field)
		}
		params.Order.Field = &field
	}
	if _, ok := values[paramOrderDirection]; ok {
		direction := types.OrderDirection(values.Get(paramOrderDirection))
		if !direction.IsValid() {
			return params, fmt.Errorf("decode %s: unknown direction %q", paramOrderDirection, direction)
		}
		params.Order.Direction = &direction
	}
	if _, ok := values[paramTaskIdentifier]; ok {
		taskIdentifier := values.Get(paramTaskIdentifier)
		params.Filters.TaskIdentifier = &taskIdentifier
	}
	return params, nil
}
