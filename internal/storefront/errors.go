package storefront

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResult indicates a query succeeded but returned no nodes where one was required.
var ErrEmptyResult = errors.New("storefront: empty result")

// DataFetchError reports a failed or empty Storefront API query.
type DataFetchError struct {
	Query  string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *DataFetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("storefront: %s failed with status %d: %v", e.Query, e.Status, e.Err)
	}
	return fmt.Sprintf("storefront: %s failed: %v", e.Query, e.Err)
}

// Unwrap exposes the underlying error.
func (e *DataFetchError) Unwrap() error { return e.Err }

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLErrors is returned when the response carries an errors array.
type GraphQLErrors []GraphQLError

// Error implements the error interface.
func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, item := range e {
		if msg := strings.TrimSpace(item.Message); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) == 0 {
		return "graphql: unknown error"
	}
	return "graphql: " + strings.Join(msgs, "; ")
}
