package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeConnectorNotFound, "no connector for premise kind SQL").
		WithDetail("node", "orders").
		WithDetail("source", "BigQuery")

	fmt.Println(err.Error())

	// Output:
	// connector_not_found: no connector for premise kind SQL
}

// ExampleWrap shows how query failures are wrapped with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeQuery, "failed to read query results").
		WithDetail("premise", "id_not_null")

	if errors.IsType(err, errors.ErrorTypeQuery) {
		fmt.Println("query error")
	}
	fmt.Println(err)

	// Output:
	// query error
	// query: failed to read query results: unexpected EOF
}

// ExampleHasType shows how to find a type anywhere in a wrapped chain.
func ExampleHasType() {
	inner := errors.New(errors.ErrorTypeCredentialNotFound, "credentials file missing")
	outer := errors.Wrap(inner, errors.ErrorTypeConfig, "failed to build connector")

	fmt.Println(errors.IsType(outer, errors.ErrorTypeCredentialNotFound))
	fmt.Println(errors.HasType(outer, errors.ErrorTypeCredentialNotFound))

	// Output:
	// false
	// true
}

// ExampleIsRetryable shows which error types are worth retrying.
func ExampleIsRetryable() {
	fmt.Println(errors.IsRetryable(errors.New(errors.ErrorTypeTimeout, "query timed out")))
	fmt.Println(errors.IsRetryable(errors.New(errors.ErrorTypeUnsupportedOperator, "operator Q")))

	// Output:
	// true
	// false
}
