package errors_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// Example demonstrates basic error creation.
func Example() {
	err := errors.New(errors.ErrorTypeSchemaNotFound, "schema is not registered").
		WithDetail("resource_type", "Observation")

	fmt.Println(err.Error())

	// Output:
	// schema_not_found: schema is not registered
}

// ExampleWrap shows how a decoder failure is wrapped with its category.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeReadInputJSON, "input json is invalid").
		WithDetail("offset", 42)

	fmt.Println(errors.IsType(err, errors.ErrorTypeReadInputJSON))
	fmt.Println(err)

	// Output:
	// true
	// read_input_json: input json is invalid: unexpected EOF
}

// ExampleTypeOf demonstrates branching on the error category.
func ExampleTypeOf() {
	parseErr := errors.Newf(errors.ErrorTypeSchemaParse, "property %q has no type", "id")
	wrapped := errors.Wrap(parseErr, errors.ErrorTypeValidation, "bulk registration failed")

	fmt.Println(errors.TypeOf(parseErr))
	fmt.Println(errors.TypeOf(wrapped))
	fmt.Println(errors.TypeOf(io.EOF))

	// Output:
	// schema_parse
	// validation
	// internal
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrorTypeInternal, "nothing"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := errors.New(errors.ErrorTypeWriteParquet, "encode failed")
	outer := errors.Wrap(inner, errors.ErrorTypeInternal, "conversion failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.ErrorIs(t, outer, inner)
	assert.True(t, errors.IsType(outer, errors.ErrorTypeInternal))
	assert.False(t, errors.IsType(outer, errors.ErrorTypeWriteParquet))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrorTypeOwnership, "buffer already released").
		WithDetail("state", "released").
		WithDetail("length", 128)

	assert.Equal(t, "released", err.Details["state"])
	assert.Equal(t, 128, err.Details["length"])
	assert.NotEmpty(t, err.Stack)
}
