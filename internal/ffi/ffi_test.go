package ffi

import (
	"testing"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/buffer"
	"github.com/ajitpratap0/jsonparquet/pkg/columnar"
	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/converter"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	"github.com/ajitpratap0/jsonparquet/pkg/testutil"
)

func newLibrary(t *testing.T, behavior string) (*Library, *buffer.GoAllocator) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Reader.UnexpectedFieldBehavior = behavior

	alloc := buffer.NewGoAllocator()
	conv, err := converter.New(cfg,
		converter.WithLogger(testutil.TestLogger(t)),
		converter.WithRegisterer(prometheus.NewRegistry()),
		converter.WithAllocator(alloc))
	require.NoError(t, err)
	return New(conv, zap.NewNop()), alloc
}

func TestStatusCodesAreStable(t *testing.T) {
	assert.Equal(t, Status(0), StatusSuccess)
	assert.Equal(t, Status(1), StatusSchemaParseError)
	assert.Equal(t, Status(2), StatusSchemaNotFound)
	assert.Equal(t, Status(3), StatusReadInputJSONError)
	assert.Equal(t, Status(4), StatusWriteToParquetError)
	assert.Equal(t, Status(5), StatusInvalidArgument)
	assert.Equal(t, Status(6), StatusOwnershipError)
	assert.Equal(t, Status(7), StatusInternalError)

	assert.Equal(t, "ReadInputJsonError", StatusReadInputJSONError.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusSuccess},
		{errors.New(errors.ErrorTypeSchemaParse, "x"), StatusSchemaParseError},
		{errors.New(errors.ErrorTypeSchemaNotFound, "x"), StatusSchemaNotFound},
		{errors.New(errors.ErrorTypeReadInputJSON, "x"), StatusReadInputJSONError},
		{errors.New(errors.ErrorTypeWriteParquet, "x"), StatusWriteToParquetError},
		{errors.New(errors.ErrorTypeValidation, "x"), StatusInvalidArgument},
		{errors.New(errors.ErrorTypeConfig, "x"), StatusInvalidArgument},
		{errors.New(errors.ErrorTypeOwnership, "x"), StatusOwnershipError},
		{errors.New(errors.ErrorTypeInternal, "x"), StatusInternalError},
		{assert.AnError, StatusInternalError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "%v", tt.err)
	}
}

func TestConvertAndRelease(t *testing.T) {
	lib, alloc := newLibrary(t, "ignore")
	require.Equal(t, StatusSuccess, lib.RegisterSchema("Patient", testutil.PatientDescription))

	status, ptr, length := lib.Convert("Patient", []byte(`{"id":"123","birthDate":"1990-01-01"}`))
	require.Equal(t, StatusSuccess, status)
	require.NotNil(t, ptr)
	assert.Greater(t, length, 0)
	assert.Equal(t, 1, lib.Outstanding())

	data := unsafe.Slice((*byte)(ptr), length)
	info, err := columnar.Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Rows)

	assert.Equal(t, StatusSuccess, lib.Release(ptr))
	assert.Equal(t, 0, lib.Outstanding())
	assert.Equal(t, int64(0), alloc.Outstanding())

	assert.Equal(t, StatusOwnershipError, lib.Release(ptr))
	assert.Equal(t, int64(0), alloc.Outstanding())
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		name     string
		behavior string
		key      string
		input    string
		want     Status
	}{
		{"unregistered", "ignore", "Observation", `{"id":"1"}`, StatusSchemaNotFound},
		{"malformed", "ignore", "Patient", `{"id"`, StatusReadInputJSONError},
		{"unexpected field", "error", "Patient", `{"id":"123","unknownField":true}`, StatusReadInputJSONError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, alloc := newLibrary(t, tt.behavior)
			require.Equal(t, StatusSuccess, lib.RegisterSchema("Patient", testutil.PatientDescription))

			status, ptr, length := lib.Convert(tt.key, []byte(tt.input))
			assert.Equal(t, tt.want, status)
			assert.Nil(t, ptr)
			assert.Zero(t, length)
			assert.Equal(t, 0, lib.Outstanding())
			assert.Equal(t, int64(0), alloc.Outstanding())
		})
	}
}

func TestConvertTypeViolationStatus(t *testing.T) {
	inputs := map[string]string{
		"int32 overflow":      `{"id":"p1","multipleBirthInteger":3000000000}`,
		"string for integer":  `{"id":"p1","multipleBirthInteger":"two"}`,
		"invalid date":        `{"id":"p1","birthDate":"1990-13"}`,
		"invalid timestamp":   `{"id":"p1","meta":{"lastUpdated":"yesterday"}}`,
		"duplicate key":       `{"id":"p1","id":"p2"}`,
		"later document":      "{\"id\":\"p1\"}\n{\"id\":\"p2\",\"active\":\"yes\"}",
		"missing required id": `{"gender":"female"}`,
	}

	for _, behavior := range []string{"ignore", "error", "infer"} {
		lib, alloc := newLibrary(t, behavior)
		require.Equal(t, StatusSuccess, lib.RegisterSchema("Patient", testutil.FullPatientDescription))

		for name, input := range inputs {
			t.Run(behavior+"/"+name, func(t *testing.T) {
				var (
					status Status
					ptr    unsafe.Pointer
					length int
				)
				require.NotPanics(t, func() {
					status, ptr, length = lib.Convert("Patient", []byte(input))
				})
				assert.Equal(t, StatusReadInputJSONError, status)
				assert.Nil(t, ptr)
				assert.Zero(t, length)
				assert.Equal(t, 0, lib.Outstanding())
				assert.Equal(t, int64(0), alloc.Outstanding())
			})
		}
	}
}

func TestConvertOutputTooLarge(t *testing.T) {
	lib, alloc := newLibrary(t, "ignore")
	require.Equal(t, StatusSuccess, lib.RegisterSchema("Patient", testutil.PatientDescription))
	lib.maxOutput = 16

	status, ptr, length := lib.Convert("Patient", []byte(`{"id":"123"}`))
	assert.Equal(t, StatusWriteToParquetError, status)
	assert.Nil(t, ptr)
	assert.Zero(t, length)
	assert.Equal(t, 0, lib.Outstanding())
	assert.Equal(t, int64(0), alloc.Outstanding())
}

func TestRegisterSchemaStatus(t *testing.T) {
	lib, _ := newLibrary(t, "ignore")

	assert.Equal(t, StatusInvalidArgument, lib.RegisterSchema("", testutil.PatientDescription))
	assert.Equal(t, StatusSchemaParseError, lib.RegisterSchema("Patient", `{"type":"object"`))
	assert.Equal(t, StatusSchemaParseError, lib.RegisterSchema("Patient", `{"type":"object","properties":{}}`))
	assert.Equal(t, StatusSuccess, lib.RegisterSchema("Patient", testutil.PatientDescription))
	assert.Equal(t, 1, lib.Converter().Registry().Len())
}

func TestReleaseUnknownAndNil(t *testing.T) {
	lib, _ := newLibrary(t, "ignore")

	assert.Equal(t, StatusSuccess, lib.Release(nil))

	var local [8]byte
	assert.Equal(t, StatusOwnershipError, lib.Release(unsafe.Pointer(&local[0])))
}
