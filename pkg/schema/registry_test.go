package schema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

const simplePatient = `{"type":"object","properties":{"id":{"type":"string"},"birthDate":{"type":"string"}}}`

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	entry, err := r.Register("Patient", simplePatient)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, "Patient", entry.Key)
	assert.NotNil(t, entry.Arrow)

	got, err := r.Get("Patient")
	require.NoError(t, err)

	expected, err := Parse("Patient", simplePatient)
	require.NoError(t, err)
	assert.True(t, got.Schema.Equal(expected))
	assert.Equal(t, 1, r.Len())
}

func TestGetUnregistered(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Get("Observation")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaNotFound))
}

func TestRegisterInvalidLeavesRegistryUnchanged(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Register("Patient", simplePatient)
	require.NoError(t, err)

	_, err = r.Register("Patient", "Invalid Json")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaParse))

	entry, err := r.Get("Patient")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Version)
}

func TestReRegisterOverwrites(t *testing.T) {
	r := NewRegistry(nil)

	var changes []string
	r.OnChange(func(old, new *Entry) {
		if old == nil {
			changes = append(changes, fmt.Sprintf("add %s v%d", new.Key, new.Version))
			return
		}
		changes = append(changes, fmt.Sprintf("replace %s v%d->v%d", new.Key, old.Version, new.Version))
	})

	first, err := r.Register("Patient", simplePatient)
	require.NoError(t, err)

	same, err := r.Register("Patient", simplePatient)
	require.NoError(t, err)
	assert.Same(t, first, same)

	replaced, err := r.Register("Patient", `{"type":"object","properties":{"id":{"type":"string"}}}`)
	require.NoError(t, err)
	assert.Equal(t, 2, replaced.Version)

	got, err := r.Get("Patient")
	require.NoError(t, err)
	assert.Len(t, got.Schema.Columns, 1)

	assert.Equal(t, []string{"add Patient v1", "replace Patient v1->v2"}, changes)
	// the replaced entry is untouched
	assert.Len(t, first.Schema.Columns, 2)
}

func TestNewRegistryFromSet(t *testing.T) {
	r, err := NewRegistryFromSet(map[string]string{
		"Patient":     simplePatient,
		"Observation": `{"type":"object","properties":{"status":{"type":"string"},"valueQuantity":{"type":"object","properties":{"value":{"type":"number"}}}}}`,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Observation", "Patient"}, r.Keys())

	_, err = NewRegistryFromSet(map[string]string{"Patient": "Invalid Json"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaParse))

	_, err = NewRegistryFromSet(map[string]string{" ": simplePatient}, nil)
	require.Error(t, err)
}

func TestRegisterSchemaValidation(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.RegisterSchema("", &Schema{Columns: []Column{{Name: "id", Type: Primitive(KindString)}}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaParse))

	_, err = r.RegisterSchema("Empty", &Schema{Name: "Empty"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaParse))

	_, err = r.RegisterSchema("Bad", &Schema{Columns: []Column{{Name: "x", Type: Type{Kind: KindList}}}})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaParse))
}

func TestConcurrentRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Register("Patient", simplePatient)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("Type%d", i)
			_, err := r.Register(key, simplePatient)
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				entry, err := r.Get("Patient")
				if assert.NoError(t, err) {
					assert.Equal(t, "Patient", entry.Key)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, r.Len())
}
