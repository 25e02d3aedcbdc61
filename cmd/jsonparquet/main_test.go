package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jsonparquet/pkg/columnar"
	"github.com/ajitpratap0/jsonparquet/pkg/compression"
)

const patientSchema = `{"type":"object","required":["id"],"properties":{"id":{"type":"string"},"birthDate":{"type":"string"}}}`

const patients = `{"id":"123","birthDate":"1990-01-01"}
{"id":"456","birthDate":"1985-06-15"}
{"id":"789"}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jsonparquet v"+version)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "patient.json", []byte(patientSchema))
	inputPath := writeFile(t, dir, "patients.ndjson", []byte(patients))
	outputPath := filepath.Join(dir, "patients.parquet")

	out, err := execute(t, "convert",
		"--schema", schemaPath, "--type", "Patient",
		"--input", inputPath, "--output", outputPath,
		"--compression", "zstd", "--batch-size", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 3 rows in 2 row groups")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	info, err := columnar.Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Rows)
	assert.Equal(t, []int64{2, 1}, info.RowGroupRows)
	assert.Equal(t, columnar.CodecZstd, info.Compression)
}

func TestConvertCompressedInput(t *testing.T) {
	dir := t.TempDir()

	var packed bytes.Buffer
	w, err := compression.NewWriter(&packed, compression.Gzip, compression.Default)
	require.NoError(t, err)
	_, err = w.Write([]byte(patients))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	schemaPath := writeFile(t, dir, "patient.json", []byte(patientSchema))
	inputPath := writeFile(t, dir, "patients.ndjson.gz", packed.Bytes())
	outputPath := filepath.Join(dir, "patients.parquet")

	_, err = execute(t, "convert", "-s", schemaPath, "-t", "Patient", "-i", inputPath, "-o", outputPath, "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	info, err := columnar.Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Rows)
}

func TestConvertFailures(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "patient.json", []byte(patientSchema))
	badSchema := writeFile(t, dir, "bad.json", []byte(`{"type":`))
	unknown := writeFile(t, dir, "unknown.json", []byte(`{"id":"123","unknownField":true}`))
	missing := writeFile(t, dir, "missing.json", []byte(`{"birthDate":"1990-01-01"}`))
	outputPath := filepath.Join(dir, "out.parquet")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad schema", []string{"-s", badSchema, "-i", unknown}, "invalid schema"},
		{"unexpected field", []string{"-s", schemaPath, "-i", unknown, "--unexpected-fields", "error"}, "unknownField"},
		{"required field", []string{"-s", schemaPath, "-i", missing}, "id"},
		{"bad codec", []string{"-s", schemaPath, "-i", unknown, "--compression", "bzip2"}, "bzip2"},
		{"missing input", []string{"-s", schemaPath, "-i", filepath.Join(dir, "nope.json")}, "failed to read input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"convert", "-t", "Patient", "-o", outputPath, "--log-level", "error"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, outputPath)
		})
	}
}

func TestConvertRequiresFlags(t *testing.T) {
	_, err := execute(t, "convert", "--type", "Patient")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestSchemaValidate(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "patient.json", []byte(patientSchema))

	out, err := execute(t, "schema", "validate", schemaPath, "--type", "Patient")
	require.NoError(t, err)
	assert.Contains(t, out, "Patient (2 columns")
	assert.Regexp(t, `id\s+string\s+false`, out)
	assert.Regexp(t, `birthDate\s+string\s+true`, out)

	bad := writeFile(t, dir, "bad.json", []byte(`{"type":"object","properties":{"x":{"type":"tuple"}}}`))
	_, err = execute(t, "schema", "validate", bad, "--type", "Patient")
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "patient.json", []byte(patientSchema))
	inputPath := writeFile(t, dir, "patients.ndjson", []byte(patients))
	outputPath := filepath.Join(dir, "patients.parquet")

	_, err := execute(t, "convert", "-s", schemaPath, "-t", "Patient", "-i", inputPath, "-o", outputPath, "--log-level", "error")
	require.NoError(t, err)

	out, err := execute(t, "inspect", outputPath)
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3")
	assert.Contains(t, out, "compression: snappy")
	assert.Contains(t, out, "created by: jsonparquet")
	assert.Contains(t, out, "birthDate")

	_, err = execute(t, "inspect", inputPath)
	require.Error(t, err)
}

func TestSchemaDiff(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "v1.json", []byte(patientSchema))
	added := writeFile(t, dir, "v2.json", []byte(`{"type":"object","required":["id"],"properties":{"id":{"type":"string"},"birthDate":{"type":"string"},"gender":{"type":"string"}}}`))
	required := writeFile(t, dir, "v3.json", []byte(`{"type":"object","required":["id","gender"],"properties":{"id":{"type":"string"},"birthDate":{"type":"string"},"gender":{"type":"string"}}}`))

	out, err := execute(t, "schema", "diff", oldPath, added)
	require.NoError(t, err)
	assert.Contains(t, out, "ADD_COLUMN gender string")
	assert.Contains(t, out, "compatible (backward)")

	out, err = execute(t, "schema", "diff", oldPath, required, "--mode", "backward")
	require.Error(t, err)
	assert.Contains(t, out, "ADD_COLUMN gender string")
	assert.Contains(t, err.Error(), `cannot add required column "gender"`)

	out, err = execute(t, "schema", "diff", oldPath, oldPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no changes")
}

func TestOpenInputSizeLimit(t *testing.T) {
	dir := t.TempDir()
	var gz bytes.Buffer
	w, err := compression.NewWriter(&gz, compression.Gzip, compression.Default)
	require.NoError(t, err)
	_, err = w.Write([]byte(patients))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	tests := []struct {
		name    string
		file    string
		data    []byte
		maxSize int64
		wantErr bool
	}{
		{"plain within limit", "in.ndjson", []byte(patients), 0, false},
		{"plain over limit", "big.ndjson", []byte(patients), 8, true},
		{"gzip within limit", "in.ndjson.gz", gz.Bytes(), 0, false},
		{"gzip over limit", "big.ndjson.gz", gz.Bytes(), 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			data, closeFn, err := openInput(path, tt.maxSize)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "exceeds")
				assert.Nil(t, closeFn)
			} else {
				require.NoError(t, err)
				assert.Equal(t, patients, string(data))
				require.NoError(t, closeFn())
			}
			require.NoError(t, os.Remove(path))
		})
	}
}
