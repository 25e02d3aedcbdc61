package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEachDocument(t *testing.T) {
	input := []byte("{\"id\":\"1\"}\n{\"id\":\"2\"}  {\"id\":\"3\"}\n\n")

	var docs []string
	err := EachDocument(input, func(index int, doc RawMessage) error {
		assert.Equal(t, len(docs), index)
		docs = append(docs, string(doc))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.JSONEq(t, `{"id":"1"}`, docs[0])
	assert.JSONEq(t, `{"id":"2"}`, docs[1])
	assert.JSONEq(t, `{"id":"3"}`, docs[2])
}

func TestEachDocumentMalformed(t *testing.T) {
	err := EachDocument([]byte(`{"id":"1"} {"id":`), func(int, RawMessage) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document")
}

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject(RawMessage(" \n{}")))
	assert.False(t, IsObject(RawMessage("123456")))
	assert.False(t, IsObject(RawMessage(`"text"`)))
	assert.False(t, IsObject(RawMessage("[{}]")))
	assert.False(t, IsObject(nil))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank([]byte(" \n\t")))
	assert.False(t, IsBlank([]byte(" x ")))
}

func TestOrderedObjectPreservesOrder(t *testing.T) {
	var obj OrderedObject
	err := Unmarshal([]byte(`{"zeta":1,"alpha":{"b":2},"mid":[1,2]}`), &obj)
	require.NoError(t, err)

	require.Len(t, obj, 3)
	assert.Equal(t, "zeta", obj[0].Key)
	assert.Equal(t, "alpha", obj[1].Key)
	assert.Equal(t, "mid", obj[2].Key)
	assert.JSONEq(t, `{"b":2}`, string(obj[1].Value))

	v, ok := obj.Get("mid")
	require.True(t, ok)
	assert.JSONEq(t, `[1,2]`, string(v))

	_, ok = obj.Get("missing")
	assert.False(t, ok)
}

func TestOrderedObjectRejectsNonObject(t *testing.T) {
	var obj OrderedObject
	require.Error(t, Unmarshal([]byte(`[1,2]`), &obj))
	require.Error(t, Unmarshal([]byte(`{"a":1,"a":2}`), &obj))
}

func TestCheckUniqueKeys(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "flat", doc: `{"a":1,"b":"x","c":null}`},
		{name: "same key in siblings", doc: `{"a":{"k":1},"b":{"k":2},"c":[{"k":1},{"k":2}]}`},
		{name: "top level", doc: `{"id":"1","id":"2"}`, wantErr: `duplicate key "id"`},
		{name: "nested object", doc: `{"name":{"given":"a","given":"b"}}`, wantErr: `duplicate key "name.given"`},
		{name: "inside list", doc: `{"tags":[{"v":1},{"v":1,"v":2}]}`, wantErr: `duplicate key "tags[1].v"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUniqueKeys(RawMessage(tt.doc))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnmarshalNumberKeepsPrecision(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, UnmarshalNumber([]byte(`{"n":9007199254740993}`), &v))
	n, ok := v["n"].(Number)
	require.True(t, ok)
	assert.Equal(t, "9007199254740993", n.String())
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("data")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
}
