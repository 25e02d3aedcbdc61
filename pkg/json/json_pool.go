// Package json provides JSON helpers built on goccy/go-json with pooled
// buffers, plus the document and ordered-object scanners used by the
// schema parser and the table builder.
package json

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
)

// RawMessage is a raw encoded JSON value
type RawMessage = gojson.RawMessage

// Number is a JSON number literal kept as text
type Number = gojson.Number

// Delim is a JSON array or object delimiter token
type Delim = gojson.Delim

// Decoder is a streaming JSON decoder
type Decoder = gojson.Decoder

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// NewDecoder returns a decoder that keeps numbers as Number
func NewDecoder(r io.Reader) *Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a high-performance drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// UnmarshalNumber decodes data into v keeping numbers as Number
func UnmarshalNumber(data []byte, v interface{}) error {
	return NewDecoder(bytes.NewReader(data)).Decode(v)
}

// MarshalIndent is a high-performance replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// EachDocument calls fn with every top-level JSON value in data, in order.
// Values may be separated by any JSON whitespace (newline-delimited JSON
// is the common case). Iteration stops at the first error.
func EachDocument(data []byte, fn func(index int, doc RawMessage) error) error {
	dec := NewDecoder(bytes.NewReader(data))
	for index := 0; ; index++ {
		var doc RawMessage
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("document %d: %w", index, err)
		}
		if err := fn(index, doc); err != nil {
			return err
		}
	}
}

// IsObject reports whether a raw value is a JSON object
func IsObject(doc RawMessage) bool {
	for _, c := range doc {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// IsBlank reports whether data holds only JSON whitespace
func IsBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

// Member is one key/value pair of an OrderedObject
type Member struct {
	Key   string
	Value RawMessage
}

// OrderedObject is a JSON object decoded with its member order preserved
type OrderedObject []Member

// UnmarshalJSON implements json.Unmarshaler
func (o *OrderedObject) UnmarshalJSON(data []byte) error {
	dec := NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(gojson.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, found %v", tok)
	}

	members := make(OrderedObject, 0, 8)
	seen := make(map[string]struct{})
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, found %v", keyTok)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}

		var value RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("value for key %q: %w", key, err)
		}
		members = append(members, Member{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = members
	return nil
}

// Get returns the value for key
func (o OrderedObject) Get(key string) (RawMessage, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// CheckUniqueKeys returns an error when an object anywhere in doc repeats a
// key. Decoding into a map keeps only the last value of a repeated key.
func CheckUniqueKeys(doc RawMessage) error {
	dec := NewDecoder(bytes.NewReader(doc))
	return uniqueKeys(dec, "")
}

func uniqueKeys(dec *Decoder, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case Delim('{'):
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("expected object key, found %v", keyTok)
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate key %q", path+key)
			}
			seen[key] = struct{}{}
			if err := uniqueKeys(dec, path+key+"."); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	case Delim('['):
		for i := 0; dec.More(); i++ {
			if err := uniqueKeys(dec, fmt.Sprintf("%s[%d].", strings.TrimSuffix(path, "."), i)); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	}
	return nil
}
