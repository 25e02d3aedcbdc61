package tablebuilder

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	jsonpool "github.com/ajitpratap0/jsonparquet/pkg/json"
	"github.com/ajitpratap0/jsonparquet/pkg/schema"
)

// scanResult is what the pre-parse pass learns about the input
type scanResult struct {
	docs []jsonpool.RawMessage
	// inferred holds unknown top-level fields in first-seen order
	inferred []inferredField
}

type inferredField struct {
	name string
	typ  schema.Type
}

// scanner walks every document once before arrow parsing. The column
// builders skip undeclared keys, fill missing ones with nulls and leave a
// half-appended row behind on a bad value, so every value is checked here.
type scanner struct {
	schema   *arrow.Schema
	behavior UnexpectedFieldBehavior

	result   scanResult
	inferIdx map[string]int
}

func newScanner(s *arrow.Schema, behavior UnexpectedFieldBehavior) *scanner {
	return &scanner{
		schema:   s,
		behavior: behavior,
		inferIdx: make(map[string]int),
	}
}

func (s *scanner) scan(input []byte) (*scanResult, error) {
	err := jsonpool.EachDocument(input, func(index int, doc jsonpool.RawMessage) error {
		if !jsonpool.IsObject(doc) {
			return errors.New(errors.ErrorTypeReadInputJSON, "input json document is not an object").
				WithDetail("document", index)
		}

		if !utf8.Valid(doc) {
			return errors.New(errors.ErrorTypeReadInputJSON, "input json is not valid UTF-8").
				WithDetail("document", index)
		}
		if err := jsonpool.CheckUniqueKeys(doc); err != nil {
			return errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json is invalid").
				WithDetail("document", index)
		}

		var values map[string]interface{}
		if err := jsonpool.UnmarshalNumber(doc, &values); err != nil {
			return errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json is invalid").
				WithDetail("document", index)
		}

		if err := s.checkObject(s.schema.Fields(), values, ""); err != nil {
			return errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json does not match schema").
				WithDetail("document", index)
		}

		if s.behavior == InferType {
			if err := s.inferUnknown(doc, values); err != nil {
				return errors.Wrap(err, errors.ErrorTypeReadInputJSON, "cannot infer type of unexpected field").
					WithDetail("document", index)
			}
		}

		s.result.docs = append(s.result.docs, doc)
		return nil
	})
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeReadInputJSON {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json is invalid")
	}

	for i := range s.result.inferred {
		s.result.inferred[i].typ = schema.Resolve(s.result.inferred[i].typ)
	}
	return &s.result, nil
}

// checkObject verifies required fields are present and, in Error mode, that
// no undeclared field appears. Struct children are checked recursively.
func (s *scanner) checkObject(fields []arrow.Field, values map[string]interface{}, path string) error {
	declared := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = struct{}{}
		v := values[f.Name]
		if v == nil {
			if !f.Nullable {
				return fmt.Errorf("required field %q is missing or null", path+f.Name)
			}
			continue
		}
		if err := s.checkValue(f.Type, v, path+f.Name); err != nil {
			return err
		}
	}

	if s.behavior != Error {
		return nil
	}
	for name := range values {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("unexpected field %q", path+name)
		}
	}
	return nil
}

// checkValue verifies v can be appended to a column of type dt without
// loss. Numbers must fit the column width exactly and temporal strings must
// parse the way the arrow builders parse them.
func (s *scanner) checkValue(dt arrow.DataType, v interface{}, path string) error {
	switch t := dt.(type) {
	case *arrow.StructType:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return mismatch(path, "an object", v)
		}
		return s.checkObject(t.Fields(), obj, path+".")
	case *arrow.ListType:
		items, ok := v.([]interface{})
		if !ok {
			return mismatch(path, "an array", v)
		}
		for i, item := range items {
			if item == nil {
				continue
			}
			if err := s.checkValue(t.Elem(), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case *arrow.StringType:
		if _, ok := v.(string); !ok {
			return mismatch(path, "a string", v)
		}
		return nil
	case *arrow.BinaryType:
		str, ok := v.(string)
		if !ok {
			return mismatch(path, "a base64 string", v)
		}
		if _, err := base64.StdEncoding.DecodeString(str); err != nil {
			return fmt.Errorf("field %q is not valid base64", path)
		}
		return nil
	case *arrow.BooleanType:
		if _, ok := v.(bool); !ok {
			return mismatch(path, "a boolean", v)
		}
		return nil
	case *arrow.Int32Type:
		return checkInteger(v, 32, path)
	case *arrow.Int64Type:
		return checkInteger(v, 64, path)
	case *arrow.Float32Type:
		return checkFloat(v, 32, path)
	case *arrow.Float64Type:
		return checkFloat(v, 64, path)
	case *arrow.Date32Type:
		if str, ok := v.(string); ok {
			if _, err := time.Parse("2006-01-02", str); err != nil {
				return fmt.Errorf("field %q: %q is not a date (YYYY-MM-DD)", path, str)
			}
			return nil
		}
		return checkInteger(v, 32, path)
	case *arrow.TimestampType:
		if str, ok := v.(string); ok {
			loc, err := t.GetZone()
			if err != nil {
				return fmt.Errorf("field %q: %w", path, err)
			}
			if _, _, err := arrow.TimestampFromStringInLocation(str, t.Unit, loc); err != nil {
				return fmt.Errorf("field %q: %q is not a timestamp", path, str)
			}
			return nil
		}
		return checkInteger(v, 64, path)
	default:
		return fmt.Errorf("field %q has unsupported type %s", path, dt)
	}
}

func checkInteger(v interface{}, bits int, path string) error {
	n, ok := v.(jsonpool.Number)
	if !ok {
		return mismatch(path, "a number", v)
	}
	if _, err := strconv.ParseInt(n.String(), 10, bits); err != nil {
		return fmt.Errorf("field %q: %s is not an integer that fits in %d bits", path, n, bits)
	}
	return nil
}

func checkFloat(v interface{}, bits int, path string) error {
	n, ok := v.(jsonpool.Number)
	if !ok {
		return mismatch(path, "a number", v)
	}
	f, err := strconv.ParseFloat(n.String(), bits)
	if err != nil || math.IsInf(f, 0) {
		return fmt.Errorf("field %q: %s is out of range for a %d-bit float", path, n, bits)
	}
	return nil
}

func mismatch(path, want string, v interface{}) error {
	return fmt.Errorf("field %q should be %s, found %s", path, want, jsonKind(v))
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case string:
		return "a string"
	case jsonpool.Number:
		return "a number"
	case bool:
		return "a boolean"
	case map[string]interface{}:
		return "an object"
	case []interface{}:
		return "an array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// inferUnknown merges the types of undeclared top-level fields. Unknown
// fields nested inside declared structs are not inferred and are dropped.
func (s *scanner) inferUnknown(doc jsonpool.RawMessage, values map[string]interface{}) error {
	// values has lost the member order
	var members jsonpool.OrderedObject
	if err := jsonpool.Unmarshal(doc, &members); err != nil {
		return err
	}

	for _, m := range members {
		name := m.Key
		if s.schema.HasField(name) {
			continue
		}
		typ, err := schema.InferType(values[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		idx, seen := s.inferIdx[name]
		if !seen {
			s.inferIdx[name] = len(s.result.inferred)
			s.result.inferred = append(s.result.inferred, inferredField{name: name, typ: typ})
			continue
		}

		merged, err := schema.MergeTypes(s.result.inferred[idx].typ, typ)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		s.result.inferred[idx].typ = merged
	}
	return nil
}
