package firestore

import (
	"fmt"
	"sort"
	"time"

	fs "google.golang.org/api/firestore/v1"

	"fstodo/internal/service"
)

const nullValue = "NULL_VALUE"

func encodeFields(fields service.Fields) (map[string]fs.Value, error) {
	out := make(map[string]fs.Value, len(fields))
	for k, v := range fields {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = *ev
	}
	return out, nil
}

// encodeValue converts a Go value to its Firestore representation. Zero
// scalars are force-sent so that false, 0 and "" reach the server.
func encodeValue(v any) (*fs.Value, error) {
	switch x := v.(type) {
	case nil:
		return &fs.Value{NullValue: nullValue}, nil
	case string:
		return &fs.Value{StringValue: x, ForceSendFields: []string{"StringValue"}}, nil
	case bool:
		return &fs.Value{BooleanValue: x, ForceSendFields: []string{"BooleanValue"}}, nil
	case int:
		return &fs.Value{IntegerValue: int64(x), ForceSendFields: []string{"IntegerValue"}}, nil
	case int64:
		return &fs.Value{IntegerValue: x, ForceSendFields: []string{"IntegerValue"}}, nil
	case float64:
		return &fs.Value{DoubleValue: x, ForceSendFields: []string{"DoubleValue"}}, nil
	case time.Time:
		return &fs.Value{TimestampValue: x.UTC().Format(time.RFC3339Nano)}, nil
	case []any:
		arr := &fs.ArrayValue{Values: make([]*fs.Value, 0, len(x))}
		for i, e := range x {
			ev, err := encodeValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr.Values = append(arr.Values, ev)
		}
		return &fs.Value{ArrayValue: arr}, nil
	case map[string]any:
		m, err := encodeFields(x)
		if err != nil {
			return nil, err
		}
		return &fs.Value{MapValue: &fs.MapValue{Fields: m}}, nil
	case service.Fields:
		return encodeValue(map[string]any(x))
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func decodeFields(fields map[string]fs.Value) service.Fields {
	out := make(service.Fields, len(fields))
	for k, v := range fields {
		out[k] = decodeValue(&v)
	}
	return out
}

// decodeValue converts a Firestore value back to Go. The REST client cannot
// tell false, 0 and "" apart from an unset value, so those decode to nil.
func decodeValue(v *fs.Value) any {
	switch {
	case v == nil:
		return nil
	case v.ArrayValue != nil:
		out := make([]any, 0, len(v.ArrayValue.Values))
		for _, e := range v.ArrayValue.Values {
			out = append(out, decodeValue(e))
		}
		return out
	case v.MapValue != nil:
		return map[string]any(decodeFields(v.MapValue.Fields))
	case v.TimestampValue != "":
		t, err := time.Parse(time.RFC3339Nano, v.TimestampValue)
		if err != nil {
			return v.TimestampValue
		}
		return t
	case v.NullValue != "":
		return nil
	case v.StringValue != "":
		return v.StringValue
	case v.BooleanValue:
		return true
	case v.IntegerValue != 0:
		return v.IntegerValue
	case v.DoubleValue != 0:
		return v.DoubleValue
	case v.ReferenceValue != "":
		return v.ReferenceValue
	default:
		return nil
	}
}

func fieldPaths(fields service.Fields) []string {
	paths := make([]string, 0, len(fields))
	for k := range fields {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}
