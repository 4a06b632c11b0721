package ir

import (
	"math"
	"sort"
	"strconv"

	"github.com/gomlx/go-shapedir/internal/utils"
	"github.com/gomlx/go-shapedir/pkg/types/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringListAttributes are the attributes holding lists of strings. Other lists hold integers.
var stringListAttributes = utils.SetWith(AttrIteratorTypes, AttrDistributionTypes)

// EncodeAttributes converts operation attributes to a protobuf Struct.
//
// Integer lists (including shapes.DimDynamic entries) and integers are encoded as numbers, string lists as
// lists of strings, flags as booleans, and constant values as a struct with the "dtype" and "literal" of
// the value.
func EncodeAttributes(attrs map[string]any) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(attrs))
	for key, attr := range attrs {
		var value *structpb.Value
		if key == AttrValue {
			scalar, err := encodeScalar(attr)
			if err != nil {
				return nil, errors.WithMessagef(err, "attribute %q", key)
			}
			fields[key] = structpb.NewStructValue(scalar)
			continue
		}
		switch v := attr.(type) {
		case []int64:
			list := make([]*structpb.Value, len(v))
			for i, n := range v {
				list[i] = structpb.NewNumberValue(float64(n))
			}
			value = structpb.NewListValue(&structpb.ListValue{Values: list})
		case []string:
			list := make([]*structpb.Value, len(v))
			for i, s := range v {
				list[i] = structpb.NewStringValue(s)
			}
			value = structpb.NewListValue(&structpb.ListValue{Values: list})
		case bool:
			value = structpb.NewBoolValue(v)
		case int64:
			value = structpb.NewNumberValue(float64(v))
		default:
			return nil, errors.Errorf("attribute %q has unsupported type %T", key, attr)
		}
		fields[key] = value
	}
	return &structpb.Struct{Fields: fields}, nil
}

func encodeScalar(value any) (*structpb.Struct, error) {
	dtype, err := dtypes.FromAny(value)
	if err != nil {
		return nil, err
	}
	if dtype.IsComplex() {
		return nil, errors.Errorf("complex constants (%s) are not supported", dtype)
	}
	var literal string
	switch v := value.(type) {
	case float16.Float16:
		literal = strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case float32:
		literal = strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		literal = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		literal = formatScalar(v)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"dtype":   structpb.NewStringValue(dtype.ToMLIR()),
		"literal": structpb.NewStringValue(literal),
	}}, nil
}

// DecodeAttributes converts a protobuf Struct created by EncodeAttributes back to operation attributes.
func DecodeAttributes(s *structpb.Struct) (map[string]any, error) {
	attrs := make(map[string]any, len(s.GetFields()))
	keys := make([]string, 0, len(s.GetFields()))
	for key := range s.GetFields() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := s.GetFields()[key]
		switch kind := value.GetKind().(type) {
		case *structpb.Value_ListValue:
			items := kind.ListValue.GetValues()
			if stringListAttributes.Has(key) {
				list := make([]string, len(items))
				for i, item := range items {
					str, ok := item.GetKind().(*structpb.Value_StringValue)
					if !ok {
						return nil, errors.Errorf("attribute %q: item #%d is not a string", key, i)
					}
					list[i] = str.StringValue
				}
				attrs[key] = list
				continue
			}
			list := make([]int64, len(items))
			for i, item := range items {
				n, err := decodeInt(item)
				if err != nil {
					return nil, errors.WithMessagef(err, "attribute %q item #%d", key, i)
				}
				list[i] = n
			}
			attrs[key] = list
		case *structpb.Value_NumberValue:
			n, err := decodeInt(value)
			if err != nil {
				return nil, errors.WithMessagef(err, "attribute %q", key)
			}
			attrs[key] = n
		case *structpb.Value_BoolValue:
			attrs[key] = kind.BoolValue
		case *structpb.Value_StructValue:
			scalar, err := decodeScalar(kind.StructValue)
			if err != nil {
				return nil, errors.WithMessagef(err, "attribute %q", key)
			}
			attrs[key] = scalar
		default:
			return nil, errors.Errorf("attribute %q has unsupported kind %T", key, kind)
		}
	}
	return attrs, nil
}

func decodeInt(value *structpb.Value) (int64, error) {
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, errors.Errorf("expected a number, got %T", value.GetKind())
	}
	f := number.NumberValue
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.Errorf("number %g is not an int64", f)
	}
	return int64(f), nil
}

func decodeScalar(s *structpb.Struct) (any, error) {
	dtype, err := dtypes.FromMLIR(s.GetFields()["dtype"].GetStringValue())
	if err != nil {
		return nil, err
	}
	literal := s.GetFields()["literal"].GetStringValue()
	var value any
	switch {
	case dtype == dtypes.Index:
		var n int64
		n, err = strconv.ParseInt(literal, 10, 64)
		value = int(n)
	case dtype == dtypes.Bool:
		value, err = strconv.ParseBool(literal)
	case dtype.IsUnsigned():
		var n uint64
		n, err = strconv.ParseUint(literal, 10, dtype.Bits())
		switch dtype {
		case dtypes.Uint8:
			value = uint8(n)
		case dtypes.Uint16:
			value = uint16(n)
		case dtypes.Uint32:
			value = uint32(n)
		default:
			value = n
		}
	case dtype.IsInt():
		var n int64
		n, err = strconv.ParseInt(literal, 10, dtype.Bits())
		switch dtype {
		case dtypes.Int8:
			value = int8(n)
		case dtypes.Int16:
			value = int16(n)
		case dtypes.Int32:
			value = int32(n)
		default:
			value = n
		}
	case dtype == dtypes.Float16:
		var f float64
		f, err = strconv.ParseFloat(literal, 32)
		value = float16.Fromfloat32(float32(f))
	case dtype == dtypes.Float32:
		var f float64
		f, err = strconv.ParseFloat(literal, 32)
		value = float32(f)
	case dtype == dtypes.Float64:
		value, err = strconv.ParseFloat(literal, 64)
	default:
		return nil, errors.Errorf("unsupported constant dtype %s", dtype)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s literal %q", dtype, literal)
	}
	return value, nil
}

// MarshalAttributes returns the attributes encoded (see EncodeAttributes) as protobuf wire bytes.
// The output is deterministic: the same attributes always produce the same bytes.
func MarshalAttributes(attrs map[string]any) ([]byte, error) {
	s, err := EncodeAttributes(attrs)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

// UnmarshalAttributes parses protobuf wire bytes created by MarshalAttributes.
func UnmarshalAttributes(data []byte) (map[string]any, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal attributes")
	}
	return DecodeAttributes(s)
}
