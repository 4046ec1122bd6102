package preprocessor

import (
	"log/slog"
	"strconv"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
)

// decodeAnyValue extracts the primitive value from an OTLP AnyValue.
// Array, kvlist and bytes values have no flat-attribute representation and
// yield (nil, false) with a debug log.
func decodeAnyValue(av *commonpb.AnyValue) (any, bool) {
	if av == nil {
		return nil, false
	}
	switch v := av.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return v.StringValue, true
	case *commonpb.AnyValue_IntValue:
		return v.IntValue, true
	case *commonpb.AnyValue_DoubleValue:
		return v.DoubleValue, true
	case *commonpb.AnyValue_BoolValue:
		return v.BoolValue, true
	default:
		slog.Debug("Unsupported attribute value type", "value", av.String())
		return nil, false
	}
}

// flattenAttributes converts an OTLP attribute list into a flat key → primitive
// map. OTLP forbids duplicate keys but exporters are not always well behaved;
// duplicates resolve last-write-wins.
func flattenAttributes(kvs []*commonpb.KeyValue) map[string]any {
	attrs := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		if kv == nil {
			continue
		}
		if v, ok := decodeAnyValue(kv.Value); ok {
			attrs[kv.Key] = v
		}
	}
	return attrs
}

// isTruthy reports whether a flag attribute is set. Exporters variously encode
// the dashboard flag as a bool, a string, or a number; empty and zero values
// count as unset.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return v != nil
	}
}

// asString renders a primitive attribute value as a string.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

// stringAttr returns the attribute as a string, or fallback when absent.
func stringAttr(attrs map[string]any, key, fallback string) string {
	v, ok := attrs[key]
	if !ok {
		return fallback
	}
	return asString(v)
}

// intAttr returns the attribute as an int, or fallback when absent or not
// numeric.
func intAttr(attrs map[string]any, key string, fallback int) int {
	switch t := attrs[key].(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return fallback
	}
}

// boolAttr returns the attribute as a bool, or fallback when absent or not
// boolean.
func boolAttr(attrs map[string]any, key string, fallback bool) bool {
	if t, ok := attrs[key].(bool); ok {
		return t
	}
	return fallback
}
