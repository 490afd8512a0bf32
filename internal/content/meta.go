package content

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Front-matter keys that populate Page fields instead of Meta.
const (
	keyTitle = "title"
	keySlug  = "slug"
	keyDraft = "draft"
	keyType  = "type"
	keyMeta  = "meta"
)

var reservedKeys = map[string]struct{}{
	keyTitle: {},
	keySlug:  {},
	keyDraft: {},
	keyType:  {},
}

// normalizeFields lower-cases and trims keys and keeps only scalars,
// homogeneous scalar lists and a nested "meta" map of scalars.
func normalizeFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if key == keyMeta {
			if nested, ok := normalizeNested(v); ok {
				out[key] = nested
			}
			continue
		}
		if val, ok := normalizeValue(v); ok {
			out[key] = val
		}
	}
	return out
}

// splitReserved separates reserved keys from the rest of the fields.
func splitReserved(fields map[string]any) (reserved, meta map[string]any) {
	reserved = map[string]any{}
	meta = make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := reservedKeys[k]; ok {
			reserved[k] = v
			continue
		}
		meta[k] = v
	}
	return reserved, meta
}

// mergeDefaults sets every default key missing from meta.
func mergeDefaults(meta map[string]any, defaults map[string]any) {
	for k, v := range normalizeFields(defaults) {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if _, ok := meta[k]; !ok {
			meta[k] = v
		}
	}
}

// extractTaxonomies removes the configured keys from meta and returns their
// terms. Every key is present in the result.
func extractTaxonomies(meta map[string]any, keys []string) map[string][]string {
	out := make(map[string][]string, len(keys))
	for _, key := range keys {
		out[key] = terms(meta[key])
		delete(meta, key)
	}
	return out
}

func terms(v any) []string {
	var raw []string
	switch vv := v.(type) {
	case nil:
	case []any:
		for _, item := range vv {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = append(raw, fmt.Sprint(vv))
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizeNested(v any) (map[string]any, bool) {
	var src map[string]any
	switch m := v.(type) {
	case map[string]any:
		src = m
	case map[any]any:
		src = make(map[string]any, len(m))
		for k, val := range m {
			src[fmt.Sprint(k)] = val
		}
	default:
		return nil, false
	}

	out := make(map[string]any, len(src))
	for k, val := range src {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if s, ok := normalizeScalar(val); ok {
			out[key] = s
		}
	}
	return out, true
}

func normalizeValue(v any) (any, bool) {
	if s, ok := normalizeScalar(v); ok {
		return s, true
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]any, 0, len(list))
	var kind string
	for _, item := range list {
		s, ok := normalizeScalar(item)
		if !ok {
			return nil, false
		}
		k := scalarKind(s)
		if kind == "" {
			kind = k
		} else if k != kind {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// normalizeScalar maps decoder scalars onto string, bool, int64 or float64.
func normalizeScalar(v any) (any, bool) {
	switch vv := v.(type) {
	case nil:
		return nil, false
	case string, bool, int64, float64:
		return vv, true
	case int:
		return int64(vv), true
	case int8, int16, int32:
		return reflect.ValueOf(vv).Int(), true
	case uint, uint8, uint16, uint32, uint64:
		return int64(reflect.ValueOf(vv).Uint()), true
	case float32:
		return float64(vv), true
	case time.Time:
		return vv.Format(time.RFC3339), true
	case fmt.Stringer:
		return vv.String(), true
	default:
		return nil, false
	}
}

func scalarKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "number"
	}
}

// scalarString renders a reserved scalar field, reporting false when absent.
func scalarString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if _, isList := v.([]any); isList {
		return "", false
	}
	return strings.TrimSpace(fmt.Sprint(v)), true
}

func truthy(v any) bool {
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "true", "yes", "on", "1":
			return true
		}
		return false
	case int64:
		return vv != 0
	case float64:
		return vv != 0
	default:
		return false
	}
}
