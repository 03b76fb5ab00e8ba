package wire

import (
	"strings"
)

// Dict is a decoded JSON object as returned by the remote API.
type Dict = map[string]any

// Lookup follows a dotted key path through nested objects. A missing segment,
// a nil value or a non-object intermediate all report false.
func Lookup(d Dict, path string) (any, bool) {
	if d == nil {
		return nil, false
	}
	var cur any = d
	for _, key := range strings.Split(path, ".") {
		obj, ok := asDict(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// LookupDict is Lookup restricted to object values.
func LookupDict(d Dict, path string) (Dict, bool) {
	v, ok := Lookup(d, path)
	if !ok {
		return nil, false
	}
	return asDict(v)
}

// Items returns the objects stored in the list at path. Elements that are not
// objects are dropped and a missing list yields nil.
func Items(d Dict, path string) []Dict {
	v, ok := Lookup(d, path)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]Dict); ok {
			return typed
		}
		return nil
	}
	out := make([]Dict, 0, len(list))
	for _, el := range list {
		if obj, ok := asDict(el); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func Has(d Dict, key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

func asDict(v any) (Dict, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	default:
		return nil, false
	}
}
