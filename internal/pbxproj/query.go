package pbxproj

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Query runs a JSONPath selector against a decoded property list.
func Query(doc any, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return x.Get(doc), nil
}

// queryOne expects exactly one match of type T.
func queryOne[T any](doc any, selector string) (T, error) {
	var zero T
	matches, err := Query(doc, selector)
	if err != nil {
		return zero, err
	}
	if len(matches) != 1 {
		return zero, fmt.Errorf("%w: %s matched %d values", ErrNotProject, selector, len(matches))
	}
	v, ok := matches[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has unexpected type %T", ErrNotProject, selector, matches[0])
	}
	return v, nil
}
