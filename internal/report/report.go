// Package report serializes descriptors for diffing.
package report

import (
	"errors"

	"github.com/agentic-research/targetdiff/api"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// options sort keys so equal descriptors always produce identical bytes.
var options = ojg.Options{
	Indent:     2,
	Sort:       true,
	HTMLUnsafe: true,
}

// Encode renders a descriptor as indented JSON with sorted keys and a
// trailing newline.
func Encode(d *api.Descriptor) []byte {
	return encodeTree(d.Tree())
}

func encodeTree(tree map[string]any) []byte {
	opts := options
	return append([]byte(oj.JSON(tree, &opts)), '\n')
}

// Decode parses JSON produced by Encode back into a tree.
func Decode(data []byte) (map[string]any, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	tree, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("descriptor is not a JSON object")
	}
	return tree, nil
}
