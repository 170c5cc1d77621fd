// Package pbxproj loads Xcode project files into a graph.Store.
package pbxproj

import (
	"errors"
	"fmt"

	"github.com/agentic-research/targetdiff/internal/graph"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"
	"howett.net/plist"
)

// FileName is the project file inside an .xcodeproj bundle.
const FileName = "project.pbxproj"

// ErrNotProject is returned for a path or document that is not an Xcode project.
var ErrNotProject = errors.New("not an Xcode project")

// Locate returns the project file for p, which is either the project file
// itself or a directory containing one.
func Locate(fs billy.Filesystem, p string) (string, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotProject, err)
	}
	if !info.IsDir() {
		return p, nil
	}
	candidate := fs.Join(p, FileName)
	info, err = fs.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s contains no %s", ErrNotProject, p, FileName)
	}
	return candidate, nil
}

// Load locates, reads and parses a project.
func Load(fs billy.Filesystem, p string) (*graph.Store, error) {
	file, err := Locate(fs, p)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(fs, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	log.Debug().Str("file", file).Int("objects", s.Len()).Msg("loaded project")
	return s, nil
}

// Parse decodes the text of a project file.
func Parse(data []byte) (*graph.Store, error) {
	var doc any
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotProject, err)
	}

	rootObject, err := queryOne[string](doc, "$.rootObject")
	if err != nil {
		return nil, err
	}
	objects, err := queryOne[map[string]any](doc, "$.objects")
	if err != nil {
		return nil, err
	}

	nodes := make([]*graph.Node, 0, len(objects))
	for id, v := range objects {
		attrs, ok := v.(map[string]any)
		if !ok {
			continue
		}
		nodes = append(nodes, graph.NewNode(id, attrs))
	}
	return graph.NewStore(rootObject, nodes), nil
}
