// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     yamlcmd
// Description: YAML file directives: write, merge and comment
// License:     Apache-2.0
// ============================================================================

package yamlcmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/travissluka/hutt/internal/command"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// fileType resolves relative filenames against the run's working directory.
type fileType struct {
	dir string
}

func (f *fileType) Initialize(_ context.Context, env *command.Environment) error {
	f.dir = env.WorkDir
	return nil
}

func (f *fileType) resolve(name string) string {
	if filepath.IsAbs(name) || f.dir == "" {
		return name
	}
	return filepath.Join(f.dir, name)
}

// loadDocument reads path into a document node. A missing or empty file
// yields an empty mapping.
func loadDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, hutterr.Wrap(err, "failed to read yaml file").
			WithCode(hutterr.CodeIO).
			WithDetail("file", path)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, hutterr.Wrap(err, "failed to parse yaml file").
				WithCode(hutterr.CodeParse).
				WithDetail("file", path)
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, hutterr.Newf("top level of %s is not a mapping", path).
			WithCode(hutterr.CodeInvalidArgument).
			WithDetail("file", path)
	}
	return &doc, nil
}

func saveDocument(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return hutterr.Wrap(err, "failed to encode yaml").WithCode(hutterr.CodeInternal)
	}
	if err := enc.Close(); err != nil {
		return hutterr.Wrap(err, "failed to encode yaml").WithCode(hutterr.CodeInternal)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return hutterr.Wrap(err, "failed to create directory").
			WithCode(hutterr.CodeIO).
			WithDetail("file", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return hutterr.Wrap(err, "failed to write yaml file").
			WithCode(hutterr.CodeIO).
			WithDetail("file", path)
	}
	return nil
}

// parseValue parses a YAML fragment into a single node.
func parseValue(text string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, hutterr.Wrap(err, "invalid yaml").WithCode(hutterr.CodeInvalidArgument)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	node := doc.Content[0]
	clearStyle(node)
	return node, nil
}

// clearStyle drops flow and quoting styles so merged values are written in
// the file's block layout.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func splitKey(key string) ([]string, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return nil, hutterr.Newf("invalid key %q", key).WithCode(hutterr.CodeInvalidArgument)
		}
	}
	return parts, nil
}

// lookup returns the key and value nodes for name in a mapping node.
func lookup(mapping *yaml.Node, name string) (*yaml.Node, *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == name {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}

// setPath assigns value at the dotted path, creating intermediate mappings.
func setPath(root *yaml.Node, path []string, value *yaml.Node) error {
	node := root
	for i, name := range path {
		last := i == len(path)-1
		_, child := lookup(node, name)

		if last {
			if child != nil {
				*child = *value
			} else {
				node.Content = append(node.Content, scalarKey(name), value)
			}
			return nil
		}

		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarKey(name), child)
		}
		if child.Kind != yaml.MappingNode {
			return hutterr.Newf("key %q is not a mapping", strings.Join(path[:i+1], ".")).
				WithCode(hutterr.CodeInvalidArgument)
		}
		node = child
	}
	return nil
}

// findKey returns the key node at the dotted path.
func findKey(root *yaml.Node, path []string) (*yaml.Node, error) {
	node := root
	for i, name := range path {
		if node.Kind != yaml.MappingNode {
			return nil, hutterr.Newf("key %q is not a mapping", strings.Join(path[:i], ".")).
				WithCode(hutterr.CodeInvalidArgument)
		}
		key, child := lookup(node, name)
		if key == nil {
			return nil, hutterr.Newf("key %q not found", strings.Join(path[:i+1], ".")).
				WithCode(hutterr.CodeInvalidArgument)
		}
		if i == len(path)-1 {
			return key, nil
		}
		node = child
	}
	return nil, hutterr.New("empty key path").WithCode(hutterr.CodeInvalidArgument)
}

// deepMerge merges the src mapping into dst. Nested mappings merge
// recursively; any other value in src replaces the one in dst.
func deepMerge(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		_, existing := lookup(dst, key.Value)
		switch {
		case existing == nil:
			dst.Content = append(dst.Content, key, val)
		case existing.Kind == yaml.MappingNode && val.Kind == yaml.MappingNode:
			deepMerge(existing, val)
		default:
			*existing = *val
		}
	}
}

func scalarKey(name string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}
