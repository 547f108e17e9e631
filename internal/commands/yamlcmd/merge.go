package yamlcmd

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
)

// MergeName is the directive name of MergeType
const MergeName = "hutt_yaml_merge"

// MergeType updates an existing YAML file, either one dotted key (inline)
// or by deep merging a mapping (block).
type MergeType struct {
	fileType
}

// NewMerge creates the hutt_yaml_merge type
func NewMerge() *MergeType { return &MergeType{} }

func (t *MergeType) Name() string { return MergeName }

func (t *MergeType) ParseInline(src markdown.Source, args markdown.Args) ([]command.Command, error) {
	if err := command.CheckArgs(args, "filename", "key", "value"); err != nil {
		return nil, err
	}
	filename, err := command.RequireArg(args, "filename")
	if err != nil {
		return nil, err
	}
	key, err := command.RequireArg(args, "key")
	if err != nil {
		return nil, err
	}
	path, err := splitKey(key)
	if err != nil {
		return nil, err
	}
	raw, ok := args["value"]
	if !ok {
		return nil, hutterr.New(`missing required argument "value"`).WithCode(hutterr.CodeInvalidArgument)
	}
	value, err := parseValue(raw)
	if err != nil {
		return nil, err
	}

	return []command.Command{&mergeCommand{
		Base:     command.NewBase(src),
		typ:      t,
		filename: filename,
		path:     path,
		value:    value,
	}}, nil
}

func (t *MergeType) ParseBlock(src markdown.Source, _ string, args markdown.Args, body []string) ([]command.Command, error) {
	if err := command.CheckArgs(args, "filename"); err != nil {
		return nil, err
	}
	filename, err := command.RequireArg(args, "filename")
	if err != nil {
		return nil, err
	}
	value, err := parseValue(strings.Join(body, "\n"))
	if err != nil {
		return nil, err
	}
	if value.Kind != yaml.MappingNode {
		return nil, hutterr.New("merge block must be a mapping").WithCode(hutterr.CodeInvalidArgument)
	}

	return []command.Command{&mergeCommand{
		Base:     command.NewBase(src),
		typ:      t,
		filename: filename,
		value:    value,
	}}, nil
}

type mergeCommand struct {
	command.Base
	typ      *MergeType
	filename string
	path     []string // nil for a block merge
	value    *yaml.Node
}

func (c *mergeCommand) Execute(context.Context) error {
	file := c.typ.resolve(c.filename)
	doc, err := loadDocument(file)
	if err != nil {
		return err
	}
	root := doc.Content[0]

	value := copyNode(c.value)
	if c.path == nil {
		deepMerge(root, value)
	} else if err := setPath(root, c.path, value); err != nil {
		return hutterr.Wrap(err, "merge failed").WithDetail("file", file)
	}
	return saveDocument(file, doc)
}

func (c *mergeCommand) String() string {
	if c.path == nil {
		return fmt.Sprintf("merge block into %s", c.filename)
	}
	return fmt.Sprintf("set %s in %s", strings.Join(c.path, "."), c.filename)
}

// copyNode deep copies n so repeated runs never share nodes with a document.
func copyNode(n *yaml.Node) *yaml.Node {
	out := *n
	out.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out.Content[i] = copyNode(c)
	}
	return &out
}
