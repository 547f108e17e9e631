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

// WriteName is the directive name of WriteType
const WriteName = "hutt_yaml_write"

// WriteType writes a block's body to a YAML file verbatim.
type WriteType struct {
	command.Unsupported
	fileType
}

// NewWrite creates the hutt_yaml_write type
func NewWrite() *WriteType { return &WriteType{} }

func (t *WriteType) Name() string { return WriteName }

func (t *WriteType) ParseBlock(src markdown.Source, _ string, args markdown.Args, body []string) ([]command.Command, error) {
	if err := command.CheckArgs(args, "filename"); err != nil {
		return nil, err
	}
	filename, err := command.RequireArg(args, "filename")
	if err != nil {
		return nil, err
	}

	content := strings.Join(body, "\n") + "\n"
	var probe yaml.Node
	if err := yaml.Unmarshal([]byte(content), &probe); err != nil {
		return nil, hutterr.Wrap(err, "block is not valid yaml").WithCode(hutterr.CodeParse)
	}

	return []command.Command{&writeCommand{
		Base:     command.NewBase(src),
		typ:      t,
		filename: filename,
		content:  content,
	}}, nil
}

type writeCommand struct {
	command.Base
	typ      *WriteType
	filename string
	content  string
}

func (c *writeCommand) Execute(context.Context) error {
	return writeFile(c.typ.resolve(c.filename), []byte(c.content))
}

func (c *writeCommand) String() string {
	return fmt.Sprintf("write %s", c.filename)
}
