package yamlcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/markdown"
)

// CommentName is the directive name of CommentType
const CommentName = "hutt_yaml_comment"

// CommentType attaches a comment above an existing key.
type CommentType struct {
	command.Unsupported
	fileType
}

// NewComment creates the hutt_yaml_comment type
func NewComment() *CommentType { return &CommentType{} }

func (t *CommentType) Name() string { return CommentName }

func (t *CommentType) ParseInline(src markdown.Source, args markdown.Args) ([]command.Command, error) {
	if err := command.CheckArgs(args, "filename", "key", "comment"); err != nil {
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
	comment, err := command.RequireArg(args, "comment")
	if err != nil {
		return nil, err
	}

	return []command.Command{&commentCommand{
		Base:     command.NewBase(src),
		typ:      t,
		filename: filename,
		path:     path,
		comment:  comment,
	}}, nil
}

type commentCommand struct {
	command.Base
	typ      *CommentType
	filename string
	path     []string
	comment  string
}

func (c *commentCommand) Execute(context.Context) error {
	file := c.typ.resolve(c.filename)
	doc, err := loadDocument(file)
	if err != nil {
		return err
	}
	key, err := findKey(doc.Content[0], c.path)
	if err != nil {
		return err
	}

	text := c.comment
	if !strings.HasPrefix(text, "#") {
		text = "# " + text
	}
	key.HeadComment = text
	return saveDocument(file, doc)
}

func (c *commentCommand) String() string {
	return fmt.Sprintf("comment %s in %s", strings.Join(c.path, "."), c.filename)
}
