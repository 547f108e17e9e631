// ============================================================================
// hutt - Helpful Utility for Testing Tutorials
// ============================================================================
//
// Package:     gdrive
// Description: hutt_gdrive directive: download a shared Google Drive file
// License:     Apache-2.0
// ============================================================================

package gdrive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/travissluka/hutt/internal/command"
	"github.com/travissluka/hutt/internal/markdown"
	hutterr "github.com/travissluka/hutt/pkg/core/error"
	"github.com/travissluka/hutt/pkg/core/logging"
)

// Name is the directive name
const Name = "hutt_gdrive"

// maxPageSize bounds how much of an HTML interstitial is scanned for a
// confirmation token.
const maxPageSize = 1 << 20

var reConfirm = regexp.MustCompile(`confirm=([0-9A-Za-z_\-]+)`)

// Config holds download configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://drive.google.com/uc",
		Timeout: 10 * time.Minute,
	}
}

// Type is the hutt_gdrive command type
type Type struct {
	command.Unsupported
	cfg    Config
	client *http.Client
	dir    string
	logger *logging.Logger
}

// New creates the command type
func New(cfg Config) *Type {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Type{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logging.New("gdrive"),
	}
}

func (t *Type) Name() string { return Name }

// Initialize records the working directory downloads are written to
func (t *Type) Initialize(_ context.Context, env *command.Environment) error {
	t.dir = env.WorkDir
	return nil
}

func (t *Type) ParseInline(src markdown.Source, args markdown.Args) ([]command.Command, error) {
	if err := command.CheckArgs(args, "id", "dest"); err != nil {
		return nil, err
	}
	id, err := command.RequireArg(args, "id")
	if err != nil {
		return nil, err
	}
	return []command.Command{&Command{
		Base: command.NewBase(src),
		typ:  t,
		ID:   id,
		Dest: args["dest"],
	}}, nil
}

// Command downloads one file
type Command struct {
	command.Base
	typ  *Type
	ID   string
	Dest string
}

func (c *Command) String() string {
	return fmt.Sprintf("Download from Gdrive id: %s", c.ID)
}

// Execute downloads the file into the working directory
func (c *Command) Execute(ctx context.Context) error {
	path, n, err := c.typ.Download(ctx, c.ID, c.Dest)
	if err != nil {
		return err
	}
	c.typ.logger.Info("Downloaded file", "id", c.ID, "path", path, "bytes", n)
	return nil
}

// Download fetches the file with the given id. dest may be empty, in which
// case the server supplied filename (or the id) is used. It returns the
// written path and size.
func (t *Type) Download(ctx context.Context, id, dest string) (string, int64, error) {
	resp, err := t.get(ctx, id, "")
	if err != nil {
		return "", 0, err
	}

	// Large files are served behind a confirmation page.
	if isHTML(resp) {
		page, readErr := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
		resp.Body.Close()
		if readErr != nil {
			return "", 0, downloadError(readErr, id)
		}
		m := reConfirm.FindSubmatch(page)
		if m == nil {
			return "", 0, hutterr.Newf("file %s is not publicly downloadable", id).
				WithCode(hutterr.CodeIO).
				WithDetail("id", id)
		}
		if resp, err = t.get(ctx, id, string(m[1])); err != nil {
			return "", 0, err
		}
		if isHTML(resp) {
			resp.Body.Close()
			return "", 0, hutterr.Newf("download of %s was not confirmed", id).
				WithCode(hutterr.CodeIO).
				WithDetail("id", id)
		}
	}
	defer resp.Body.Close()

	name := dest
	if name == "" {
		name = filenameOf(resp, id)
	}
	if !filepath.IsAbs(name) && t.dir != "" {
		name = filepath.Join(t.dir, name)
	}

	n, err := writeAtomic(name, resp.Body)
	if err != nil {
		return "", 0, downloadError(err, id)
	}
	return name, n, nil
}

func (t *Type) get(ctx context.Context, id, confirm string) (*http.Response, error) {
	q := url.Values{}
	q.Set("export", "download")
	q.Set("id", id)
	if confirm != "" {
		q.Set("confirm", confirm)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, downloadError(err, id)
	}
	t.logger.Debug("Requesting file", "url", req.URL.String())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, downloadError(err, id)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, hutterr.Newf("download of %s failed: %s", id, resp.Status).
			WithCode(hutterr.CodeIO).
			WithDetail("id", id).
			WithDetail("status", resp.StatusCode)
	}
	return resp, nil
}

func isHTML(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html")
}

func filenameOf(resp *http.Response, id string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			switch name := filepath.Base(params["filename"]); name {
			case ".", "..", "/":
			default:
				return name
			}
		}
	}
	return id
}

func writeAtomic(path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hutt-download-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

func downloadError(err error, id string) error {
	return hutterr.Wrap(err, fmt.Sprintf("download of %s failed", id)).
		WithCode(hutterr.CodeIO).
		WithDetail("id", id)
}
