package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrymomot/relay/pkg/cache"
)

const (
	extHTML     = ".html"
	extMarkdown = ".md"

	maxLayoutDepth = 8
)

// ignoredFiles never render as part of a directory view.
var ignoredFiles = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
	".git":      true,
}

// page is a parsed view file.
type page struct {
	html *template.Template     // .html view
	md   *texttemplate.Template // .md view body
	meta Meta
}

// Markdown is the value a layout receives when it wraps a markdown view.
type Markdown struct {
	Content template.HTML
	Meta    Meta
	Data    any
}

// FSOption configures an FS renderer.
type FSOption func(*FS)

// WithoutCache parses view files on every render. Use it in development.
func WithoutCache() FSOption {
	return func(v *FS) {
		v.loader = nil
	}
}

// WithCacheSize bounds how many parsed views are kept. Default: 1024.
func WithCacheSize(n int) FSOption {
	return func(v *FS) {
		if n > 0 {
			v.loader = cache.NewLoader[*page](cache.NewMemory[*page](cache.WithMaxEntries(n)))
		}
	}
}

// WithFuncs adds template functions to HTML and markdown views.
func WithFuncs(funcs template.FuncMap) FSOption {
	return func(v *FS) {
		for k, f := range funcs {
			v.funcs[k] = f
		}
	}
}

// WithPolicy replaces the bluemonday policy markdown output is sanitized with.
// Default: bluemonday.UGCPolicy.
func WithPolicy(p *bluemonday.Policy) FSOption {
	return func(v *FS) {
		if p != nil {
			v.policy = p
		}
	}
}

// WithMarkdown replaces the goldmark converter. Default: GFM enabled.
func WithMarkdown(md goldmark.Markdown) FSOption {
	return func(v *FS) {
		if md != nil {
			v.md = md
		}
	}
}

// FS renders views stored in a file system.
//
// The view "users/index" is users/index.html, executed with html/template,
// or users/index.md: a text/template body converted with goldmark and
// sanitized with bluemonday. A directory name renders every view inside it
// in lexical order.
type FS struct {
	fsys   fs.FS
	loader *cache.Loader[*page]
	funcs  template.FuncMap
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewFS creates a renderer over fsys.
//
//	//go:embed views
//	var views embed.FS
//
//	sub, _ := fs.Sub(views, "views")
//	relay.WithViews(view.NewFS(sub))
func NewFS(fsys fs.FS, opts ...FSOption) *FS {
	v := &FS{
		fsys:   fsys,
		loader: cache.NewLoader[*page](cache.NewMemory[*page](cache.WithMaxEntries(1024))),
		funcs:  template.FuncMap{},
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *FS) Render(ctx context.Context, w io.Writer, name string, data any) error {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return fmt.Errorf("%w: empty view name", ErrNotFound)
	}

	var buf bytes.Buffer
	if err := v.render(ctx, &buf, name, data, 0); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (v *FS) render(ctx context.Context, w *bytes.Buffer, name string, data any, depth int) error {
	if depth > maxLayoutDepth {
		return fmt.Errorf("%w: %s: layouts nested too deep", ErrRender, name)
	}
	if info, err := fs.Stat(v.fsys, name); err == nil && info.IsDir() {
		return v.renderDir(ctx, w, name, data, depth)
	}

	p, err := v.page(ctx, name)
	if err != nil {
		return err
	}

	if p.html != nil {
		if err := p.html.Execute(w, data); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRender, name, err)
		}
		return nil
	}

	var src bytes.Buffer
	if err := p.md.Execute(&src, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}
	var out bytes.Buffer
	if err := v.md.Convert(src.Bytes(), &out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}
	content := v.policy.SanitizeBytes(out.Bytes())

	if p.meta.Layout == "" {
		_, err := w.Write(content)
		return err
	}
	return v.render(ctx, w, p.meta.Layout, Markdown{
		Content: template.HTML(content), // sanitized above
		Meta:    p.meta,
		Data:    data,
	}, depth+1)
}

// renderDir concatenates the views of a directory. Files that are not views
// are skipped, and a stem with both an .html and a .md file renders once.
func (v *FS) renderDir(ctx context.Context, w *bytes.Buffer, dir string, data any, depth int) error {
	entries, err := fs.ReadDir(v.fsys, dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, dir, err)
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := e.Name()
		if ignoredFiles[name] {
			continue
		}
		if !e.IsDir() {
			ext := path.Ext(name)
			if ext != extHTML && ext != extMarkdown {
				continue
			}
			name = strings.TrimSuffix(name, ext)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		if err := v.render(ctx, w, path.Join(dir, name), data, depth); err != nil {
			return err
		}
	}
	return nil
}

func (v *FS) page(ctx context.Context, name string) (*page, error) {
	if v.loader == nil {
		return v.parse(name)
	}
	return v.loader.Get(ctx, name, func(context.Context) (*page, time.Duration, error) {
		p, err := v.parse(name)
		return p, -1, err
	})
}

func (v *FS) parse(name string) (*page, error) {
	if src, err := fs.ReadFile(v.fsys, name+extHTML); err == nil {
		tpl, err := template.New(name).Funcs(v.funcs).Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRender, name, err)
		}
		return &page{html: tpl}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}

	src, err := fs.ReadFile(v.fsys, name+extMarkdown)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}

	meta, body, err := splitFrontmatter(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tpl, err := texttemplate.New(name).Funcs(texttemplate.FuncMap(v.funcs)).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, name, err)
	}
	return &page{md: tpl, meta: meta}, nil
}

var _ Renderer = (*FS)(nil)
