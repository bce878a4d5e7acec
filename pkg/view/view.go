package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Renderer renders the view called name. It returns an error wrapping
// ErrNotFound when it has no such view, and must not write anything to w
// in that case.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, name string, data any) error
}

// Chain asks each renderer in turn; the first one that knows the view wins.
type Chain []Renderer

func (c Chain) Render(ctx context.Context, w io.Writer, name string, data any) error {
	for _, r := range c {
		if r == nil {
			continue
		}
		err := r.Render(ctx, w, name, data)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Components serves compiled templ components by name. Data is ignored;
// use Factories for components built from the view data.
type Components map[string]templ.Component

func (c Components) Render(ctx context.Context, w io.Writer, name string, _ any) error {
	comp, ok := c[name]
	if !ok || comp == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return renderComponent(ctx, w, comp)
}

// Factories builds a templ component from the view data on every render.
//
//	view.Factories{
//	    "~about": func(data any) templ.Component { return pages.About(data.(relay.Info)) },
//	}
type Factories map[string]func(data any) templ.Component

func (f Factories) Render(ctx context.Context, w io.Writer, name string, data any) error {
	build, ok := f[name]
	if !ok || build == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return renderComponent(ctx, w, build(data))
}

func renderComponent(ctx context.Context, w io.Writer, comp templ.Component) error {
	var buf bytes.Buffer
	if err := comp.Render(ctx, &buf); err != nil {
		return errors.Join(ErrRender, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
