package view_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/view"
)

func render(t *testing.T, r view.Renderer, name string, data any) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := r.Render(context.Background(), &buf, name, data)
	return buf.String(), err
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"hello.html":           {Data: []byte(`<p>Hello {{.}}</p>`)},
		"~about.md":            {Data: []byte("# About {{.Name}}\n\n<script>alert(1)</script>")},
		"post.md":              {Data: []byte("---\ntitle: First post\nlayout: layouts/page\nauthor: ann\n---\nBody text")},
		"layouts/page.html":    {Data: []byte(`<title>{{.Meta.Title}}</title><main>{{.Content}}</main>{{index .Meta.Extra "author"}}`)},
		"broken.md":            {Data: []byte("---\ntitle: never closed\n")},
		"partials/a.html":      {Data: []byte("A")},
		"partials/b.md":        {Data: []byte("B")},
		"partials/b.html":      {Data: []byte("b")},
		"partials/.DS_Store":   {Data: []byte("junk")},
		"partials/Thumbs.db":   {Data: []byte("junk")},
		"partials/readme.txt":  {Data: []byte("not a view")},
		"partials/nested/c.md": {Data: []byte("C")},
		"loop.md":              {Data: []byte("---\nlayout: loop\n---\nx")},
	}
}

func TestFS(t *testing.T) {
	t.Parallel()

	v := view.NewFS(testFS())

	t.Run("html template", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "hello", "<world>")
		require.NoError(t, err)
		require.Equal(t, "<p>Hello &lt;world&gt;</p>", out)
	})

	t.Run("leading slash and dot segments", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "/partials/../hello", "x")
		require.NoError(t, err)
		require.Equal(t, "<p>Hello x</p>", out)
	})

	t.Run("markdown is converted and sanitized", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "~about", map[string]string{"Name": "relay"})
		require.NoError(t, err)
		require.Contains(t, out, "<h1")
		require.Contains(t, out, "About relay</h1>")
		require.NotContains(t, out, "<script>")
	})

	t.Run("frontmatter layout", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "post", nil)
		require.NoError(t, err)
		require.Equal(t, "<title>First post</title><main><p>Body text</p>\n</main>ann", out)
	})

	t.Run("invalid frontmatter", func(t *testing.T) {
		t.Parallel()
		_, err := render(t, v, "broken", nil)
		require.ErrorIs(t, err, view.ErrFrontmatter)
	})

	t.Run("layout cycle", func(t *testing.T) {
		t.Parallel()
		_, err := render(t, v, "loop", nil)
		require.ErrorIs(t, err, view.ErrRender)
	})

	t.Run("directory renders views in order", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "partials", nil)
		require.NoError(t, err)
		require.Equal(t, "Ab<p>C</p>\n", out)
	})

	t.Run("missing view", func(t *testing.T) {
		t.Parallel()
		out, err := render(t, v, "~missing", nil)
		require.True(t, view.IsNotFound(err))
		require.Empty(t, out)

		_, err = render(t, v, "/", nil)
		require.ErrorIs(t, err, view.ErrNotFound)
	})
}

func TestFS_Cache(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"page.html": {Data: []byte("v1")}}

	cached := view.NewFS(fsys)
	uncached := view.NewFS(fsys, view.WithoutCache())

	out, err := render(t, cached, "page", nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	fsys["page.html"] = &fstest.MapFile{Data: []byte("v2")}

	out, err = render(t, cached, "page", nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	out, err = render(t, uncached, "page", nil)
	require.NoError(t, err)
	require.Equal(t, "v2", out)
}

func TestFS_Funcs(t *testing.T) {
	t.Parallel()

	v := view.NewFS(fstest.MapFS{
		"shout.html": {Data: []byte(`{{upper .}}`)},
		"shout2.md":  {Data: []byte(`{{upper .}}`)},
	}, view.WithFuncs(map[string]any{"upper": strings.ToUpper}))

	out, err := render(t, v, "shout", "hi")
	require.NoError(t, err)
	require.Equal(t, "HI", out)

	out, err = render(t, v, "shout2", "hi")
	require.NoError(t, err)
	require.Equal(t, "<p>HI</p>\n", out)
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func TestComponents(t *testing.T) {
	t.Parallel()

	comps := view.Components{"~home": text("home")}
	out, err := render(t, comps, "~home", nil)
	require.NoError(t, err)
	require.Equal(t, "home", out)

	_, err = render(t, comps, "~other", nil)
	require.ErrorIs(t, err, view.ErrNotFound)

	failing := view.Components{"bad": templ.ComponentFunc(func(context.Context, io.Writer) error {
		return errors.New("boom")
	})}
	_, err = render(t, failing, "bad", nil)
	require.ErrorIs(t, err, view.ErrRender)
}

func TestFactories(t *testing.T) {
	t.Parallel()

	f := view.Factories{"greet": func(data any) templ.Component {
		return text("hi " + data.(string))
	}}
	out, err := render(t, f, "greet", "ann")
	require.NoError(t, err)
	require.Equal(t, "hi ann", out)
}

func TestChain(t *testing.T) {
	t.Parallel()

	chain := view.Chain{
		nil,
		view.Components{"~home": text("component")},
		view.NewFS(fstest.MapFS{
			"~home.html":  {Data: []byte("file")},
			"~about.html": {Data: []byte("about")},
			"bad.html":    {Data: []byte("{{.Missing.Field}}")},
		}),
	}

	out, err := render(t, chain, "~home", nil)
	require.NoError(t, err)
	require.Equal(t, "component", out)

	out, err = render(t, chain, "~about", nil)
	require.NoError(t, err)
	require.Equal(t, "about", out)

	_, err = render(t, chain, "~nope", nil)
	require.ErrorIs(t, err, view.ErrNotFound)

	_, err = render(t, chain, "bad", 42)
	require.ErrorIs(t, err, view.ErrRender)
}
