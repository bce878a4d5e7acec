package view

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var fence = []byte("---")

// Meta is the YAML frontmatter of a markdown view. Layout names an HTML
// view that receives the rendered markdown as .Content.
type Meta struct {
	Title  string         `yaml:"title"`
	Layout string         `yaml:"layout"`
	Extra  map[string]any `yaml:",inline"`
}

// splitFrontmatter separates a leading "---" fenced YAML block from the body.
// Content without a leading fence is all body.
func splitFrontmatter(content []byte) (Meta, []byte, error) {
	var meta Meta
	if !bytes.HasPrefix(content, fence) {
		return meta, content, nil
	}

	rest := bytes.TrimLeft(content[len(fence):], "\r\n")
	end := bytes.Index(rest, fence)
	if end == -1 {
		return meta, nil, fmt.Errorf("%w: closing --- not found", ErrFrontmatter)
	}

	if head := bytes.TrimSpace(rest[:end]); len(head) > 0 {
		if err := yaml.Unmarshal(head, &meta); err != nil {
			return meta, nil, fmt.Errorf("%w: %v", ErrFrontmatter, err)
		}
	}

	body := rest[end+len(fence):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	return meta, body, nil
}
