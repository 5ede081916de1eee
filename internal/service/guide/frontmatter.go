package guide

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// guideFrontmatter is the YAML header an imported markdown file may carry.
//
//	---
//	title: Getting Started
//	slug: getting-started
//	source_url: https://grafana.com/docs/grafana/latest/
//	---
type guideFrontmatter struct {
	Title     string `yaml:"title"`
	Slug      string `yaml:"slug"`
	SourceURL string `yaml:"source_url"`
}

// parseFrontmatter splits an optional YAML frontmatter header from the body.
// Files without a header return a zero frontmatter and the full content; a
// header that opens but never closes, or fails to parse, is an error.
func parseFrontmatter(content []byte) (guideFrontmatter, string, error) {
	var fm guideFrontmatter

	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return fm, string(content), nil
	}

	lines := bytes.Split(content, []byte("\n"))
	closing := 0
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closing = i
			break
		}
	}
	if closing == 0 {
		return fm, "", fmt.Errorf("frontmatter opened with '---' but never closed")
	}

	header := bytes.Join(lines[1:closing], []byte("\n"))
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	body := bytes.Join(lines[closing+1:], []byte("\n"))
	return fm, string(body), nil
}
