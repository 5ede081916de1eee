package trust

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/policy.yaml
var policyFiles embed.FS

// Policy is the externally supplied trust configuration: which hosts and
// path prefixes count as first-party documentation, which hosts serve
// embeddable video, and which raw-content repositories may ship interactive
// tutorials. Nothing in a policy is ever derived from parsed HTML.
type Policy struct {
	Docs          DocsPolicy       `yaml:"docs"`
	Video         VideoPolicy      `yaml:"video"`
	RawContent    RawContentPolicy `yaml:"raw_content"`
	BundledPrefix string           `yaml:"bundled_prefix"`
}

// DocsPolicy identifies first-party documentation URLs. Hosts are matched
// exactly, never by suffix.
type DocsPolicy struct {
	Hosts        []string `yaml:"hosts"`
	PathPrefixes []string `yaml:"path_prefixes"`
	PathContains []string `yaml:"path_contains"`
}

// VideoPolicy lists hosts whose embeds survive sanitization as video.
type VideoPolicy struct {
	Hosts []string `yaml:"hosts"`
}

// RawContentPolicy pins the raw-content host and the repository path
// prefixes allowed to serve interactive tutorials. Each prefix identifies
// exactly one repository.
type RawContentPolicy struct {
	Host         string   `yaml:"host"`
	Repositories []string `yaml:"repositories"`
}

// LoadPolicy returns the embedded default policy.
func LoadPolicy() (*Policy, error) {
	data, err := policyFiles.ReadFile("config/policy.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded trust policy: %w", err)
	}
	return parsePolicy(data)
}

// LoadPolicyFile loads a policy override from disk. Fields left empty in the
// override keep their embedded defaults.
func LoadPolicyFile(path string) (*Policy, error) {
	base, err := LoadPolicy()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trust policy %s: %w", path, err)
	}

	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("unmarshal trust policy %s: %w", path, err)
	}

	base.merge(&override)
	return base, nil
}

func parsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal trust policy: %w", err)
	}
	if len(p.Docs.Hosts) == 0 {
		return nil, fmt.Errorf("trust policy declares no documentation hosts")
	}
	if p.RawContent.Host == "" {
		return nil, fmt.Errorf("trust policy declares no raw-content host")
	}
	if p.BundledPrefix == "" {
		p.BundledPrefix = "bundled:"
	}
	return &p, nil
}

func (p *Policy) merge(override *Policy) {
	if len(override.Docs.Hosts) > 0 {
		p.Docs.Hosts = override.Docs.Hosts
	}
	if len(override.Docs.PathPrefixes) > 0 {
		p.Docs.PathPrefixes = override.Docs.PathPrefixes
	}
	if len(override.Docs.PathContains) > 0 {
		p.Docs.PathContains = override.Docs.PathContains
	}
	if len(override.Video.Hosts) > 0 {
		p.Video.Hosts = override.Video.Hosts
	}
	if override.RawContent.Host != "" {
		p.RawContent.Host = override.RawContent.Host
	}
	if len(override.RawContent.Repositories) > 0 {
		p.RawContent.Repositories = override.RawContent.Repositories
	}
	if override.BundledPrefix != "" {
		p.BundledPrefix = override.BundledPrefix
	}
}
