// Package catalog provides read-only lookups of issues, code artifacts and
// contributor profiles.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/gitstart/internal/domain/model"
)

// Catalog resolves entities by ID. Missing issues and artifacts return
// model.ErrNotFound; missing profiles return model.ErrProfileNotFound.
type Catalog interface {
	Issue(ctx context.Context, id string) (model.IssueText, error)
	Issues(ctx context.Context) ([]model.IssueText, error)
	Artifact(ctx context.Context, id string) (model.CodeArtifact, error)
	Profile(ctx context.Context, id string) (model.ContributorProfile, error)
}

// file is the on-disk layout.
type file struct {
	Issues    []model.IssueText          `yaml:"issues"`
	Artifacts []model.CodeArtifact       `yaml:"artifacts"`
	Profiles  []model.ContributorProfile `yaml:"profiles"`
}

// YAMLCatalog is an in-memory catalog loaded from YAML. It is immutable after
// loading and safe for concurrent use.
type YAMLCatalog struct {
	issues    map[string]model.IssueText
	order     []string
	artifacts map[string]model.CodeArtifact
	profiles  map[string]model.ContributorProfile
}

// Empty returns a catalog with no entries.
func Empty() *YAMLCatalog {
	return &YAMLCatalog{
		issues:    map[string]model.IssueText{},
		artifacts: map[string]model.CodeArtifact{},
		profiles:  map[string]model.ContributorProfile{},
	}
}

// Load reads a catalog file.
func Load(path string) (*YAMLCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadCatalog, path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a catalog from r. Unknown fields and duplicate IDs are errors.
func Parse(r io.Reader) (*YAMLCatalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &YAMLCatalog{
		issues:    make(map[string]model.IssueText, len(f.Issues)),
		artifacts: make(map[string]model.CodeArtifact, len(f.Artifacts)),
		profiles:  make(map[string]model.ContributorProfile, len(f.Profiles)),
	}
	for _, is := range f.Issues {
		if is.ID == "" {
			return nil, fmt.Errorf("%w: issue without id", ErrInvalidCatalog)
		}
		if _, dup := c.issues[is.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate issue %q", ErrInvalidCatalog, is.ID)
		}
		c.issues[is.ID] = is
		c.order = append(c.order, is.ID)
	}
	for _, a := range f.Artifacts {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: artifact without id", ErrInvalidCatalog)
		}
		if _, dup := c.artifacts[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate artifact %q", ErrInvalidCatalog, a.ID)
		}
		c.artifacts[a.ID] = a
	}
	for _, p := range f.Profiles {
		if err := validateProfile(p); err != nil {
			return nil, err
		}
		if _, dup := c.profiles[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrInvalidCatalog, p.ID)
		}
		c.profiles[p.ID] = p
	}
	return c, nil
}

func validateProfile(p model.ContributorProfile) error {
	if p.ID == "" {
		return fmt.Errorf("%w: profile without id", ErrInvalidCatalog)
	}
	langs := make([]string, 0, len(p.Proficiency))
	for l := range p.Proficiency {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		if v := p.Proficiency[l]; v < 0 || v > 1 {
			return fmt.Errorf("%w: profile %q: proficiency for %q out of range: %v", ErrInvalidCatalog, p.ID, l, v)
		}
	}
	for _, d := range p.CompletedDifficulties {
		if d < 0 || d > 1 {
			return fmt.Errorf("%w: profile %q: completed difficulty out of range: %v", ErrInvalidCatalog, p.ID, d)
		}
	}
	return nil
}

// Issue returns the issue with id.
func (c *YAMLCatalog) Issue(_ context.Context, id string) (model.IssueText, error) {
	is, ok := c.issues[id]
	if !ok {
		return model.IssueText{}, model.WrapKind("catalog.issue", model.ErrNotFound, fmt.Errorf("issue %q", id))
	}
	return is, nil
}

// Issues returns every issue in file order.
func (c *YAMLCatalog) Issues(_ context.Context) ([]model.IssueText, error) {
	out := make([]model.IssueText, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.issues[id])
	}
	return out, nil
}

// Artifact returns the code artifact with id.
func (c *YAMLCatalog) Artifact(_ context.Context, id string) (model.CodeArtifact, error) {
	a, ok := c.artifacts[id]
	if !ok {
		return model.CodeArtifact{}, model.WrapKind("catalog.artifact", model.ErrNotFound, fmt.Errorf("artifact %q", id))
	}
	return a, nil
}

// Profile returns the contributor profile with id.
func (c *YAMLCatalog) Profile(_ context.Context, id string) (model.ContributorProfile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return model.ContributorProfile{}, model.WrapKind("catalog.profile", model.ErrProfileNotFound, fmt.Errorf("profile %q", id))
	}
	return p, nil
}
