package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adalundhe/weft/core/semver"
)

// =============================================================================
// JSON skill packages
// =============================================================================

// PackageMetadata is the metadata block of a JSON skill package file.
type PackageMetadata struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Version      string   `json:"version"`
	Author       string   `json:"author,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Package is a complete JSON skill package: metadata plus the instruction
// payload the engine itself never interprets.
type Package struct {
	Metadata     PackageMetadata `json:"metadata"`
	Instructions string          `json:"instructions"`
	Scripts      []string        `json:"scripts,omitempty"`
}

// ParsePackage decodes a JSON skill package and builds its record. The
// version and every dependency requirement are validated; malformed input
// fails the whole package.
func ParsePackage(data []byte) (*SkillRecord, error) {
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return pkg.Record()
}

// LoadPackage reads and parses a JSON skill package file.
func LoadPackage(path string) (*SkillRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package %s: %w", path, err)
	}
	record, err := ParsePackage(data)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", path, err)
	}
	return record, nil
}

// Record builds the validated SkillRecord for the package.
func (p *Package) Record() (*SkillRecord, error) {
	version, err := semver.Parse(p.Metadata.Version)
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, 0, len(p.Metadata.Dependencies))
	for _, raw := range p.Metadata.Dependencies {
		dep, err := ParseDependency(raw)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	record := &SkillRecord{
		ID:           p.Metadata.ID,
		Name:         p.Metadata.Name,
		Description:  p.Metadata.Description,
		Author:       p.Metadata.Author,
		Version:      version,
		Tags:         append([]string(nil), p.Metadata.Tags...),
		Dependencies: deps,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}
