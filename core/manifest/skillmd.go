package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/weft/core/semver"
)

// =============================================================================
// SKILL.md frontmatter
// =============================================================================

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Version      string   `yaml:"version"`
	Author       string   `yaml:"author,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

// ParseFrontmatter extracts the YAML frontmatter and markdown body from
// SKILL.md content.
func ParseFrontmatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, "---") {
		return nil, "", ErrParseFailed
	}

	parts := strings.SplitN(content[3:], "---", 2)
	if len(parts) < 2 {
		return nil, "", ErrParseFailed
	}

	var metadata map[string]any
	if err := yaml.Unmarshal([]byte(parts[0]), &metadata); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return metadata, strings.TrimSpace(parts[1]), nil
}

// ParseSkillMD builds a record from SKILL.md content. The skill id is the
// frontmatter name; a missing version defaults to 0.1.0 since SKILL.md
// authors rarely version, but a present version must parse.
func ParseSkillMD(content string) (*SkillRecord, error) {
	if !strings.HasPrefix(content, "---") {
		return nil, ErrParseFailed
	}
	parts := strings.SplitN(content[3:], "---", 2)
	if len(parts) < 2 {
		return nil, ErrParseFailed
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[0]), &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	versionStr := strings.TrimSpace(fm.Version)
	if versionStr == "" {
		versionStr = "0.1.0"
	}
	version, err := semver.Parse(versionStr)
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, 0, len(fm.Dependencies))
	for _, raw := range fm.Dependencies {
		dep, err := ParseDependency(raw)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	name := strings.TrimSpace(fm.Name)
	record := &SkillRecord{
		ID:           name,
		Name:         name,
		Description:  strings.TrimSpace(fm.Description),
		Author:       strings.TrimSpace(fm.Author),
		Version:      version,
		Tags:         append([]string(nil), fm.Tags...),
		Dependencies: deps,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// ReadSkillMD reads a skill directory's SKILL.md and enforces the
// name-matches-directory rule.
func ReadSkillMD(skillDir string) (*SkillRecord, error) {
	path, err := findSkillMD(skillDir)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SKILL.md: %w", err)
	}

	record, err := ParseSkillMD(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if record.Name != filepath.Base(skillDir) {
		return nil, ErrNameMismatch
	}
	return record, nil
}

func findSkillMD(skillDir string) (string, error) {
	for _, name := range []string{"SKILL.md", "skill.md"} {
		path := filepath.Join(skillDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrSkillNotFound
}

// =============================================================================
// Discovery
// =============================================================================

// Discover scans a directory for skills: subdirectories carrying SKILL.md
// and top-level *.json package files. Entries that fail to parse are
// logged and skipped so one broken package cannot hide the rest. A nil
// logger falls back to slog.Default.
func Discover(dir string, logger *slog.Logger) ([]*SkillRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read skills dir: %w", err)
	}

	var records []*SkillRecord
	seen := make(map[string]struct{})
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		var record *SkillRecord
		var err error
		switch {
		case entry.IsDir():
			record, err = ReadSkillMD(path)
		case strings.HasSuffix(entry.Name(), ".json"):
			record, err = LoadPackage(path)
		default:
			continue
		}
		if err != nil {
			logger.Warn("skipping unparseable skill package",
				"path", path, "error", err)
			continue
		}
		if _, dup := seen[record.ID]; dup {
			logger.Debug("skipping duplicate skill id",
				"path", path, "skill", record.ID)
			continue
		}
		seen[record.ID] = struct{}{}
		records = append(records, record)
	}
	return records, nil
}
