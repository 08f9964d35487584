package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/migratory/internal/errors"
)

// Load reads and validates a plan file. The format follows the extension:
// .json is parsed as JSON, anything else as YAML.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewPlanNotFoundError(path)
		}
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	p, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes plan bytes in the format implied by ext and validates the
// result.
func Parse(data []byte, ext string) (*Plan, error) {
	var p Plan
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.NewPlanInvalidError(fmt.Sprintf("unmarshal plan: %v", err))
		}
	} else {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, errors.NewPlanInvalidError(fmt.Sprintf("unmarshal plan: %v", err))
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes a plan to path, choosing the format by extension the same way
// Load does.
func Save(p *Plan, path string) error {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(p, "", "  ")
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	return nil
}

// Hash computes the blake3 identity of a plan over its canonical JSON form.
// Phases are hashed in execution order, so reordering the file without
// changing execution semantics keeps the hash stable.
func Hash(p *Plan) (string, error) {
	canonical := Plan{Name: p.Name, Phases: p.SortedPhases()}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("canonicalize plan: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(data); err != nil {
		return "", fmt.Errorf("hash plan: %w", err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
