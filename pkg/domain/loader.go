package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// requiredFiles lists the YAML files every domain must provide under
// config/domains/{domain_id}/. tools/schemas.yaml lives in a subdirectory.
var requiredFiles = []string{
	"domain.yaml", "slots.yaml", "goals.yaml", "stages.yaml", "segments.yaml",
	"entities.yaml", "competitors.yaml", "objections.yaml", "scoring.yaml",
	"features.yaml",
}

const toolsSchemaFile = "tools/schemas.yaml"

// Load reads every required YAML file under root/domains/{domainID}/ and
// assembles a validated MasterDomainConfig. Absence of domainID is the
// caller's responsibility to check (DOMAIN_ID is required; absence is
// fatal). Load itself only reports missing/malformed files.
func Load(root, domainID string) (*MasterDomainConfig, *ValidationReport, error) {
	dir := filepath.Join(root, "domains", domainID)

	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, nil, fmt.Errorf("domain %q: required file %s: %w", domainID, name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, toolsSchemaFile)); err != nil {
		return nil, nil, fmt.Errorf("domain %q: required file %s: %w", domainID, toolsSchemaFile, err)
	}

	cfg := &MasterDomainConfig{
		Slots:       make(map[string]SlotConfig),
		Goals:       make(map[string]GoalConfig),
		Stages:      make(map[string]StageConfig),
		Segments:    make(map[string]SegmentConfig),
		Features:    make(map[string]FeatureConfig),
		Competitors: make(map[string]CompetitorConfig),
		Objections:  make(map[string]ObjectionConfig),
	}

	if err := decodeFile(dir, "domain.yaml", &cfg.Meta); err != nil {
		return nil, nil, err
	}
	cfg.Meta.ID = domainID

	var slots struct {
		Slots []SlotConfig `yaml:"slots"`
	}
	if err := decodeFile(dir, "slots.yaml", &slots); err != nil {
		return nil, nil, err
	}
	for _, s := range slots.Slots {
		cfg.Slots[s.ID] = s
	}

	var goals struct {
		Goals []GoalConfig `yaml:"goals"`
	}
	if err := decodeFile(dir, "goals.yaml", &goals); err != nil {
		return nil, nil, err
	}
	for _, g := range goals.Goals {
		cfg.Goals[g.ID] = g
	}

	var stages struct {
		Stages []StageConfig `yaml:"stages"`
	}
	if err := decodeFile(dir, "stages.yaml", &stages); err != nil {
		return nil, nil, err
	}
	for _, s := range stages.Stages {
		cfg.Stages[s.ID] = s
	}

	var segments struct {
		Segments []SegmentConfig `yaml:"segments"`
	}
	if err := decodeFile(dir, "segments.yaml", &segments); err != nil {
		return nil, nil, err
	}
	for _, s := range segments.Segments {
		cfg.Segments[s.ID] = s
	}

	// entities.yaml may add further segments (customer-entity profiles),
	// merged on top of segments.yaml.
	var entities struct {
		Segments []SegmentConfig `yaml:"segments"`
	}
	if err := decodeFile(dir, "entities.yaml", &entities); err != nil {
		return nil, nil, err
	}
	for _, s := range entities.Segments {
		cfg.Segments[s.ID] = s
	}

	var features struct {
		Features []FeatureConfig `yaml:"features"`
	}
	if err := decodeFile(dir, "features.yaml", &features); err != nil {
		return nil, nil, err
	}
	for _, f := range features.Features {
		cfg.Features[f.ID] = f
	}

	var competitors struct {
		Competitors []CompetitorConfig `yaml:"competitors"`
	}
	if err := decodeFile(dir, "competitors.yaml", &competitors); err != nil {
		return nil, nil, err
	}
	for _, c := range competitors.Competitors {
		cfg.Competitors[c.ID] = c
	}

	var objections struct {
		Objections []ObjectionConfig `yaml:"objections"`
	}
	if err := decodeFile(dir, "objections.yaml", &objections); err != nil {
		return nil, nil, err
	}
	for _, o := range objections.Objections {
		cfg.Objections[o.ID] = o
	}

	if err := decodeFile(dir, "scoring.yaml", &cfg.Scoring); err != nil {
		return nil, nil, err
	}
	if err := decodeFile(dir, toolsSchemaFile, &cfg.Tools); err != nil {
		return nil, nil, err
	}

	report := Validate(cfg)
	if report.HasCriticals() {
		return cfg, report, fmt.Errorf("domain %q: %d critical validation failure(s): %w", domainID, len(report.Criticals), report)
	}
	return cfg, report, nil
}

func decodeFile(dir, name string, out interface{}) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("domain: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("domain: parse %s: %w", name, err)
	}
	return nil
}
