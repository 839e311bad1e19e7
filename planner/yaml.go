package planner

import (
	"errors"

	"gopkg.in/yaml.v2"

	"github.com/rakutentech/fleetbench/model"
)

type stagePlanFile struct {
	LoadTest struct {
		Name   string                 `yaml:"name"`
		Stages []*model.LoadTestStage `yaml:"stages"`
	} `yaml:"load-test"`
}

var ErrNoStages = errors.New("stage plan has no stages")

// LoadStagesYAML parses an uploaded stage plan. Stage positions follow the
// order in the file.
func LoadStagesYAML(raw []byte) (string, []*model.LoadTestStage, error) {
	f := new(stagePlanFile)
	if err := yaml.Unmarshal(raw, f); err != nil {
		return "", nil, err
	}
	if len(f.LoadTest.Stages) == 0 {
		return "", nil, ErrNoStages
	}
	for i, s := range f.LoadTest.Stages {
		if s == nil {
			return "", nil, ErrNoStages
		}
		s.Position = i
	}
	if err := ValidateStages(f.LoadTest.Stages); err != nil {
		return "", nil, err
	}
	return f.LoadTest.Name, f.LoadTest.Stages, nil
}
