// Package evaluation scores recorded agent traces against a case: a list of
// checkpoint criteria worth points, evaluated either as jq assertions over
// the trace JSON or by an LLM judge, plus an optional ground truth answer
// checked against the final output.
package evaluation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Checkpoint is one scored criterion. Criteria starting with "jq:" are
// evaluated directly against the trace JSON; anything else is free-form text
// handed to the judge model.
type Checkpoint struct {
	Criteria string `yaml:"criteria" json:"criteria"`
	Points   int    `yaml:"points" json:"points"`
}

// Case describes how to score one agent run.
type Case struct {
	// LLMJudge is the model id used for free-form criteria, e.g. "gpt-4o".
	LLMJudge string `yaml:"llm_judge,omitempty" json:"llm_judge,omitempty"`

	Checkpoints []Checkpoint `yaml:"checkpoints,omitempty" json:"checkpoints,omitempty"`

	// GroundTruth, when set, is compared against the trace final output.
	GroundTruth string `yaml:"ground_truth,omitempty" json:"ground_truth,omitempty"`

	// GroundTruthPoints is the weight of the ground truth check, default 1.
	GroundTruthPoints int `yaml:"ground_truth_points,omitempty" json:"ground_truth_points,omitempty"`
}

// LoadCase reads a case from a YAML file.
func LoadCase(path string) (Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Case{}, fmt.Errorf("reading case file: %w", err)
	}
	return ParseCase(data)
}

// ParseCase decodes YAML and applies defaults. Checkpoints without points
// are worth one point.
func ParseCase(data []byte) (Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Case{}, fmt.Errorf("parsing case: %w", err)
	}
	for i := range c.Checkpoints {
		if c.Checkpoints[i].Points == 0 {
			c.Checkpoints[i].Points = 1
		}
	}
	if c.GroundTruth != "" && c.GroundTruthPoints == 0 {
		c.GroundTruthPoints = 1
	}
	if err := c.Validate(); err != nil {
		return Case{}, err
	}
	return c, nil
}

// Validate checks the case is scorable.
func (c Case) Validate() error {
	for i, cp := range c.Checkpoints {
		if cp.Criteria == "" {
			return fmt.Errorf("checkpoint %d has no criteria", i)
		}
		if cp.Points < 0 {
			return fmt.Errorf("checkpoint %d has negative points", i)
		}
	}
	if c.GroundTruthPoints < 0 {
		return fmt.Errorf("ground truth points must be non-negative")
	}
	return nil
}
