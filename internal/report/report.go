// Package report renders a critique as YAML for the command line.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/nanophoto/nanophoto/internal/judgement"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration section of the report YAML
type Config struct {
	Model       string   `yaml:"model"`
	Mode        string   `yaml:"mode"`
	Constraints []string `yaml:"constraints,omitempty"`
	AspectRatio string   `yaml:"aspectratio,omitempty"`
	Timestamp   string   `yaml:"timestamp"`
}

type metricEntry struct {
	Score  string `yaml:"score"`
	Reason string `yaml:"reason"`
}

type issueEntry struct {
	Issue          string `yaml:"issue"`
	LocationType   string `yaml:"locationtype"`
	Location       string `yaml:"location"`
	VisualGuidance string `yaml:"visualguidance"`
	Sketch         string `yaml:"sketch,omitempty"`
}

// Report represents the complete critique report
type Report struct {
	Config            Config                              `yaml:"config"`
	ImageTitle        string                              `yaml:"imagetitle"`
	VisualDescription string                              `yaml:"visualdescription"`
	Scores            []map[string]map[string]metricEntry `yaml:"scores"`
	ActionableIssues  []issueEntry                        `yaml:"actionableissues,omitempty"`
	Verdict           string                              `yaml:"verdict"`
}

// Build assembles a report from a critique. sketchPaths holds the filename
// written for each issue's sketch, index-aligned with the issues; an empty
// entry means no sketch was produced for that issue.
func Build(cfg Config, j *judgement.Judgement, sketchPaths []string) Report {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	rep := Report{
		Config:            cfg,
		ImageTitle:        j.ImageTitle,
		VisualDescription: j.VisualDescription,
		Verdict:           j.Verdict,
	}

	for _, cat := range j.Scores.Ordered() {
		metrics := make(map[string]metricEntry, len(cat.Metrics))
		for _, m := range cat.Metrics {
			metrics[m.Name] = metricEntry{Score: string(m.Score.Score), Reason: m.Score.Reason}
		}
		rep.Scores = append(rep.Scores, map[string]map[string]metricEntry{cat.Name: metrics})
	}

	for i, issue := range j.ActionableIssues {
		entry := issueEntry{
			Issue:          issue.Issue,
			LocationType:   string(issue.Location.Type),
			Location:       issue.Location.Detail(),
			VisualGuidance: issue.VisualGuidance,
		}
		if i < len(sketchPaths) {
			entry.Sketch = sketchPaths[i]
		}
		rep.ActionableIssues = append(rep.ActionableIssues, entry)
	}

	return rep
}

// Write marshals the report as YAML to w.
func Write(w io.Writer, rep Report) error {
	data, err := yaml.Marshal(&rep)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
