package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PipelineConfig tunes the generation pipeline. Values map onto the prompt
// instructions and concurrency limits; zero fields fall back to defaults.
type PipelineConfig struct {
	MinParts           int `yaml:"min_parts"`
	MaxParts           int `yaml:"max_parts"`
	MinLessonsPerPart  int `yaml:"min_lessons_per_part"`
	MaxLessonsPerPart  int `yaml:"max_lessons_per_part"`
	ContentConcurrency int `yaml:"content_concurrency"`
	MaxStageExecutions int `yaml:"max_stage_executions"`
	QuizQuestions      int `yaml:"quiz_questions_per_lesson"`
	QuizOptions        int `yaml:"quiz_options_per_question"`
}

func Default() PipelineConfig {
	return PipelineConfig{
		MinParts:           1,
		MaxParts:           5,
		MinLessonsPerPart:  1,
		MaxLessonsPerPart:  5,
		ContentConcurrency: 4,
		MaxStageExecutions: 10,
		QuizQuestions:      3,
		QuizOptions:        4,
	}
}

// Load reads a YAML config file and overlays it on the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (PipelineConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read pipeline config: %w", err)
	}
	var overlay PipelineConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return cfg, fmt.Errorf("parse pipeline config: %w", err)
	}
	cfg.apply(overlay)
	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c *PipelineConfig) apply(o PipelineConfig) {
	if o.MinParts > 0 {
		c.MinParts = o.MinParts
	}
	if o.MaxParts > 0 {
		c.MaxParts = o.MaxParts
	}
	if o.MinLessonsPerPart > 0 {
		c.MinLessonsPerPart = o.MinLessonsPerPart
	}
	if o.MaxLessonsPerPart > 0 {
		c.MaxLessonsPerPart = o.MaxLessonsPerPart
	}
	if o.ContentConcurrency > 0 {
		c.ContentConcurrency = o.ContentConcurrency
	}
	if o.MaxStageExecutions > 0 {
		c.MaxStageExecutions = o.MaxStageExecutions
	}
	if o.QuizQuestions > 0 {
		c.QuizQuestions = o.QuizQuestions
	}
	if o.QuizOptions > 0 {
		c.QuizOptions = o.QuizOptions
	}
}

func (c PipelineConfig) validate() error {
	if c.MaxParts < c.MinParts {
		return fmt.Errorf("pipeline config: max_parts %d < min_parts %d", c.MaxParts, c.MinParts)
	}
	if c.MaxLessonsPerPart < c.MinLessonsPerPart {
		return fmt.Errorf("pipeline config: max_lessons_per_part %d < min_lessons_per_part %d", c.MaxLessonsPerPart, c.MinLessonsPerPart)
	}
	if c.QuizOptions < 2 {
		return fmt.Errorf("pipeline config: quiz_options_per_question must be at least 2")
	}
	return nil
}
