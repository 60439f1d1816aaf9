// Package catalog indexes static level content so attempts can be traced back to
// the game mode, difficulty and level that own them.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"quiz-progress-service/internal/domain"
)

//go:embed default_content.yaml
var defaultContent []byte

// Content is the seeded level table: mode → difficulty → levels.
type Content struct {
	Modes []ModeContent `yaml:"modes" validate:"required,min=1,dive"`
}

// ModeContent lists the levels of one game mode. Prefix is the string form used
// by prefixed quiz identifiers (e.g. "n-" for "n-5").
type ModeContent struct {
	Name         domain.GameMode                       `yaml:"name" validate:"required"`
	Prefix       string                                `yaml:"prefix" validate:"required,excludesall=0123456789"`
	Difficulties map[domain.Difficulty][]LevelContent `yaml:"difficulties" validate:"required,dive,keys,oneof=easy medium hard,endkeys,dive"`
}

// LevelContent is a single level entry; ID is unique within its mode.
type LevelContent struct {
	ID    int    `yaml:"id" validate:"gte=1"`
	Title string `yaml:"title" validate:"required"`
}

var validate = validator.New()

// ParseContent decodes and validates YAML content.
func ParseContent(data []byte) (Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("decode content: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return Content{}, fmt.Errorf("validate content: %w", err)
	}
	return c, nil
}

// LoadContent reads content from path, or the embedded default when path is empty.
func LoadContent(path string) (Content, error) {
	if path == "" {
		return DefaultContent()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read content: %w", err)
	}
	return ParseContent(data)
}

// DefaultContent returns the catalog shipped with the binary.
func DefaultContent() (Content, error) {
	return ParseContent(defaultContent)
}
