// Package file loads a quiz catalog from a YAML or JSON document.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-subgraphs/internal/domain"
)

// CatalogLoader reads quizzes from path on every load. The document is
// either a plain list of quizzes or a mapping with a top-level quizzes key.
// JSON is accepted as YAML.
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

func (l *CatalogLoader) LoadQuizzes(_ context.Context) ([]domain.Quiz, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	quizzes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}
	return quizzes, nil
}

// Parse decodes a catalog document.
func Parse(data []byte) ([]domain.Quiz, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty catalog: %w", domain.ErrInvalidInput)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty catalog: %w", domain.ErrInvalidInput)
	}

	var quizzes []domain.Quiz
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&quizzes); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var doc struct {
			Quizzes []domain.Quiz `yaml:"quizzes"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, err
		}
		quizzes = doc.Quizzes
	default:
		return nil, fmt.Errorf("catalog must be a list or a mapping: %w", domain.ErrInvalidInput)
	}

	for i := range quizzes {
		quizzes[i].CurrentQuestionIndex = domain.NotStarted
	}
	return quizzes, nil
}
