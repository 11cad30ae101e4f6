package entity

import "github.com/joseph-ayodele/kg-pipeline/constants"

// Concept is a mathematical idea taught in the curriculum.
type Concept struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	GradeLevels   []constants.GradeLevel `json:"grade_levels"`
	CPAStage      constants.CPAStage     `json:"cpa_stage"`
	Keywords      []string               `json:"keywords,omitempty"`
	Prerequisites []string               `json:"prerequisites,omitempty"` // concept IDs
}

// Strategy is a problem-solving method such as the bar model.
type Strategy struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	CPAStage           constants.CPAStage `json:"cpa_stage"`
	ApplicableConcepts []string           `json:"applicable_concepts,omitempty"` // concept IDs
	VisualizationURL   string             `json:"visualization_url,omitempty"`
	Steps              []string           `json:"steps,omitempty"`
}

// Problem is a worked or practice question found in a document.
type Problem struct {
	ID                   string               `json:"id"`
	SourceFile           string               `json:"source_file"`
	QuestionText         string               `json:"question_text"`
	QuestionLaTeX        string               `json:"question_latex,omitempty"`
	SolutionText         string               `json:"solution_text,omitempty"`
	SolutionLaTeX        string               `json:"solution_latex,omitempty"`
	GradeLevel           constants.GradeLevel `json:"grade_level"`
	Difficulty           constants.Difficulty `json:"difficulty"`
	ConceptsTested       []string             `json:"concepts_tested,omitempty"`
	StrategiesApplicable []string             `json:"strategies_applicable,omitempty"`
	ImageURLs            []string             `json:"image_urls,omitempty"`
}

// EntityBundle is the locally derived summary of one processed document.
type EntityBundle struct {
	Concepts   []Concept  `json:"concepts"`
	Strategies []Strategy `json:"strategies"`
	Problems   []Problem  `json:"problems"`
}

// Counts returns the number of concepts, strategies and problems.
func (b *EntityBundle) Counts() (concepts, strategies, problems int) {
	if b == nil {
		return 0, 0, 0
	}
	return len(b.Concepts), len(b.Strategies), len(b.Problems)
}
