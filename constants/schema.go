package constants

import (
	"strings"
	"unicode"
)

// EntityKind is a node label in the knowledge graph.
type EntityKind string

const (
	EntityConcept    EntityKind = "Concept"
	EntityStrategy   EntityKind = "Strategy"
	EntityProblem    EntityKind = "Problem"
	EntityGradeLevel EntityKind = "GradeLevel"
	EntityTopic      EntityKind = "Topic"
)

// RelationKind is an edge label in the knowledge graph.
type RelationKind string

const (
	RelPrerequisite RelationKind = "PREREQUISITE"
	RelSolvedBy     RelationKind = "SOLVED_BY"
	RelTests        RelationKind = "TESTS"
	RelTaughtAt     RelationKind = "TAUGHT_AT"
	RelPartOf       RelationKind = "PART_OF"
	RelAppliesTo    RelationKind = "APPLIES_TO"
	RelVisualizedAs RelationKind = "VISUALIZED_AS"
)

var allEntityKinds = []EntityKind{
	EntityConcept,
	EntityStrategy,
	EntityProblem,
	EntityGradeLevel,
	EntityTopic,
}

var allRelationKinds = []RelationKind{
	RelPrerequisite,
	RelSolvedBy,
	RelTests,
	RelTaughtAt,
	RelPartOf,
	RelAppliesTo,
	RelVisualizedAs,
}

// EntityKindStrings returns the node labels handed to the extractor.
func EntityKindStrings() []string {
	result := make([]string, len(allEntityKinds))
	for i, k := range allEntityKinds {
		result[i] = string(k)
	}
	return result
}

// RelationKindStrings returns the edge labels handed to the extractor.
func RelationKindStrings() []string {
	result := make([]string, len(allRelationKinds))
	for i, k := range allRelationKinds {
		result[i] = string(k)
	}
	return result
}

// CanonicalEntity maps a model-produced label onto a known node label.
// Unknown labels come back title-cased with ok=false; the schema is not strict.
func CanonicalEntity(input string) (EntityKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return EntityTopic, false
	}

	synonyms := map[string]EntityKind{
		"grade":        EntityGradeLevel,
		"grade level":  EntityGradeLevel,
		"level":        EntityGradeLevel,
		"skill":        EntityConcept,
		"idea":         EntityConcept,
		"method":       EntityStrategy,
		"heuristic":    EntityStrategy,
		"model":        EntityStrategy,
		"question":     EntityProblem,
		"exercise":     EntityProblem,
		"word problem": EntityProblem,
		"subject":      EntityTopic,
		"strand":       EntityTopic,
		"chapter":      EntityTopic,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}
	for _, k := range allEntityKinds {
		if strings.ReplaceAll(normalized, " ", "") == strings.ToLower(string(k)) {
			return k, true
		}
	}
	return EntityKind(titleCase(normalized)), false
}

// CanonicalRelation maps a model-produced label onto a known edge label.
// Unknown labels come back in UPPER_SNAKE form with ok=false.
func CanonicalRelation(input string) (RelationKind, bool) {
	snake := upperSnake(input)
	if snake == "" {
		return "", false
	}

	synonyms := map[string]RelationKind{
		"REQUIRES":        RelPrerequisite,
		"DEPENDS_ON":      RelPrerequisite,
		"PREREQUISITE_OF": RelPrerequisite,
		"SOLVED_WITH":     RelSolvedBy,
		"USES_STRATEGY":   RelSolvedBy,
		"ASSESSES":        RelTests,
		"TAUGHT_IN":       RelTaughtAt,
		"INTRODUCED_AT":   RelTaughtAt,
		"BELONGS_TO":      RelPartOf,
		"SUBTOPIC_OF":     RelPartOf,
		"APPLIES":         RelAppliesTo,
		"USED_FOR":        RelAppliesTo,
		"REPRESENTED_AS":  RelVisualizedAs,
		"ILLUSTRATED_BY":  RelVisualizedAs,
	}
	if k, ok := synonyms[snake]; ok {
		return k, true
	}
	for _, k := range allRelationKinds {
		if snake == string(k) {
			return k, true
		}
	}
	return RelationKind(snake), false
}

func upperSnake(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, "")
}
