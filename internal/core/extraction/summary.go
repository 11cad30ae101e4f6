package extraction

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

// strategyKeywords trigger the bar-model strategy record. Do not extend
// without new requirements; the authoritative entities live in the graph.
var strategyKeywords = []string{"bar model", "model method"}

// SummarizeLocally is the local summary heuristic: a reporting aid derived
// from the parsed document's own signals, not the extracted graph.
// Math blocks imply one concept; a strategy keyword in such a document
// adds a bar-model strategy referencing that concept.
func SummarizeLocally(doc *entity.ParsedDocument) entity.EntityBundle {
	bundle := entity.EntityBundle{
		Concepts:   []entity.Concept{},
		Strategies: []entity.Strategy{},
		Problems:   []entity.Problem{},
	}
	if doc == nil {
		return bundle
	}
	stem := strings.TrimSuffix(doc.SourceName, filepath.Ext(doc.SourceName))

	if len(doc.MathBlocks) == 0 {
		return bundle
	}
	concept := entity.Concept{
		ID:          "concept-" + stem,
		Name:        "Content from " + doc.SourceName,
		Description: "Auto-extracted mathematical content",
		GradeLevels: []constants.GradeLevel{constants.GradeP5},
		CPAStage:    constants.CPAAbstract,
		Keywords:    []string{},
	}
	bundle.Concepts = append(bundle.Concepts, concept)

	lower := strings.ToLower(doc.Text)
	for _, kw := range strategyKeywords {
		if strings.Contains(lower, kw) {
			bundle.Strategies = append(bundle.Strategies, entity.Strategy{
				ID:                 "strategy-bar-model-" + stem,
				Name:               "Bar Model",
				Description:        "Visual representation using rectangular bars",
				CPAStage:           constants.CPAPictorial,
				ApplicableConcepts: []string{concept.ID},
			})
			break
		}
	}
	return bundle
}
