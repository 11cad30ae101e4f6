package llm

import (
	"fmt"
	"strings"
)

// maxChunkPrompt bounds the text sent per extraction call.
const maxChunkPrompt = 6000

// BuildExtractionSystemPrompt describes the domain and the output contract.
func BuildExtractionSystemPrompt(req TripletRequest) string {
	parts := []string{
		"You extract a knowledge graph from Singapore primary mathematics teaching material.",
		"The material follows the CPA approach: Concrete, then Pictorial (for example bar models), then Abstract.",
		"Return ONLY JSON that matches the provided JSON Schema: an object with a 'triplets' array.",
		"Each triplet links a subject entity to an object entity through one relation.",
		"Extract mathematical concepts (ratio, fraction, place value), problem-solving strategies " +
			"(bar model, number bonds, guess and check), math problems, and grade levels (Primary 1 to 6).",
		"Capture which concepts are prerequisites for others, which strategies solve which problems, " +
			"and which grade levels teach which concepts.",
		"Pay attention to bar models (tape diagrams, the model method), part-whole and comparison models, " +
			"number bonds and place value.",
	}
	if len(req.EntityKinds) > 0 {
		parts = append(parts, "Preferred entity types: "+strings.Join(req.EntityKinds, ", ")+".")
	}
	if len(req.RelationKinds) > 0 {
		parts = append(parts, "Preferred relations: "+strings.Join(req.RelationKinds, ", ")+".")
	}
	if !req.Strict {
		parts = append(parts, "If nothing in the preferred lists fits, you may use another short label.")
	}
	parts = append(parts,
		"Keep LaTeX inside entity names exactly as written, including $ delimiters.",
		"Use concise names. Never output null. Omit triplets you are unsure about.",
	)
	if req.MaxTriplets > 0 {
		parts = append(parts, fmt.Sprintf("Return at most %d triplets.", req.MaxTriplets))
	}
	return strings.Join(parts, " ")
}

// BuildExtractionUserPrompt packages the chunk and its source hint.
func BuildExtractionUserPrompt(req TripletRequest) string {
	var b strings.Builder
	if s := strings.TrimSpace(req.SourceFile); s != "" {
		b.WriteString("Source file: ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nText:\n")
	if len(text) > maxChunkPrompt {
		b.WriteString(text[:maxChunkPrompt])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

const answerSystemPrompt = "You answer questions about a mathematics curriculum knowledge graph. " +
	"Answer using ONLY the provided passages and facts. Cite source files in brackets. " +
	"If they do not contain the answer, say so."

// BuildAnswerPrompt renders the question with its retrieved context.
func BuildAnswerPrompt(req AnswerRequest) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Question: %s\n", req.Question)
	if len(req.Facts) > 0 {
		buf.WriteString("Facts:\n")
		for _, f := range req.Facts {
			fmt.Fprintf(&buf, "- %s\n", f)
		}
	}
	buf.WriteString("Passages:\n")
	for i, c := range req.Contexts {
		fmt.Fprintf(&buf, "[%d] (%s)\n%s\n", i+1, c.SourceFile, strings.TrimSpace(c.Text))
	}
	return buf.String()
}

// AnswerSystemPrompt returns the fixed system message for answers.
func AnswerSystemPrompt() string { return answerSystemPrompt }
