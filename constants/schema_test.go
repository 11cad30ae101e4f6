package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalRelation(t *testing.T) {
	cases := []struct {
		in    string
		want  RelationKind
		known bool
	}{
		{"PREREQUISITE", RelPrerequisite, true},
		{"solved by", RelSolvedBy, true},
		{"depends-on", RelPrerequisite, true},
		{"  taught_in ", RelTaughtAt, true},
		{"is similar to", "IS_SIMILAR_TO", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalRelation(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.known, ok, tc.in)
	}
}

func TestCanonicalEntity(t *testing.T) {
	got, ok := CanonicalEntity("grade level")
	assert.True(t, ok)
	assert.Equal(t, EntityGradeLevel, got)

	got, ok = CanonicalEntity("GradeLevel")
	assert.True(t, ok)
	assert.Equal(t, EntityGradeLevel, got)

	got, ok = CanonicalEntity("math fact")
	assert.False(t, ok)
	assert.Equal(t, EntityKind("MathFact"), got)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, []string{"Concept", "Strategy", "Problem", "GradeLevel", "Topic"}, EntityKindStrings())
	assert.Len(t, RelationKindStrings(), 7)
	assert.Contains(t, RelationKindStrings(), "VISUALIZED_AS")
}
