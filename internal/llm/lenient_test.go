package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTriplets(t *testing.T) {
	in := []byte(`{"triplets":[
		{"subject":{"name":" Ratio ","type":"Concept","extra":1},"relation":" PART_OF ","object":"Number"},
		{"subject":{"name":"x"},"relation":"","object":{"name":"y"}},
		42
	]}`)

	out, dropped, err := SanitizeTriplets(in)
	require.NoError(t, err)
	assert.Len(t, dropped, 2)

	var doc struct {
		Triplets []Triplet `json:"triplets"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Triplets, 1)
	assert.Equal(t, Triplet{
		Subject:  EntityRef{Name: "Ratio", Type: "Concept"},
		Relation: "PART_OF",
		Object:   EntityRef{Name: "Number"},
	}, doc.Triplets[0])

	schema := BuildTripletJSONSchema(nil, nil, false)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, out))
}

func TestSanitizeTriplets_BadShape(t *testing.T) {
	_, _, err := SanitizeTriplets([]byte(`{"triplets":"nope"}`))
	assert.Error(t, err)

	_, _, err = SanitizeTriplets([]byte(`not json`))
	assert.Error(t, err)

	out, dropped, err := SanitizeTriplets([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.JSONEq(t, `{"triplets":[]}`, string(out))
}

func TestBuildTripletJSONSchema_Strict(t *testing.T) {
	schema := BuildTripletJSONSchema([]string{"Concept"}, []string{"TESTS"}, true)

	ok := []byte(`{"triplets":[{"subject":{"name":"a","type":"Concept"},"relation":"TESTS","object":{"name":"b","type":"Concept"}}]}`)
	assert.NoError(t, ValidateJSONAgainstSchema(schema, ok))

	offList := []byte(`{"triplets":[{"subject":{"name":"a","type":"Concept"},"relation":"TEACHES","object":{"name":"b","type":"Concept"}}]}`)
	assert.Error(t, ValidateJSONAgainstSchema(schema, offList))

	loose := BuildTripletJSONSchema([]string{"Concept"}, []string{"TESTS"}, false)
	assert.NoError(t, ValidateJSONAgainstSchema(loose, offList))
}
