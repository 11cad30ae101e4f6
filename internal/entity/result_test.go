package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultConstructorsPopulateExactlyOneSide(t *testing.T) {
	ok := Succeeded("a.pdf", EntityBundle{Concepts: []Concept{{ID: "c"}}}, time.Second)
	assert.True(t, ok.Success)
	require.NotNil(t, ok.Entities)
	assert.Empty(t, ok.Error)

	c, s, p := ok.Entities.Counts()
	assert.Equal(t, []int{1, 0, 0}, []int{c, s, p})

	bad := Failed("b.pdf", errors.New("ocr exploded"), time.Second)
	assert.False(t, bad.Success)
	assert.Nil(t, bad.Entities)
	assert.Equal(t, "ocr exploded", bad.Error)

	assert.Equal(t, "unknown error", Failed("c.pdf", nil, 0).Error)
}
