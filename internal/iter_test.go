package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	a := maps.All(map[string]int{"a": 1})
	b := maps.All(map[string]int{"b": 2})

	var keys []string
	var values []int
	for key, value := range IterSeq2Concat(a, b) {
		keys = append(keys, key)
		values = append(values, value)
	}
	assert.Equal([]string{"a", "b"}, keys)
	assert.Equal([]int{1, 2}, values)

	count := 0
	for range IterSeq2Concat(a, b) {
		count++
		break
	}
	assert.Equal(1, count)
}
