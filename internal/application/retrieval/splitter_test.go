package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitByRunesShortInputSingleChunk(t *testing.T) {
	out := splitByRunes("短文本", 800, 80)
	assert.Equal(t, []string{"短文本"}, out)
}

func TestSplitByRunesEmptyInput(t *testing.T) {
	assert.Nil(t, splitByRunes("   ", 800, 80))
}

func TestSplitByRunesOverlap(t *testing.T) {
	s := strings.Repeat("a", 10)
	out := splitByRunes(s, 4, 2)

	// 步长 = 4-2 = 2，窗口从 0/2/4/6 起步
	assert.Equal(t, []string{"aaaa", "aaaa", "aaaa", "aaaa"}, out)
}

func TestSplitByRunesCountsRunesNotBytes(t *testing.T) {
	s := strings.Repeat("中", 10)
	out := splitByRunes(s, 5, 0)

	assert.Len(t, out, 2)
	for _, chunk := range out {
		assert.Equal(t, 5, len([]rune(chunk)))
	}
}

func TestSplitByRunesNonPositiveMaxReturnsWhole(t *testing.T) {
	out := splitByRunes("whole", 0, 0)
	assert.Equal(t, []string{"whole"}, out)
}
