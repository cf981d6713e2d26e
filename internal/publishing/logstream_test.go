package publishing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogStream_AppendAndOrder(t *testing.T) {
	ls := NewLogStream(3)
	ls.Append("first")
	ls.Append("second %d", 2)

	assert.Equal(t, []string{"first", "second 2"}, ls.Lines())
	assert.Equal(t, 2, ls.Len())
}

func TestLogStream_EvictsOldestFirst(t *testing.T) {
	ls := NewLogStream(3)
	for i := 1; i <= 5; i++ {
		ls.Append("%s", fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, ls.Lines())
	assert.Equal(t, 3, ls.Len())
}

func TestLogStream_NeverExceedsCapacity(t *testing.T) {
	ls := NewLogStream(0)
	for i := 0; i < 100; i++ {
		ls.Append("line %d", i)
	}

	assert.Equal(t, 10, ls.Cap())
	assert.Len(t, ls.Lines(), 10)
	assert.Equal(t, "line 90", ls.Lines()[0])
	assert.Equal(t, "line 99", ls.Lines()[9])
}
