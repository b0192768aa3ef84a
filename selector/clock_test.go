package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowIsMonotonicallyNonDecreasing(t *testing.T) {
	a := Now()
	time.Sleep(time.Millisecond)
	b := Now()
	assert.True(t, b.After(a) || b.Equal(a))
}
