package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSingleEndpointRetryBudget(t *testing.T) {
	s := NewSingleEndpointSelector(Endpoint{Host: "127.0.0.1", Port: 9000})
	now := time.Unix(1000, 0)
	for i := 0; i < DefaultMaxRetryCount; i++ {
		assert.True(t, s.SelectNext(now))
		now = now.Add(DefaultRetryTimeout + time.Millisecond)
	}
	assert.False(t, s.SelectNext(now))
	assert.False(t, s.CanRetry())
}

func TestSingleEndpointCanRetryNowGating(t *testing.T) {
	s := NewSingleEndpointSelector(Endpoint{Host: "h", Port: 1})
	t0 := time.Unix(2000, 0)
	require_ := assert.New(t)
	require_.True(s.SelectNext(t0))

	ok, wait := s.CanRetryNow(t0.Add(time.Second))
	require_.False(ok)
	require_.True(wait > 0)
	require_.True(wait >= DefaultRetryTimeout-time.Second)

	ok, _ = s.CanRetryNow(t0.Add(DefaultRetryTimeout + time.Millisecond))
	require_.True(ok)
}

func TestSingleEndpointMarkGoodResetsRetry(t *testing.T) {
	s := NewSingleEndpointSelector(Endpoint{Host: "h", Port: 1})
	now := time.Unix(3000, 0)
	s.SelectNext(now)
	s.SelectNext(now.Add(3 * time.Second))
	s.MarkGood(now)
	assert.Equal(t, 0, s.Count())
	ep, ok := s.LastGood()
	assert.True(t, ok)
	assert.Equal(t, "h", ep.Host)
}

func TestMultiEndpointRoundRobinAlternates(t *testing.T) {
	eps := []Endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	m := NewMultiEndpointSelector(eps)
	now := time.Unix(4000, 0)

	for i := 0; i < DefaultMaxRetryCount; i++ {
		a := assert.New(t)
		a.True(m.SelectNext(now))
		a.Equal(eps[i%len(eps)].Host, m.Host())
		now = now.Add(DefaultRetryTimeout + time.Millisecond)
	}

	assert.True(t, m.SelectNext(now))
	assert.Equal(t, "b", m.Host())
}
