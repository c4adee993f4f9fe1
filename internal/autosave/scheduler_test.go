package autosave

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the times an action was called with.
type recorder struct {
	times []float64
	err   error
}

func (r *recorder) action(t float64) error {
	r.times = append(r.times, t)
	return r.err
}

func TestAddRejectsInvalidPeriod(t *testing.T) {
	t.Parallel()

	s := New()
	r := &recorder{}
	for _, p := range []float64{0, -1e-12, math.NaN(), math.Inf(1)} {
		_, err := s.Add("m", p, r.action)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "period %g", p)
	}
	assert.Zero(t, s.Len())

	_, err := s.Add("m", 1, nil)
	assert.Error(t, err)
}

func TestFiresOncePerCrossedBoundary(t *testing.T) {
	t.Parallel()

	s := New()
	r := &recorder{}
	id, err := s.Add("m", 10, r.action)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	for _, now := range []float64{3, 6, 9, 12, 15, 18, 21} {
		s.Notify(now)
	}
	assert.Equal(t, []float64{12, 21}, r.times)
	assert.Equal(t, 30.0, s.Directives()[0].NextDue)
}

func TestAtMostOncePerStepWhenDtExceedsPeriod(t *testing.T) {
	t.Parallel()

	s := New()
	r := &recorder{}
	_, err := s.Add("m", 1, r.action)
	require.NoError(t, err)

	// dt = 3.5 periods: every step crosses at least three boundaries.
	now := 0.0
	for step := 1; step <= 4; step++ {
		now += 3.5
		assert.Equal(t, 1, s.Notify(now), "step %d", step)
	}
	assert.Len(t, r.times, 4)
	assert.Equal(t, 5.0, s.Directives()[0].NextDue, "due time advances one period per fire")
}

func TestExactBoundaryFires(t *testing.T) {
	t.Parallel()

	s := New()
	r := &recorder{}
	_, err := s.Add("m", 2e-12, r.action)
	require.NoError(t, err)

	s.Notify(1e-12)
	assert.Empty(t, r.times)
	s.Notify(2e-12)
	assert.Equal(t, []float64{2e-12}, r.times)
}

func TestDirectivesAreIndependent(t *testing.T) {
	t.Parallel()

	s := New()
	fast, slow := &recorder{}, &recorder{}
	_, err := s.Add("fast", 1, fast.action)
	require.NoError(t, err)
	_, err = s.Add("slow", 3, slow.action)
	require.NoError(t, err)

	for now := 1.0; now <= 6; now++ {
		s.Notify(now)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, fast.times)
	assert.Equal(t, []float64{3, 6}, slow.times)
}

func TestActionErrorsAreCountedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriters(&buf, nil, nil)
	defer SetLogWriters(nil, nil, nil)

	s := New()
	failing := &recorder{err: errors.New("disk full")}
	ok := &recorder{}
	_, err := s.Add("H", 1, failing.action)
	require.NoError(t, err)
	_, err = s.Add("m", 1, ok.action)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Notify(1))
	assert.Equal(t, 2, s.Notify(2))

	st := s.Directives()
	assert.Equal(t, 2, st[0].Fired)
	assert.Equal(t, 2, st[0].Failures)
	assert.EqualError(t, st[0].LastErr, "disk full")
	assert.Equal(t, 0, st[1].Failures)
	assert.Len(t, ok.times, 2)
	assert.Contains(t, buf.String(), "disk full")
}

func TestRemoveAndFlushNow(t *testing.T) {
	t.Parallel()

	s := New()
	a, b := &recorder{}, &recorder{}
	idA, err := s.Add("a", 5, a.action)
	require.NoError(t, err)
	_, err = s.Add("b", 5, b.action)
	require.NoError(t, err)

	s.FlushNow(1)
	assert.Equal(t, []float64{1}, a.times)
	assert.Equal(t, 5.0, s.Directives()[0].NextDue, "flush leaves due times alone")

	assert.True(t, s.Remove(idA))
	assert.False(t, s.Remove(idA))
	s.Notify(5)
	assert.Equal(t, []float64{1}, a.times)
	assert.Equal(t, []float64{1, 5}, b.times)
}
