package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingSurface) Update(_ context.Context, v View) UpdateResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	return Updated
}

func TestScopeKeys(t *testing.T) {
	assert.Equal(t, Key("guild:g1"), ScopeGuild.Key("g1", "u1"))
	assert.Equal(t, ScopeGuild.Key("g1", "u1"), ScopeGuild.Key("g1", "u2"))
	assert.Equal(t, Key("user:g1:u1"), ScopeUser.Key("g1", "u1"))
	assert.NotEqual(t, ScopeUser.Key("g1", "u1"), ScopeUser.Key("g1", "u2"))

	sc, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeGuild, sc)
	_, err = ParseScope("channel")
	assert.Error(t, err)
}

func TestRegistryStartSupersedes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var expired atomic.Int32
	r := NewRegistry(clock, time.Minute, WithOnExpire(func(*Session) { expired.Add(1) }))

	first := New(KindSettings, "g1", "u1", &recordingSurface{})
	assert.Nil(t, r.Start("guild:g1", first))

	second := New(KindSettings, "g1", "u2", &recordingSurface{})
	prev := r.Start("guild:g1", second)

	require.Same(t, first, prev)
	assert.True(t, first.Ended())
	assert.False(t, second.Ended())
	assert.Same(t, second, r.Get("guild:g1"))
	assert.Equal(t, 1, r.Len())

	// only the second session's timer may fire
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return expired.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Nil(t, r.Get("guild:g1"))
}

func TestRegistryEndIsIdempotent(t *testing.T) {
	r := NewRegistry(clockwork.NewFakeClock(), time.Minute)
	s := New(KindCustomize, "g1", "u1", nil)
	r.Start("guild:g1", s)

	r.End("guild:g1")
	r.End("guild:g1")
	r.End("guild:missing")

	assert.True(t, s.Ended())
	assert.Nil(t, r.Get("guild:g1"))
	assert.Nil(t, r.Find(s.ID))
}

func TestRegistryExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	done := make(chan *Session, 1)
	r := NewRegistry(clock, 10*time.Minute, WithOnExpire(func(s *Session) { done <- s }))

	s := New(KindCustomize, "g1", "u1", nil)
	r.Start("guild:g1", s)
	assert.Equal(t, clock.Now().Add(10*time.Minute), s.ExpiresAt())

	clock.Advance(9 * time.Minute)
	r.Touch(s)
	clock.Advance(9 * time.Minute)
	select {
	case <-done:
		t.Fatal("touched session expired early")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Same(t, s, r.Find(s.ID))

	clock.Advance(time.Minute)
	select {
	case got := <-done:
		assert.Same(t, s, got)
	case <-time.After(time.Second):
		t.Fatal("session did not expire")
	}
	assert.True(t, s.Ended())
	assert.Nil(t, r.Find(s.ID))
}

func TestRegistryEndedSessionDoesNotExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var expired atomic.Int32
	r := NewRegistry(clock, time.Minute, WithOnExpire(func(*Session) { expired.Add(1) }))

	s := New(KindCustomize, "g1", "u1", nil)
	r.Start("guild:g1", s)
	r.EndSession(s)

	clock.Advance(2 * time.Minute)
	assert.Never(t, func() bool { return expired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestRegistryScheduleClearReplacesPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := NewRegistry(clock, time.Hour)
	s := New(KindSettings, "g1", "u1", nil)
	r.Start("guild:g1", s)

	var first, second atomic.Int32
	r.ScheduleClear(s, 5*time.Second, func() { first.Add(1) })
	clock.Advance(3 * time.Second)
	r.ScheduleClear(s, 5*time.Second, func() { second.Add(1) })
	clock.Advance(3 * time.Second)

	assert.Never(t, func() bool { return first.Load() > 0 || second.Load() > 0 },
		50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestRegistryShutdownStopsTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	r := NewRegistry(clock, time.Minute, WithOnExpire(func(*Session) { fired.Add(1) }))

	s := New(KindSettings, "g1", "u1", nil)
	r.Start("guild:g1", s)
	r.ScheduleClear(s, time.Second, func() { fired.Add(1) })
	r.Shutdown()

	clock.Advance(time.Hour)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 0, r.Len())
	assert.True(t, s.Ended())
}

func TestViewBounds(t *testing.T) {
	v := View{Page: 0, PageCount: 1}
	assert.False(t, v.HasPrevious())
	assert.False(t, v.HasNext())

	v = View{Page: 1, PageCount: 3}
	assert.True(t, v.HasPrevious())
	assert.True(t, v.HasNext())

	v.Page = 2
	assert.False(t, v.HasNext())
}
