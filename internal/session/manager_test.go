package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flowdecoder/internal/clock"
)

type statusRecorder struct {
	mu   sync.Mutex
	seen []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.seen...)
}

func newTestManager(t *testing.T) (*Manager, *MemoryBackend, *clock.Fake) {
	t.Helper()
	backend := NewMemoryBackend()
	fake := clock.NewFake(time.Unix(1700000000, 0))
	m, err := NewManager(backend, Options{Clock: fake})
	require.NoError(t, err)
	return m, backend, fake
}

func TestNewManager_RequiresBackend(t *testing.T) {
	_, err := NewManager(nil, Options{})
	require.Error(t, err)
}

func TestManager_LoadMergesDurableValues(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.Put(KeyCurrentText, "{}")
	backend.Put(KeyIsDecoded, true)
	backend.Put(KeyHasResult, true)
	backend.Put("unrelated", "ignored")

	assert.False(t, m.Loaded())
	st, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Loaded())
	assert.Equal(t, State{CurrentText: "{}", IsDecoded: true, HasResult: true}, st)
	assert.Equal(t, st, m.Get())
}

func TestManager_LoadIgnoresMistypedValues(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.Put(KeyCurrentText, 42)
	backend.Put(KeyHasResult, "yes")

	st, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestManager_LoadNormalizesDecodedWithoutResult(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.Put(KeyIsDecoded, true)
	backend.Put(KeyHasResult, false)

	st, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsDecoded)
	assert.False(t, st.HasResult)
}

func TestManager_LoadFailureFallsBackToDefaults(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.GetErr = errors.New("unreachable")

	st, err := m.Load(context.Background())
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, backend.GetErr)
	assert.Equal(t, State{}, st)
	assert.True(t, m.Loaded())
}

func TestManager_UpdateIsVisibleBeforeWriteCompletes(t *testing.T) {
	backend := &blockingBackend{MemoryBackend: NewMemoryBackend(), release: make(chan struct{}), entered: make(chan struct{})}
	m, err := NewManager(backend, Options{Clock: clock.NewFake(time.Unix(0, 0))})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- m.Update(context.Background(), Partial{CurrentText: Text("hello")})
	}()

	<-backend.entered
	assert.Equal(t, "hello", m.Get().CurrentText)
	close(backend.release)
	require.NoError(t, <-done)
}

func TestManager_UpdateFailureKeepsMemory(t *testing.T) {
	m, backend, _ := newTestManager(t)
	backend.SetErr = errors.New("disk full")

	err := m.Update(context.Background(), Partial{CurrentText: Text("x"), HasResult: Flag(true)})
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, State{CurrentText: "x", HasResult: true}, m.Get())
	assert.Empty(t, backend.Snapshot())
}

func TestManager_UpdateNeverMarksDecodedWithoutResult(t *testing.T) {
	m, backend, _ := newTestManager(t)

	require.NoError(t, m.Update(context.Background(), Partial{IsDecoded: Flag(true)}))
	assert.False(t, m.Get().IsDecoded)
	assert.Equal(t, false, backend.Snapshot()[KeyIsDecoded])

	m.UpdateDebounced(Partial{IsDecoded: Flag(true)})
	assert.False(t, m.Get().IsDecoded)

	require.NoError(t, m.Update(context.Background(), Partial{IsDecoded: Flag(true), HasResult: Flag(true)}))
	assert.True(t, m.Get().IsDecoded)
}

func TestManager_UpdateDebouncedWritesOnlyLastPartial(t *testing.T) {
	m, backend, fake := newTestManager(t)

	m.UpdateDebounced(Partial{CurrentText: Text("a"), OriginalInput: Text("a")})
	assert.Equal(t, "a", m.Get().CurrentText)
	fake.Advance(100 * time.Millisecond)

	m.UpdateDebounced(Partial{CurrentText: Text("ab"), OriginalInput: Text("ab")})
	fake.Advance(100 * time.Millisecond)

	m.UpdateDebounced(Partial{CurrentText: Text("abc")})
	assert.Equal(t, State{CurrentText: "abc", OriginalInput: "ab"}, m.Get())
	assert.Empty(t, backend.Writes(), "nothing written inside the debounce window")

	fake.Advance(DefaultDebounce)

	writes := backend.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, map[string]any{KeyCurrentText: "abc"}, writes[0])
}

func TestManager_UpdateDebouncedOneWritePerQuietPeriod(t *testing.T) {
	m, backend, fake := newTestManager(t)

	for i := 0; i < 10; i++ {
		m.UpdateDebounced(Partial{CurrentText: Text("burst")})
		fake.Advance(50 * time.Millisecond)
	}
	fake.Advance(time.Second)
	m.UpdateDebounced(Partial{CurrentText: Text("second")})
	fake.Advance(DefaultDebounce + DefaultStatusDisplay)

	assert.Len(t, backend.Writes(), 2)
	assert.Equal(t, 0, fake.Pending())
}

func TestManager_UpdateFoldsPendingDebouncedWrite(t *testing.T) {
	m, backend, fake := newTestManager(t)

	m.UpdateDebounced(Partial{CurrentText: Text("raw"), OriginalInput: Text("raw")})
	require.NoError(t, m.Update(context.Background(), Partial{
		CurrentText: Text("formatted"),
		IsDecoded:   Flag(true),
		HasResult:   Flag(true),
	}))

	writes := backend.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, map[string]any{
		KeyCurrentText:   "formatted",
		KeyOriginalInput: "raw",
		KeyIsDecoded:     true,
		KeyHasResult:     true,
	}, writes[0])

	fake.Advance(time.Second)
	assert.Len(t, backend.Writes(), 1, "superseded debounced write must not fire")
	assert.Equal(t, map[string]any{
		KeyCurrentText:   m.Get().CurrentText,
		KeyOriginalInput: m.Get().OriginalInput,
		KeyIsDecoded:     m.Get().IsDecoded,
		KeyHasResult:     m.Get().HasResult,
	}, backend.Snapshot())
}

func TestManager_UpdateDebouncedZeroPartialIsNoop(t *testing.T) {
	m, backend, fake := newTestManager(t)
	rec := &statusRecorder{}
	m.OnStatus(rec.record)

	m.UpdateDebounced(Partial{})
	fake.Advance(time.Second)

	assert.Equal(t, StatusHidden, m.Status())
	assert.Empty(t, rec.all())
	assert.Empty(t, backend.Writes())
}

func TestManager_UpdateDebouncedFailureOnlyTouchesStatus(t *testing.T) {
	m, backend, fake := newTestManager(t)
	rec := &statusRecorder{}
	m.OnStatus(rec.record)
	backend.SetErr = errors.New("gone")

	m.UpdateDebounced(Partial{CurrentText: Text("x")})
	fake.Advance(DefaultDebounce)

	assert.Equal(t, "x", m.Get().CurrentText)
	assert.Equal(t, StatusHidden, m.Status())
	assert.Equal(t, []Status{StatusSaving, StatusSaving, StatusHidden}, rec.all())
}

func TestManager_StatusSavedRevertsToHidden(t *testing.T) {
	m, _, fake := newTestManager(t)
	rec := &statusRecorder{}
	m.OnStatus(rec.record)

	require.NoError(t, m.Update(context.Background(), Partial{CurrentText: Text("x")}))
	assert.Equal(t, StatusSaved, m.Status())

	fake.Advance(DefaultStatusDisplay - time.Millisecond)
	assert.Equal(t, StatusSaved, m.Status())

	fake.Advance(time.Millisecond)
	assert.Equal(t, StatusHidden, m.Status())
	assert.Equal(t, []Status{StatusSaving, StatusSaved, StatusHidden}, rec.all())
}

func TestManager_FlushWritesPendingImmediately(t *testing.T) {
	m, backend, fake := newTestManager(t)

	require.NoError(t, m.Flush(context.Background()))
	assert.Empty(t, backend.Writes())

	m.UpdateDebounced(Partial{CurrentText: Text("late")})
	require.NoError(t, m.Flush(context.Background()))
	require.Len(t, backend.Writes(), 1)

	fake.Advance(time.Second)
	assert.Len(t, backend.Writes(), 1, "flushed write must not fire again")
}

func TestManager_ClearResetsEverything(t *testing.T) {
	m, backend, fake := newTestManager(t)
	backend.Put("extra", "value")
	require.NoError(t, m.Update(context.Background(), Partial{
		CurrentText:   Text("{}"),
		OriginalInput: Text("%7B%7D"),
		IsDecoded:     Flag(true),
		HasResult:     Flag(true),
	}))
	m.UpdateDebounced(Partial{CurrentText: Text("pending")})

	require.NoError(t, m.Clear(context.Background()))
	assert.Equal(t, State{}, m.Get())
	assert.Empty(t, backend.Snapshot())

	fake.Advance(time.Second)
	assert.Empty(t, backend.Snapshot(), "pending write cancelled by Clear")
}

func TestManager_ClearFailureStillResetsMemory(t *testing.T) {
	m, backend, _ := newTestManager(t)
	require.NoError(t, m.Update(context.Background(), Partial{CurrentText: Text("x")}))
	backend.ClearErr = errors.New("nope")

	err := m.Clear(context.Background())
	var clearErr *ClearError
	require.ErrorAs(t, err, &clearErr)
	assert.Equal(t, State{}, m.Get())
}

func TestManager_DecodedImpliesResultAcrossSequences(t *testing.T) {
	m, _, fake := newTestManager(t)
	ctx := context.Background()

	steps := []Partial{
		{IsDecoded: Flag(true)},
		{HasResult: Flag(true)},
		{IsDecoded: Flag(true)},
		{HasResult: Flag(false)},
		{IsDecoded: Flag(true), HasResult: Flag(false)},
	}
	for i, p := range steps {
		if i%2 == 0 {
			_ = m.Update(ctx, p)
		} else {
			m.UpdateDebounced(p)
			fake.Advance(DefaultDebounce)
		}
		st := m.Get()
		assert.False(t, st.IsDecoded && !st.HasResult, "step %d: %+v", i, st)
	}
}

type blockingBackend struct {
	*MemoryBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Set(ctx context.Context, values map[string]any) error {
	close(b.entered)
	<-b.release
	return b.MemoryBackend.Set(ctx, values)
}
