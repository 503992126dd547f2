package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/meucv/internal/clock"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingPersister struct {
	mu    sync.Mutex
	docs  []*types.CVData
	err   error
	block chan struct{}
	began chan struct{}
}

func (r *recordingPersister) Persist(_ context.Context, doc *types.CVData) error {
	if r.began != nil {
		r.began <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *recordingPersister) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingPersister) written() []*types.CVData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*types.CVData(nil), r.docs...)
}

func named(name string) *types.CVData {
	doc := types.DefaultCVData()
	doc.PersonalData.FullName = name
	return doc
}

func newTestPolicy(t *testing.T, p Persister) (*Policy, *clock.Manual, *notify.Recorder) {
	t.Helper()
	clk := clock.NewManual(start)
	rec := notify.NewRecorder(0)
	policy := New(p, WithClock(clk), WithSink(rec))
	t.Cleanup(policy.Close)
	return policy, clk, rec
}

func TestNew_Defaults(t *testing.T) {
	p := New(&recordingPersister{})
	defer p.Close()

	assert.Equal(t, DefaultDelay, p.Delay())
	assert.Equal(t, State{Status: StatusIdle}, p.State())

	assert.Equal(t, DefaultDelay, New(nil, WithDelay(-time.Second)).Delay())
	assert.Equal(t, 250*time.Millisecond, New(nil, WithDelay(250*time.Millisecond)).Delay())
}

func TestNotify_OnlyLatestSnapshotIsWritten(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)
	docA, docB := named("A"), named("B")

	policy.Notify(docA)
	clk.Advance(500 * time.Millisecond)
	policy.Notify(docB)

	clk.Advance(999 * time.Millisecond)
	assert.Empty(t, persister.written(), "nothing written inside the debounce window")

	clk.Advance(time.Millisecond)
	written := persister.written()
	require.Len(t, written, 1)
	assert.Same(t, docB, written[0])

	clk.Advance(10 * time.Second)
	assert.Len(t, persister.written(), 1)
	assert.Equal(t, 0, clk.Pending())
}

func TestNotify_StateTransitions(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, rec := newTestPolicy(t, persister)

	policy.Notify(named("A"))
	st := policy.State()
	assert.Equal(t, StatusPending, st.Status)
	assert.False(t, st.IsSaving)
	assert.Nil(t, st.LastSavedAt)

	clk.Advance(DefaultDelay)
	st = policy.State()
	assert.Equal(t, StatusIdle, st.Status)
	require.NotNil(t, st.LastSavedAt)
	assert.Equal(t, start.Add(DefaultDelay), *st.LastSavedAt)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 0, rec.Len(), "debounced saves are silent")
}

func TestNotify_CoalescesBurst(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)

	var last *types.CVData
	for i := 0; i < 20; i++ {
		last = named(string(rune('a' + i)))
		policy.Notify(last)
		clk.Advance(100 * time.Millisecond)
	}
	clk.Advance(DefaultDelay)

	written := persister.written()
	require.Len(t, written, 1)
	assert.Same(t, last, written[0])
}

func TestSaveFailure(t *testing.T) {
	persister := &recordingPersister{err: errors.New("quota exceeded")}
	policy, clk, rec := newTestPolicy(t, persister)

	policy.Notify(named("A"))
	clk.Advance(DefaultDelay)

	st := policy.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "quota exceeded", st.LastError)
	assert.Nil(t, st.LastSavedAt)

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.Error, toasts[0].Kind)

	// The next edit leaves the failed state and retries.
	persister.setErr(nil)
	policy.Notify(named("B"))
	assert.Equal(t, StatusPending, policy.State().Status)

	clk.Advance(DefaultDelay)
	st = policy.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.LastError)
	require.Len(t, persister.written(), 1)
}

func TestForceSave(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, rec := newTestPolicy(t, persister)
	docA, docB := named("A"), named("B")

	policy.Notify(docA)
	require.NoError(t, policy.ForceSave(context.Background(), docB))

	written := persister.written()
	require.Len(t, written, 1)
	assert.Same(t, docB, written[0])
	assert.Equal(t, StatusIdle, policy.State().Status)

	clk.Advance(time.Minute)
	assert.Len(t, persister.written(), 1, "pending timer was cancelled")

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.Success, toasts[0].Kind)
	assert.Equal(t, DefaultSavedMessage, toasts[0].Message)
}

func TestForceSaveCurrent_SnapshotTakenUnderLock(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)
	docA, docB := named("A"), named("B")

	policy.Notify(docA)
	err := policy.ForceSaveCurrent(context.Background(), func() *types.CVData {
		assert.False(t, policy.mu.TryLock(), "snapshot read while the policy is locked")
		return docB
	})
	require.NoError(t, err)

	written := persister.written()
	require.Len(t, written, 1)
	assert.Same(t, docB, written[0])

	clk.Advance(time.Minute)
	assert.Len(t, persister.written(), 1)
}

func TestForceSaveCurrent_Closed(t *testing.T) {
	policy, _, _ := newTestPolicy(t, &recordingPersister{})
	policy.Close()

	called := false
	err := policy.ForceSaveCurrent(context.Background(), func() *types.CVData {
		called = true
		return named("A")
	})
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, called)
}

func TestForceSave_FailureIsReported(t *testing.T) {
	persister := &recordingPersister{err: errors.New("disk full")}
	policy, _, rec := newTestPolicy(t, persister)

	err := policy.ForceSave(context.Background(), named("A"))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, policy.State().Status)

	toasts := rec.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.Error, toasts[0].Kind)

	persister.setErr(nil)
	require.NoError(t, policy.ForceSave(context.Background(), named("A")))
	assert.Equal(t, StatusIdle, policy.State().Status)
}

func TestForceSave_WaitsForInflightWrite(t *testing.T) {
	persister := &recordingPersister{block: make(chan struct{}), began: make(chan struct{}, 2)}
	policy, clk, _ := newTestPolicy(t, persister)
	docA, docB := named("A"), named("B")

	policy.Notify(docA)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		clk.Advance(DefaultDelay)
	}()
	<-persister.began
	assert.True(t, policy.State().IsSaving)

	go func() {
		defer wg.Done()
		assert.NoError(t, policy.ForceSave(context.Background(), docB))
	}()

	close(persister.block)
	wg.Wait()

	written := persister.written()
	require.Len(t, written, 2)
	assert.Same(t, docA, written[0])
	assert.Same(t, docB, written[1])
	assert.Equal(t, StatusIdle, policy.State().Status)
}

func TestWrite_SkipsOlderSubmissions(t *testing.T) {
	persister := &recordingPersister{}
	policy := New(persister)
	defer policy.Close()

	skipped, err := policy.write(context.Background(), named("new"), 2)
	require.NoError(t, err)
	assert.False(t, skipped)

	skipped, err = policy.write(context.Background(), named("old"), 1)
	require.NoError(t, err)
	assert.True(t, skipped)

	written := persister.written()
	require.Len(t, written, 1)
	assert.Equal(t, "new", written[0].PersonalData.FullName)
}

func TestFlush(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)

	require.NoError(t, policy.Flush(context.Background()))
	assert.Empty(t, persister.written())

	doc := named("A")
	policy.Notify(doc)
	require.NoError(t, policy.Flush(context.Background()))
	require.Len(t, persister.written(), 1)
	assert.Same(t, doc, persister.written()[0])

	clk.Advance(time.Minute)
	assert.Len(t, persister.written(), 1)
}

func TestSubscribe(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)

	ch, stop := policy.Subscribe()
	assert.Equal(t, StatusIdle, (<-ch).Status)

	policy.Notify(named("A"))
	assert.Equal(t, StatusPending, (<-ch).Status)

	clk.Advance(DefaultDelay)
	// Saving was overwritten by idle because nothing read in between.
	st := <-ch
	assert.Equal(t, StatusIdle, st.Status)
	assert.NotNil(t, st.LastSavedAt)

	stop()
	stop()
	_, open := <-ch
	assert.False(t, open)
}

func TestClose(t *testing.T) {
	persister := &recordingPersister{}
	policy, clk, _ := newTestPolicy(t, persister)
	ch, _ := policy.Subscribe()
	<-ch

	policy.Notify(named("A"))
	policy.Close()
	policy.Close()

	clk.Advance(time.Minute)
	assert.Empty(t, persister.written())
	assert.Equal(t, StatusIdle, policy.State().Status)
	assert.ErrorIs(t, policy.ForceSave(context.Background(), named("B")), ErrClosed)

	for range ch {
	}
	policy.Notify(named("C"))
	assert.Equal(t, 0, clk.Pending())
}
