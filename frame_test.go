package anim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yt-zgl/oryol-animation/model"
)

// stubSequencer records calls and writes a constant into the sample view.
type stubSequencer struct {
	accept    bool
	fill      float32
	added     []Job
	durations []float64
	evalTimes []float64
	stopped   []JobID
	gcCalls   int
}

func (s *stubSequencer) GarbageCollect(now float64) { s.gcCalls++ }

func (s *stubSequencer) Add(now float64, id JobID, job Job, clipDuration float64) bool {
	if !s.accept {
		return false
	}
	s.added = append(s.added, job)
	s.durations = append(s.durations, clipDuration)
	return true
}

func (s *stubSequencer) Stop(now float64, id JobID, allowFadeOut bool) {
	s.stopped = append(s.stopped, id)
}

func (s *stubSequencer) StopTrack(now float64, trackIndex int, allowFadeOut bool) {}
func (s *stubSequencer) StopAll(now float64, allowFadeOut bool)                   {}

func (s *stubSequencer) Eval(lib *LibraryData, now float64, out []float32) int {
	s.evalTimes = append(s.evalTimes, now)
	for i := range out {
		out[i] = s.fill
	}
	return len(out)
}

func frameFixture(t *testing.T) (*Manager, model.ID, *stubSequencer) {
	t.Helper()
	m, err := NewManager(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { m.Discard() })

	libID, err := m.CreateLibrary(humanSetup("human"))
	require.NoError(t, err)
	seq := &stubSequencer{accept: true, fill: 42}
	instID, err := m.CreateInstance(InstanceSetup{Library: libID, Sequencer: seq})
	require.NoError(t, err)
	return m, instID, seq
}

func TestFrameProtocol(t *testing.T) {
	m, instID, seq := frameFixture(t)

	require.ErrorIs(t, m.Evaluate(0.1), ErrNotInFrame)
	_, err := m.AddActiveInstance(instID)
	require.ErrorIs(t, err, ErrNotInFrame)

	require.NoError(t, m.NewFrame())
	require.ErrorIs(t, m.NewFrame(), ErrInFrame)

	ok, err := m.AddActiveInstance(instID)
	require.NoError(t, err)
	require.True(t, ok)

	inst := m.LookupInstance(instID)
	assert.Equal(t, 9, inst.Samples.Len())

	require.NoError(t, m.Evaluate(0.1))
	assert.InDelta(t, 0.1, m.CurrentTime(), 1e-9)
	require.Len(t, seq.evalTimes, 1)
	assert.InDelta(t, 0.1, seq.evalTimes[0], 1e-9)

	// The sample view stays readable until the next frame opens.
	inst = m.LookupInstance(instID)
	require.Equal(t, 9, inst.Samples.Len())

	require.NoError(t, m.NewFrame())
	inst = m.LookupInstance(instID)
	assert.True(t, inst.Samples.IsEmpty())
	require.NoError(t, m.Evaluate(0.1))
	assert.InDelta(t, 0.2, m.CurrentTime(), 1e-9)
}

func TestAddActiveInstanceBackpressure(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)
	defer m.Discard()

	libID, err := m.CreateLibrary(humanSetup("human"))
	require.NoError(t, err)

	// testConfig caps the active set at 4; the fifth admission is refused.
	ids := make([]model.ID, 5)
	for i := range ids {
		ids[i], err = m.CreateInstance(InstanceSetup{Library: libID, Sequencer: &stubSequencer{accept: true}})
		require.NoError(t, err)
	}

	require.NoError(t, m.NewFrame())
	for i := 0; i < 4; i++ {
		ok, err := m.AddActiveInstance(ids[i])
		require.NoError(t, err)
		require.True(t, ok, "instance %d", i)
	}
	ok, err := m.AddActiveInstance(ids[4])
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, m.Evaluate(0.1))
}

func TestAddActiveInstanceSampleRegionFull(t *testing.T) {
	cfg := testConfig()
	cfg.SamplePoolCapacity = 10 // one 9-float sample row fits, two do not
	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Discard()

	libID, err := m.CreateLibrary(humanSetup("human"))
	require.NoError(t, err)
	id1, err := m.CreateInstance(InstanceSetup{Library: libID, Sequencer: &stubSequencer{accept: true}})
	require.NoError(t, err)
	id2, err := m.CreateInstance(InstanceSetup{Library: libID, Sequencer: &stubSequencer{accept: true}})
	require.NoError(t, err)

	require.NoError(t, m.NewFrame())
	ok, err := m.AddActiveInstance(id1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = m.AddActiveInstance(id2)
	require.NoError(t, err)
	assert.False(t, ok)

	// The refused instance carries no sample view.
	assert.True(t, m.LookupInstance(id2).Samples.IsEmpty())
	require.NoError(t, m.Evaluate(0.1))

	// The region is reclaimed wholesale, so the refused instance gets in
	// next frame if admitted first.
	require.NoError(t, m.NewFrame())
	ok, err = m.AddActiveInstance(id2)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Evaluate(0.1))
}

func TestAddActiveInstanceDeadLibrary(t *testing.T) {
	m, err := NewManager(testConfig())
	require.NoError(t, err)
	defer m.Discard()

	label, err := m.PushLabel()
	require.NoError(t, err)
	libID, err := m.CreateLibrary(humanSetup("human"))
	require.NoError(t, err)
	_, err = m.PopLabel()
	require.NoError(t, err)

	instID, err := m.CreateInstance(InstanceSetup{Library: libID, Sequencer: &stubSequencer{accept: true}})
	require.NoError(t, err)

	m.Destroy(label)

	// The instance survives but admission is refused: its library is gone.
	require.NotNil(t, m.LookupInstance(instID))
	require.NoError(t, m.NewFrame())
	ok, err := m.AddActiveInstance(instID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, m.Evaluate(0.1))
}

func TestEvaluateWritesSamples(t *testing.T) {
	m, instID, _ := frameFixture(t)

	require.NoError(t, m.NewFrame())
	ok, err := m.AddActiveInstance(instID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, m.Evaluate(0.1))

	inst := m.LookupInstance(instID)
	samples := m.InstanceSamples(inst)
	require.Len(t, samples, 9)
	for _, v := range samples {
		assert.Equal(t, float32(42), v)
	}
}

func TestPlay(t *testing.T) {
	m, instID, seq := frameFixture(t)

	jobID, err := m.Play(instID, Job{ClipIndex: 0})
	require.NoError(t, err)
	assert.NotEqual(t, InvalidJobID, jobID)

	jobID2, err := m.Play(instID, Job{ClipIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, jobID+1, jobID2)

	// Clip durations forwarded to the sequencer: length * key duration.
	require.Len(t, seq.durations, 2)
	assert.InDelta(t, 0.4, seq.durations[0], 1e-6)
	assert.InDelta(t, 0.8, seq.durations[1], 1e-6)

	t.Run("clip index out of range", func(t *testing.T) {
		jobID, err := m.Play(instID, Job{ClipIndex: 2})
		require.NoError(t, err)
		assert.Equal(t, InvalidJobID, jobID)
	})

	t.Run("sequencer refusal", func(t *testing.T) {
		seq.accept = false
		jobID, err := m.Play(instID, Job{ClipIndex: 0})
		require.NoError(t, err)
		assert.Equal(t, InvalidJobID, jobID)
		seq.accept = true
	})

	t.Run("unknown instance", func(t *testing.T) {
		jobID, err := m.Play(model.InvalidID, Job{ClipIndex: 0})
		require.NoError(t, err)
		assert.Equal(t, InvalidJobID, jobID)
	})

	t.Run("stop", func(t *testing.T) {
		jobID, err := m.Play(instID, Job{ClipIndex: 0})
		require.NoError(t, err)
		m.Stop(instID, jobID, false)
		require.NotEmpty(t, seq.stopped)
		assert.Equal(t, jobID, seq.stopped[len(seq.stopped)-1])
	})
}

func TestMetricsCollection(t *testing.T) {
	mc := &BasicMetricsCollector{}
	m, err := NewManager(testConfig(), WithMetricsCollector(mc))
	require.NoError(t, err)
	defer m.Discard()

	libID, err := m.CreateLibrary(humanSetup("human"))
	require.NoError(t, err)
	instID, err := m.CreateInstance(InstanceSetup{Library: libID, Sequencer: &stubSequencer{accept: true}})
	require.NoError(t, err)

	require.NoError(t, m.NewFrame())
	_, err = m.AddActiveInstance(instID)
	require.NoError(t, err)
	require.NoError(t, m.Evaluate(0.1))
	m.Destroy(model.LabelAll)

	assert.Equal(t, int64(2), mc.CreateCount.Load())
	assert.Equal(t, int64(0), mc.CreateErrors.Load())
	assert.Equal(t, int64(1), mc.AdmittedCount.Load())
	assert.Equal(t, int64(1), mc.EvaluateCount.Load())
	assert.Equal(t, int64(1), mc.SampledInstants.Load())
	assert.Equal(t, int64(2), mc.DestroyCount.Load())
}
