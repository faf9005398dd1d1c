package anim

import (
	"time"

	"github.com/yt-zgl/oryol-animation/internal/view"
	"github.com/yt-zgl/oryol-animation/model"
)

// NewFrame opens a new evaluation frame. The previous frame's transient
// sample views are invalidated and the sample region is reclaimed
// wholesale.
func (m *Manager) NewFrame() error {
	if !m.isValid {
		return ErrNotSetup
	}
	if m.inFrame {
		return ErrInFrame
	}
	for _, id := range m.active {
		if inst := m.instPool.Lookup(id); inst != nil {
			inst.Samples = view.Slice{}
			inst.SkinMatrices = view.Slice{}
		}
	}
	m.active = m.active[:0]
	m.samples.Reset()
	m.inFrame = true
	return nil
}

// AddActiveInstance admits an instance into the current frame. Admission
// is refused, without error and without mutation, when the active set or
// the sample region is full, or when the instance's library has been
// destroyed since the instance was created.
func (m *Manager) AddActiveInstance(id model.ID) (bool, error) {
	if !m.isValid {
		return false, ErrNotSetup
	}
	if !m.inFrame {
		return false, ErrNotInFrame
	}
	inst := m.instPool.Lookup(id)
	if inst == nil {
		return false, nil
	}
	lib := m.libPool.Lookup(inst.Library)
	if lib == nil {
		m.opts.metrics.RecordAdmission(false)
		return false, nil
	}
	if len(m.active) == cap(m.active) {
		m.opts.metrics.RecordAdmission(false)
		return false, nil
	}
	off, err := m.samples.Alloc(lib.SampleStride)
	if err != nil {
		m.opts.metrics.RecordAdmission(false)
		return false, nil
	}
	inst.Samples = view.Make(off, lib.SampleStride)
	m.active = append(m.active, id)
	m.opts.metrics.RecordAdmission(true)
	return true, nil
}

// Evaluate advances the manager clock by dt seconds and samples every
// admitted instance's sequencer into its per-frame sample view, then
// closes the frame. Sample views stay readable until the next NewFrame.
func (m *Manager) Evaluate(dt float64) error {
	if !m.isValid {
		return ErrNotSetup
	}
	if !m.inFrame {
		return ErrNotInFrame
	}
	start := time.Now()
	m.curTime += dt
	for _, id := range m.active {
		inst := m.instPool.Lookup(id)
		if inst == nil || inst.Sequencer == nil {
			continue
		}
		data := m.LibraryData(inst.Library)
		if data == nil {
			continue
		}
		inst.Sequencer.GarbageCollect(m.curTime)
		out := m.samples.Window(inst.Samples.Offset(), inst.Samples.Len())
		inst.Sequencer.Eval(data, m.curTime, out)
	}
	m.inFrame = false
	m.opts.metrics.RecordEvaluate(len(m.active), time.Since(start))
	return nil
}

// CurrentTime returns the manager clock in seconds.
func (m *Manager) CurrentTime() float64 { return m.curTime }

// InstanceSamples resolves an instance's per-frame sample view into the
// sample region. The slice is empty when the instance was not admitted
// this frame, and is invalidated by the next NewFrame.
func (m *Manager) InstanceSamples(inst *Instance) []float32 {
	if !m.isValid || inst == nil || inst.Samples.IsEmpty() {
		return nil
	}
	return m.samples.Window(inst.Samples.Offset(), inst.Samples.Len())
}

// Play enqueues job on the instance's sequencer and returns the job id,
// or InvalidJobID when the instance or its library is gone, the clip
// index is out of range, or the sequencer refuses the job.
func (m *Manager) Play(instID model.ID, job Job) (JobID, error) {
	if !m.isValid {
		return InvalidJobID, ErrNotSetup
	}
	inst := m.instPool.Lookup(instID)
	if inst == nil || inst.Sequencer == nil {
		return InvalidJobID, nil
	}
	lib := m.libPool.Lookup(inst.Library)
	if lib == nil {
		return InvalidJobID, nil
	}
	if job.ClipIndex < 0 || job.ClipIndex >= lib.Clips.Len() {
		return InvalidJobID, nil
	}
	inst.Sequencer.GarbageCollect(m.curTime)
	clip := m.clipPool.At(lib.Clips.Offset() + job.ClipIndex)
	m.curJobID++
	if m.curJobID == InvalidJobID {
		m.curJobID++
	}
	if !inst.Sequencer.Add(m.curTime, m.curJobID, job, clip.Duration()) {
		return InvalidJobID, nil
	}
	return m.curJobID, nil
}

// Stop ends a single job, fading it out when allowFadeOut is set.
func (m *Manager) Stop(instID model.ID, jobID JobID, allowFadeOut bool) {
	if inst := m.lookupSequenced(instID); inst != nil {
		inst.Sequencer.Stop(m.curTime, jobID, allowFadeOut)
		inst.Sequencer.GarbageCollect(m.curTime)
	}
}

// StopTrack ends every job on a track.
func (m *Manager) StopTrack(instID model.ID, trackIndex int, allowFadeOut bool) {
	if inst := m.lookupSequenced(instID); inst != nil {
		inst.Sequencer.StopTrack(m.curTime, trackIndex, allowFadeOut)
		inst.Sequencer.GarbageCollect(m.curTime)
	}
}

// StopAll ends every job on the instance.
func (m *Manager) StopAll(instID model.ID, allowFadeOut bool) {
	if inst := m.lookupSequenced(instID); inst != nil {
		inst.Sequencer.StopAll(m.curTime, allowFadeOut)
		inst.Sequencer.GarbageCollect(m.curTime)
	}
}

func (m *Manager) lookupSequenced(instID model.ID) *Instance {
	if !m.isValid {
		return nil
	}
	inst := m.instPool.Lookup(instID)
	if inst == nil || inst.Sequencer == nil {
		return nil
	}
	return inst
}
