// Package sequencer provides the default playback engine for animation
// instances: a small fixed-size job queue with per-job fade envelopes,
// track-based preemption and weighted mixing of sampled clips.
package sequencer

import (
	"math"

	anim "github.com/yt-zgl/oryol-animation"
)

const (
	defaultMaxJobs = 16

	// weightEpsilon is the mix-weight sum below which a sample row is
	// considered silent.
	weightEpsilon = 1e-6
)

type options struct {
	maxJobs int
}

// Option configures a Sequencer.
type Option func(*options)

// WithMaxJobs caps the number of queued jobs. Add refuses once the queue
// is full after garbage collection.
func WithMaxJobs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxJobs = n
		}
	}
}

// item is one queued playback job with its absolute activation window.
type item struct {
	id      anim.JobID
	job     anim.Job
	start   float64
	end     float64 // math.Inf(1) for unbounded loops
	clipDur float64
	valid   bool
}

// weight returns the item's mix contribution at time now: 0 outside the
// activation window, ramping over the fade envelopes inside it.
func (it *item) weight(now float64) float64 {
	if !it.valid || now < it.start || now >= it.end {
		return 0
	}
	w := 1.0
	if fadeIn := float64(it.job.FadeIn); fadeIn > 0 && now < it.start+fadeIn {
		w = (now - it.start) / fadeIn
	}
	if fadeOut := float64(it.job.FadeOut); fadeOut > 0 && !math.IsInf(it.end, 1) && now > it.end-fadeOut {
		if wo := (it.end - now) / fadeOut; wo < w {
			w = wo
		}
	}
	if it.job.MixWeight > 0 {
		w *= float64(it.job.MixWeight)
	}
	return w
}

// Sequencer is the default anim.Sequencer implementation. It is not safe
// for concurrent use; like the arena itself it expects a single driving
// goroutine.
type Sequencer struct {
	items []item
}

var _ anim.Sequencer = (*Sequencer)(nil)

// New creates an empty sequencer.
func New(optFns ...Option) *Sequencer {
	o := options{maxJobs: defaultMaxJobs}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return &Sequencer{items: make([]item, 0, o.maxJobs)}
}

// Factory adapts New for anim.WithSequencerFactory.
func Factory(optFns ...Option) func() anim.Sequencer {
	return func() anim.Sequencer { return New(optFns...) }
}

// GarbageCollect implements anim.Sequencer.
func (s *Sequencer) GarbageCollect(now float64) {
	n := 0
	for _, it := range s.items {
		if it.valid && now < it.end {
			s.items[n] = it
			n++
		}
	}
	s.items = s.items[:n]
}

// Add implements anim.Sequencer. A new job preempts jobs already running
// on its track: they fade out across the new job's fade-in window.
func (s *Sequencer) Add(now float64, id anim.JobID, job anim.Job, clipDuration float64) bool {
	if len(s.items) == cap(s.items) {
		return false
	}
	it := item{
		id:      id,
		job:     job,
		start:   now,
		clipDur: clipDuration,
		valid:   true,
	}
	switch {
	case job.Duration > 0:
		it.end = now + job.Duration
	case job.Loop:
		it.end = math.Inf(1)
	default:
		it.end = now + clipDuration
	}
	if it.end <= it.start && !math.IsInf(it.end, 1) {
		return false
	}
	for i := range s.items {
		other := &s.items[i]
		if other.valid && other.job.TrackIndex == job.TrackIndex {
			s.stopItem(other, now+float64(job.FadeIn), true)
		}
	}
	s.items = append(s.items, it)
	return true
}

// Stop implements anim.Sequencer.
func (s *Sequencer) Stop(now float64, id anim.JobID, allowFadeOut bool) {
	for i := range s.items {
		if s.items[i].id == id {
			s.stopItem(&s.items[i], now, allowFadeOut)
			return
		}
	}
}

// StopTrack implements anim.Sequencer.
func (s *Sequencer) StopTrack(now float64, trackIndex int, allowFadeOut bool) {
	for i := range s.items {
		if s.items[i].job.TrackIndex == trackIndex {
			s.stopItem(&s.items[i], now, allowFadeOut)
		}
	}
}

// StopAll implements anim.Sequencer.
func (s *Sequencer) StopAll(now float64, allowFadeOut bool) {
	for i := range s.items {
		s.stopItem(&s.items[i], now, allowFadeOut)
	}
}

func (s *Sequencer) stopItem(it *item, at float64, allowFadeOut bool) {
	if !it.valid {
		return
	}
	end := at
	if allowFadeOut {
		end += float64(it.job.FadeOut)
	}
	if end < it.end {
		it.end = end
	}
	if it.end <= it.start {
		it.valid = false
	}
}

// NumJobs returns the number of queued jobs, expired ones included until
// the next GarbageCollect.
func (s *Sequencer) NumJobs() int { return len(s.items) }

// Eval implements anim.Sequencer: it samples every active job's clip at
// time now and writes the weight-normalized mix into out, which must hold
// SampleStride floats. Out is zero-filled when no job contributes.
func (s *Sequencer) Eval(lib *anim.LibraryData, now float64, out []float32) int {
	for i := range out {
		out[i] = 0
	}
	var wsum float64
	for i := range s.items {
		it := &s.items[i]
		w := it.weight(now)
		if w <= 0 {
			continue
		}
		s.sampleClip(lib, it, now, w, out)
		wsum += w
	}
	if wsum < weightEpsilon {
		// Drop un-normalizable micro-contributions; the row is silent.
		for i := range out {
			out[i] = 0
		}
		return 0
	}
	if inv := float32(1 / wsum); inv != 1 {
		for i := range out {
			out[i] *= inv
		}
	}
	return len(out)
}

// sampleClip accumulates w * sample(clip, now) into out. Static curves
// contribute their static value; animated curves linearly interpolate
// between neighboring key rows.
func (s *Sequencer) sampleClip(lib *anim.LibraryData, it *item, now float64, w float64, out []float32) {
	clipIndex := it.job.ClipIndex
	if clipIndex < 0 || clipIndex >= len(lib.Clips) {
		return
	}
	clip := &lib.Clips[clipIndex]
	curves := lib.ClipCurves(clipIndex)
	keys := lib.ClipKeys(clipIndex)

	t := now - it.start
	if it.job.Loop && it.clipDur > 0 {
		t = math.Mod(t, it.clipDur)
		if t < 0 {
			t += it.clipDur
		}
	}
	row0, row1, lerp := 0, 0, float32(0)
	if clip.KeyDuration > 0 && clip.Length > 1 {
		frame := t / float64(clip.KeyDuration)
		row0 = int(frame)
		if row0 >= clip.Length-1 {
			row0 = clip.Length - 1
			row1 = row0
		} else {
			if row0 < 0 {
				row0 = 0
			}
			row1 = row0 + 1
			lerp = float32(frame - float64(row0))
		}
	}

	wf := float32(w)
	outIndex := 0
	for _, curve := range curves {
		if curve.Static {
			for k := 0; k < curve.NumValues; k++ {
				out[outIndex+k] += wf * curve.StaticValue[k]
			}
		} else {
			k0 := row0*clip.KeyStride + curve.KeyIndex
			k1 := row1*clip.KeyStride + curve.KeyIndex
			for k := 0; k < curve.NumValues; k++ {
				v0 := keys[k0+k]
				v1 := keys[k1+k]
				out[outIndex+k] += wf * (v0 + (v1-v0)*lerp)
			}
		}
		outIndex += curve.NumValues
	}
}
