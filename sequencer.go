package anim

// JobID identifies one playback job handed out by Play. Ids increase
// monotonically per manager.
type JobID uint32

// InvalidJobID is returned when the sequencer rejects a play request.
const InvalidJobID JobID = 0

// Job describes a playback request for one clip of an instance's library.
type Job struct {
	// ClipIndex is the library-relative clip index.
	ClipIndex int
	// TrackIndex selects the sequencer track the job runs on.
	TrackIndex int
	// MixWeight scales the job's contribution when tracks mix.
	// Zero means 1.
	MixWeight float32
	// FadeIn and FadeOut are envelope durations in seconds.
	FadeIn  float32
	FadeOut float32
	// Duration is the playback duration in seconds; 0 plays the clip once.
	Duration float64
	// Loop wraps clip time instead of clamping at the last frame.
	Loop bool
}

// Sequencer is the per-instance playback engine: a job queue with
// time-based blending. The arena core treats it as an injected capability;
// package sequencer provides the default implementation.
//
// All times are absolute seconds on the manager's monotonic clock.
type Sequencer interface {
	// GarbageCollect drops jobs that are finished at time now.
	GarbageCollect(now float64)

	// Add enqueues a job. clipDuration is the clip's natural length in
	// seconds. It reports whether the job was accepted (e.g. a free track
	// was available).
	Add(now float64, id JobID, job Job, clipDuration float64) bool

	// Stop ends the identified job, fading out over the job's FadeOut
	// when allowFadeOut is set, immediately otherwise.
	Stop(now float64, id JobID, allowFadeOut bool)

	// StopTrack ends every job on the given track.
	StopTrack(now float64, trackIndex int, allowFadeOut bool)

	// StopAll ends every job.
	StopAll(now float64, allowFadeOut bool)

	// Eval samples all active jobs at time now and writes the mixed result
	// into out, which holds lib.Library.SampleStride floats. It returns
	// the number of floats written.
	Eval(lib *LibraryData, now float64, out []float32) int
}
