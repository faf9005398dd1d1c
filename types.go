package anim

import (
	"github.com/yt-zgl/oryol-animation/internal/view"
	"github.com/yt-zgl/oryol-animation/model"
)

// InvalidIndex is the sentinel for "no index", used by static curves for
// their key index.
const InvalidIndex = -1

// CurveFormat is the component layout of an animated channel.
type CurveFormat uint8

const (
	// CurveInvalid is the zero, never-valid format.
	CurveInvalid CurveFormat = iota
	// Float2 is a 2-component vector channel.
	Float2
	// Float3 is a 3-component vector channel.
	Float3
	// Float4 is a 4-component vector channel.
	Float4
)

// Stride returns the number of floats one value of this format occupies.
func (f CurveFormat) Stride() int {
	switch f {
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	default:
		return 0
	}
}

func (f CurveFormat) String() string {
	switch f {
	case Float2:
		return "Float2"
	case Float3:
		return "Float3"
	case Float4:
		return "Float4"
	default:
		return "CurveInvalid"
	}
}

// Curve is one animated channel of a clip. A static curve never reads from
// the key buffer: it evaluates to StaticValue and its KeyIndex is
// InvalidIndex. A sampled curve reads NumValues floats at KeyIndex within
// each frame row of its owning clip.
type Curve struct {
	Format      CurveFormat
	Static      bool
	StaticValue [4]float32
	NumValues   int // == Format.Stride()
	KeyIndex    int // offset within one frame row; InvalidIndex if static
	KeyStride   int // == NumValues for sampled curves, 0 for static
}

// Clip is one animation sequence within a library.
type Clip struct {
	Name        string
	Length      int     // frame count
	KeyDuration float32 // seconds per frame row
	KeyStride   int     // floats per frame row (non-static curves only)
	Curves      view.Slice
	Keys        view.Slice // Keys.Len() == KeyStride * Length
}

// Duration returns the clip's playback length in seconds.
func (c *Clip) Duration() float64 {
	return float64(c.KeyDuration) * float64(c.Length)
}

// Library is a named collection of clips sharing one curve-format layout.
// Its Clips, Curves and Keys views each exactly enclose the union of the
// child clip views, contiguous and in clip order.
type Library struct {
	Name         string
	CurveLayout  []CurveFormat
	SampleStride int // floats per sample row (all layout entries, static included)
	Clips        view.Slice
	Curves       view.Slice
	Keys         view.Slice

	// clipIndex maps clip name to the clip's position within Clips.
	// Indices are library-relative so they survive clip pool compaction.
	clipIndex map[string]int
}

// ClipIndexByName returns the library-relative index of the named clip, or
// InvalidIndex when the library has no clip of that name.
func (l *Library) ClipIndexByName(name string) int {
	if i, ok := l.clipIndex[name]; ok {
		return i
	}
	return InvalidIndex
}

// Mat4 is a 4x4 float32 matrix in column-major order.
type Mat4 [16]float32

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Skeleton is a named bone hierarchy with bind-pose matrices. Matrices is a
// 2*NumBones window of the matrix pool; BindPose and InvBindPose are its
// first and second halves.
type Skeleton struct {
	Name          string
	NumBones      int
	Matrices      view.Slice
	BindPose      view.Slice
	InvBindPose   view.Slice
	ParentIndices []int
}

// Instance is a playback handle referencing a library and optionally a
// skeleton by id. The references are weak: if the library dies first the
// instance is refused admission until destroyed. Samples is only valid
// during the frame the instance was admitted.
type Instance struct {
	Library      model.ID
	Skeleton     model.ID
	Samples      view.Slice
	SkinMatrices view.Slice
	Sequencer    Sequencer
}

// CurveSetup describes one curve of one clip in a creation request.
type CurveSetup struct {
	Static      bool
	StaticValue [4]float32
}

// ClipSetup describes one clip in a creation request. The number of curves
// must equal the library layout's entry count.
type ClipSetup struct {
	Name        string
	Length      int
	KeyDuration float32
	Curves      []CurveSetup
}

// LibrarySetup is the creation request for a library.
type LibrarySetup struct {
	Name        string
	CurveLayout []CurveFormat
	Clips       []ClipSetup
}

// BoneSetup describes one bone of a skeleton creation request.
type BoneSetup struct {
	Name        string
	ParentIndex int
	BindPose    Mat4
	InvBindPose Mat4
}

// SkeletonSetup is the creation request for a skeleton.
type SkeletonSetup struct {
	Name  string
	Bones []BoneSetup
}

// InstanceSetup is the creation request for a playback instance.
type InstanceSetup struct {
	Library  model.ID
	Skeleton model.ID // optional
	// Sequencer overrides the default playback sequencer when non-nil.
	Sequencer Sequencer
}

// LibraryData is a resolved, read-only picture of one library's pool data.
// The slices alias pool storage and are invalidated by the next create or
// destroy; treat it as frame-transient.
type LibraryData struct {
	Library *Library
	Clips   []Clip
	Curves  []Curve
	Keys    []float32
}

// ClipCurves returns the curves of the clip at library-relative index i.
func (d *LibraryData) ClipCurves(i int) []Curve {
	c := &d.Clips[i]
	off := c.Curves.Offset() - d.Library.Curves.Offset()
	return d.Curves[off : off+c.Curves.Len()]
}

// ClipKeys returns the key floats of the clip at library-relative index i.
func (d *LibraryData) ClipKeys(i int) []float32 {
	c := &d.Clips[i]
	if c.Keys.IsEmpty() {
		return nil
	}
	off := c.Keys.Offset() - d.Library.Keys.Offset()
	return d.Keys[off : off+c.Keys.Len()]
}
