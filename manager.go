package anim

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/yt-zgl/oryol-animation/internal/carray"
	"github.com/yt-zgl/oryol-animation/internal/registry"
	"github.com/yt-zgl/oryol-animation/internal/slotpool"
	"github.com/yt-zgl/oryol-animation/internal/view"
	"github.com/yt-zgl/oryol-animation/model"
)

// Manager is the animation resource arena. It owns every pool and the
// shared float buffer; all operations run to completion on the calling
// goroutine and no internal locking exists. One Manager per scene.
type Manager struct {
	opts    options
	cfg     Config
	isValid bool

	res      *registry.Registry
	libPool  *slotpool.Pool[Library]
	skelPool *slotpool.Pool[Skeleton]
	instPool *slotpool.Pool[Instance]

	clipPool   *carray.Array[Clip]
	curvePool  *carray.Array[Curve]
	matrixPool *carray.Array[Mat4]

	// valuePool backs both float regions: keys first, samples after.
	valuePool []float32
	keys      *carray.FloatRegion
	samples   *carray.FloatRegion

	inFrame  bool
	active   []model.ID
	curTime  float64
	curJobID JobID
}

// NewManager creates a manager and sets it up with cfg.
func NewManager(cfg Config, optFns ...Option) (*Manager, error) {
	m := &Manager{opts: applyOptions(optFns)}
	if err := m.Setup(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Setup initializes all pools from cfg. The manager must not already be
// set up.
func (m *Manager) Setup(cfg Config) error {
	if m.isValid {
		return fmt.Errorf("anim: manager already set up")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	numValues := cfg.KeyPoolCapacity + cfg.SamplePoolCapacity
	poolBytes := int64(numValues) * 4
	if err := m.opts.controller.AcquireMemory(poolBytes); err != nil {
		return fmt.Errorf("anim: value pool reservation: %w", err)
	}

	m.cfg = cfg
	m.res = registry.New(cfg.LabelStackCapacity, cfg.RegistryCapacity)
	m.libPool = slotpool.New[Library](model.TypeLibrary, cfg.MaxLibraries)
	m.skelPool = slotpool.New[Skeleton](model.TypeSkeleton, cfg.MaxSkeletons)
	m.instPool = slotpool.New[Instance](model.TypeInstance, cfg.MaxInstances)
	m.clipPool = carray.New[Clip](cfg.ClipPoolCapacity)
	m.curvePool = carray.New[Curve](cfg.CurvePoolCapacity)
	m.matrixPool = carray.New[Mat4](cfg.MatrixPoolCapacity)
	m.valuePool = make([]float32, numValues)
	m.keys = carray.NewFloatRegion(m.valuePool[:cfg.KeyPoolCapacity])
	m.samples = carray.NewFloatRegion(m.valuePool[cfg.KeyPoolCapacity:])
	m.active = make([]model.ID, 0, cfg.MaxActiveInstances)
	m.inFrame = false
	m.curTime = 0
	m.curJobID = 0
	m.isValid = true
	return nil
}

// Discard destroys every resource and releases the value pool. The manager
// is unusable until Setup is called again.
func (m *Manager) Discard() error {
	if !m.isValid {
		return ErrNotSetup
	}
	m.Destroy(model.LabelAll)
	m.opts.controller.ReleaseMemory(int64(len(m.valuePool)) * 4)
	m.valuePool = nil
	m.keys = nil
	m.samples = nil
	m.active = nil
	m.isValid = false
	return nil
}

// IsValid reports whether the manager is set up.
func (m *Manager) IsValid() bool { return m.isValid }

// PushLabel allocates a fresh destruction label and makes it current.
func (m *Manager) PushLabel() (model.Label, error) {
	if !m.isValid {
		return 0, ErrNotSetup
	}
	return m.res.PushLabel()
}

// PopLabel removes and returns the current destruction label.
func (m *Manager) PopLabel() (model.Label, error) {
	if !m.isValid {
		return 0, ErrNotSetup
	}
	return m.res.PopLabel()
}

// Destroy tears down every resource registered under label
// (model.LabelAll for everything) and returns the number destroyed.
func (m *Manager) Destroy(label model.Label) int {
	if !m.isValid {
		return 0
	}
	start := time.Now()
	ids := m.res.RemoveAll(label)
	for _, id := range ids {
		switch id.Type() {
		case model.TypeLibrary:
			m.destroyLibrary(id)
		case model.TypeSkeleton:
			m.destroySkeleton(id)
		case model.TypeInstance:
			m.destroyInstance(id)
		}
	}
	m.opts.metrics.RecordDestroy(len(ids), time.Since(start))
	m.opts.logger.LogDestroy(label, len(ids))
	return len(ids)
}

// CreateLibrary validates setup and commits a new library, or returns the
// existing id when a library of that name already exists. On any
// validation failure nothing is mutated and the invalid id is returned
// with the error.
func (m *Manager) CreateLibrary(setup LibrarySetup) (model.ID, error) {
	start := time.Now()
	id, err := m.createLibrary(setup)
	m.opts.metrics.RecordCreate("library", time.Since(start), err)
	m.opts.logger.LogCreate("library", setup.Name, id, err)
	return id, err
}

func (m *Manager) createLibrary(setup LibrarySetup) (model.ID, error) {
	if !m.isValid {
		return model.InvalidID, ErrNotSetup
	}
	if setup.Name == "" {
		return model.InvalidID, fmt.Errorf("anim: library setup requires a name")
	}
	if len(setup.CurveLayout) == 0 || len(setup.Clips) == 0 {
		return model.InvalidID, fmt.Errorf("anim: library setup requires a curve layout and at least one clip")
	}

	// Idempotent lookup-or-create.
	if id := m.res.Lookup(setup.Name); id.IsValid() {
		return id, nil
	}

	// Validate everything before any mutation.
	if m.libPool.Len() == m.libPool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "library", Need: 1, Have: m.libPool.Len(), Capacity: m.libPool.Cap()}
	}
	if m.res.Len() == m.cfg.RegistryCapacity {
		return model.InvalidID, &ErrPoolExhausted{Pool: "registry", Need: 1, Have: m.res.Len(), Capacity: m.cfg.RegistryCapacity}
	}
	if m.clipPool.Len()+len(setup.Clips) > m.clipPool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "clip", Need: len(setup.Clips), Have: m.clipPool.Len(), Capacity: m.clipPool.Cap()}
	}
	numNewCurves := len(setup.Clips) * len(setup.CurveLayout)
	if m.curvePool.Len()+numNewCurves > m.curvePool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "curve", Need: numNewCurves, Have: m.curvePool.Len(), Capacity: m.curvePool.Cap()}
	}
	libNumKeys := 0
	for _, clipSetup := range setup.Clips {
		if len(clipSetup.Curves) != len(setup.CurveLayout) {
			return model.InvalidID, &ErrCurveLayoutMismatch{Clip: clipSetup.Name, Got: len(clipSetup.Curves), Want: len(setup.CurveLayout)}
		}
		for i, curveSetup := range clipSetup.Curves {
			if !curveSetup.Static {
				libNumKeys += clipSetup.Length * setup.CurveLayout[i].Stride()
			}
		}
	}
	if m.keys.Used()+libNumKeys > m.keys.Size() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "key", Need: libNumKeys, Have: m.keys.Used(), Capacity: m.keys.Size()}
	}

	// Commit. Nothing below can fail: every capacity was checked above.
	id, err := m.libPool.AllocID()
	if err != nil {
		return model.InvalidID, err
	}
	lib := Library{
		Name:        setup.Name,
		CurveLayout: append([]CurveFormat(nil), setup.CurveLayout...),
		clipIndex:   make(map[string]int, len(setup.Clips)),
	}
	for _, format := range setup.CurveLayout {
		lib.SampleStride += format.Stride()
	}

	clipPoolStart := m.clipPool.Len()
	curvePoolStart := m.curvePool.Len()
	keyStart := m.keys.Used()
	for i, clipSetup := range setup.Clips {
		lib.clipIndex[clipSetup.Name] = i
		clip := Clip{
			Name:        clipSetup.Name,
			Length:      clipSetup.Length,
			KeyDuration: clipSetup.KeyDuration,
		}
		curveStart := m.curvePool.Len()
		for j, curveSetup := range clipSetup.Curves {
			curve := Curve{
				Format:      setup.CurveLayout[j],
				Static:      curveSetup.Static,
				StaticValue: curveSetup.StaticValue,
				NumValues:   setup.CurveLayout[j].Stride(),
				KeyIndex:    InvalidIndex,
			}
			if !curve.Static {
				curve.KeyIndex = clip.KeyStride
				curve.KeyStride = curve.NumValues
				clip.KeyStride += curve.KeyStride
			}
			mustPush(m.curvePool, curve)
		}
		clip.Curves = view.Make(curveStart, len(clipSetup.Curves))
		if clipNumKeys := clip.KeyStride * clip.Length; clipNumKeys > 0 {
			off, allocErr := m.keys.Alloc(clipNumKeys)
			if allocErr != nil {
				panic("anim: key region changed size during commit")
			}
			clip.Keys = view.Make(off, clipNumKeys)
		}
		mustPush(m.clipPool, clip)
	}
	lib.Keys = view.Make(keyStart, libNumKeys)
	lib.Curves = view.Make(curvePoolStart, numNewCurves)
	lib.Clips = view.Make(clipPoolStart, len(setup.Clips))

	// Seed every key with its curve's static value so clips evaluate to
	// sensible constants before real sample data is uploaded.
	for _, clip := range m.clipPool.Window(lib.Clips.Offset(), lib.Clips.Len()) {
		if clip.Keys.IsEmpty() {
			continue
		}
		keys := m.keys.Window(clip.Keys.Offset(), clip.Keys.Len())
		curves := m.curvePool.Window(clip.Curves.Offset(), clip.Curves.Len())
		for row := 0; row < clip.Length; row++ {
			off := row * clip.KeyStride
			for _, curve := range curves {
				for i := 0; i < curve.KeyStride; i++ {
					keys[off] = curve.StaticValue[i]
					off++
				}
			}
		}
	}

	m.libPool.Assign(id, lib, model.StateSetup)
	if addErr := m.res.Add(setup.Name, id, m.res.PeekLabel()); addErr != nil {
		panic("anim: registry changed size during commit")
	}
	m.libPool.UpdateState(id, model.StateValid)
	return id, nil
}

// LookupByName resolves a resource name to its id, or InvalidID when no
// resource of that name is registered.
func (m *Manager) LookupByName(name string) model.ID {
	if !m.isValid {
		return model.InvalidID
	}
	return m.res.Lookup(name)
}

// LookupLibrary resolves id to a library, or nil when the id is stale,
// of the wrong type, or unknown.
func (m *Manager) LookupLibrary(id model.ID) *Library {
	if !m.isValid {
		return nil
	}
	return m.libPool.Lookup(id)
}

// LibraryData resolves a library's views into direct pool slices. The
// result aliases pool storage and is invalidated by the next create or
// destroy.
func (m *Manager) LibraryData(id model.ID) *LibraryData {
	lib := m.LookupLibrary(id)
	if lib == nil {
		return nil
	}
	return &LibraryData{
		Library: lib,
		Clips:   m.clipPool.Window(lib.Clips.Offset(), lib.Clips.Len()),
		Curves:  m.curvePool.Window(lib.Curves.Offset(), lib.Curves.Len()),
		Keys:    m.keys.Window(lib.Keys.Offset(), lib.Keys.Len()),
	}
}

func (m *Manager) destroyLibrary(id model.ID) {
	if lib := m.libPool.Lookup(id); lib != nil {
		// Capture the ranges while the library is still fully valid.
		keysRange, curvesRange, clipsRange := lib.Keys, lib.Curves, lib.Clips
		m.removeKeys(keysRange)
		m.removeCurves(curvesRange)
		m.removeClips(clipsRange)
	}
	m.libPool.Unassign(id)
}

// CreateSkeleton validates setup and commits a new skeleton, or returns
// the existing id when a skeleton of that name already exists.
func (m *Manager) CreateSkeleton(setup SkeletonSetup) (model.ID, error) {
	start := time.Now()
	id, err := m.createSkeleton(setup)
	m.opts.metrics.RecordCreate("skeleton", time.Since(start), err)
	m.opts.logger.LogCreate("skeleton", setup.Name, id, err)
	return id, err
}

func (m *Manager) createSkeleton(setup SkeletonSetup) (model.ID, error) {
	if !m.isValid {
		return model.InvalidID, ErrNotSetup
	}
	if setup.Name == "" {
		return model.InvalidID, fmt.Errorf("anim: skeleton setup requires a name")
	}
	if len(setup.Bones) == 0 {
		return model.InvalidID, fmt.Errorf("anim: skeleton setup requires at least one bone")
	}

	if id := m.res.Lookup(setup.Name); id.IsValid() {
		return id, nil
	}

	if m.skelPool.Len() == m.skelPool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "skeleton", Need: 1, Have: m.skelPool.Len(), Capacity: m.skelPool.Cap()}
	}
	if m.res.Len() == m.cfg.RegistryCapacity {
		return model.InvalidID, &ErrPoolExhausted{Pool: "registry", Need: 1, Have: m.res.Len(), Capacity: m.cfg.RegistryCapacity}
	}
	numMatrices := len(setup.Bones) * 2
	if m.matrixPool.Len()+numMatrices > m.matrixPool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "matrix", Need: numMatrices, Have: m.matrixPool.Len(), Capacity: m.matrixPool.Cap()}
	}

	id, err := m.skelPool.AllocID()
	if err != nil {
		return model.InvalidID, err
	}
	numBones := len(setup.Bones)
	skel := Skeleton{
		Name:          setup.Name,
		NumBones:      numBones,
		ParentIndices: make([]int, numBones),
	}
	matrixStart := m.matrixPool.Len()
	for _, bone := range setup.Bones {
		mustPush(m.matrixPool, bone.BindPose)
	}
	for _, bone := range setup.Bones {
		mustPush(m.matrixPool, bone.InvBindPose)
	}
	skel.Matrices = view.Make(matrixStart, numBones*2)
	skel.BindPose = skel.Matrices.Sub(0, numBones)
	skel.InvBindPose = skel.Matrices.Sub(numBones, numBones)
	for i, bone := range setup.Bones {
		skel.ParentIndices[i] = bone.ParentIndex
	}

	m.skelPool.Assign(id, skel, model.StateSetup)
	if addErr := m.res.Add(setup.Name, id, m.res.PeekLabel()); addErr != nil {
		panic("anim: registry changed size during commit")
	}
	m.skelPool.UpdateState(id, model.StateValid)
	return id, nil
}

// LookupSkeleton resolves id to a skeleton, or nil on a miss.
func (m *Manager) LookupSkeleton(id model.ID) *Skeleton {
	if !m.isValid {
		return nil
	}
	return m.skelPool.Lookup(id)
}

func (m *Manager) destroySkeleton(id model.ID) {
	if skel := m.skelPool.Lookup(id); skel != nil {
		m.removeMatrices(skel.Matrices)
	}
	m.skelPool.Unassign(id)
}

// CreateInstance creates a playback instance referencing a library and
// optionally a skeleton. Instances are registered anonymously under the
// current label.
func (m *Manager) CreateInstance(setup InstanceSetup) (model.ID, error) {
	start := time.Now()
	id, err := m.createInstance(setup)
	m.opts.metrics.RecordCreate("instance", time.Since(start), err)
	return id, err
}

func (m *Manager) createInstance(setup InstanceSetup) (model.ID, error) {
	if !m.isValid {
		return model.InvalidID, ErrNotSetup
	}
	if m.LookupLibrary(setup.Library) == nil {
		return model.InvalidID, fmt.Errorf("anim: instance setup requires a valid library id")
	}
	if setup.Skeleton.IsValid() && m.LookupSkeleton(setup.Skeleton) == nil {
		return model.InvalidID, fmt.Errorf("anim: instance setup references an unknown skeleton")
	}
	if m.instPool.Len() == m.instPool.Cap() {
		return model.InvalidID, &ErrPoolExhausted{Pool: "instance", Need: 1, Have: m.instPool.Len(), Capacity: m.instPool.Cap()}
	}
	if m.res.Len() == m.cfg.RegistryCapacity {
		return model.InvalidID, &ErrPoolExhausted{Pool: "registry", Need: 1, Have: m.res.Len(), Capacity: m.cfg.RegistryCapacity}
	}

	id, err := m.instPool.AllocID()
	if err != nil {
		return model.InvalidID, err
	}
	seq := setup.Sequencer
	if seq == nil && m.opts.seqFactory != nil {
		seq = m.opts.seqFactory()
	}
	inst := Instance{
		Library:   setup.Library,
		Skeleton:  setup.Skeleton,
		Sequencer: seq,
	}
	m.instPool.Assign(id, inst, model.StateSetup)
	if addErr := m.res.Add("", id, m.res.PeekLabel()); addErr != nil {
		panic("anim: registry changed size during commit")
	}
	m.instPool.UpdateState(id, model.StateValid)
	return id, nil
}

// LookupInstance resolves id to an instance, or nil on a miss.
func (m *Manager) LookupInstance(id model.ID) *Instance {
	if !m.isValid {
		return nil
	}
	return m.instPool.Lookup(id)
}

func (m *Manager) destroyInstance(id model.ID) {
	// Instances never own arena ranges; releasing the slot is enough.
	m.instPool.Unassign(id)
}

// WriteKeys overwrites the library's persistent key storage with data,
// which must hold exactly lib.Keys.Len()*4 little-endian float bytes.
func (m *Manager) WriteKeys(id model.ID, data []byte) error {
	if !m.isValid {
		return ErrNotSetup
	}
	lib := m.libPool.Lookup(id)
	if lib == nil {
		return fmt.Errorf("anim: write keys: unknown library %s", id)
	}
	want := lib.Keys.Len() * 4
	if len(data) != want {
		err := &ErrWrongKeyByteCount{Got: len(data), Want: want}
		m.opts.logger.LogWriteKeys(lib.Name, len(data), err)
		return err
	}
	keys := m.keys.Window(lib.Keys.Offset(), lib.Keys.Len())
	for i := range keys {
		keys[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	m.opts.logger.LogWriteKeys(lib.Name, len(data), nil)
	return nil
}

// removeKeys erases a key range and corrects the key views of every
// surviving library and clip. The erased range is always a whole owned
// subtree, so surviving views lie entirely before or after it.
func (m *Manager) removeKeys(r view.Slice) {
	if r.IsEmpty() {
		return
	}
	m.keys.EraseRange(r.Offset(), r.Len())
	m.libPool.Each(func(_ model.ID, lib *Library) bool {
		lib.Keys.FillGap(r.Offset(), r.Len())
		return true
	})
	for i := 0; i < m.clipPool.Len(); i++ {
		m.clipPool.At(i).Keys.FillGap(r.Offset(), r.Len())
	}
}

// removeCurves erases a curve range and corrects the curve views of every
// surviving library and clip.
func (m *Manager) removeCurves(r view.Slice) {
	if r.IsEmpty() {
		return
	}
	m.curvePool.EraseRange(r.Offset(), r.Len())
	m.libPool.Each(func(_ model.ID, lib *Library) bool {
		lib.Curves.FillGap(r.Offset(), r.Len())
		return true
	})
	for i := 0; i < m.clipPool.Len(); i++ {
		m.clipPool.At(i).Curves.FillGap(r.Offset(), r.Len())
	}
}

// removeClips erases a clip range and corrects the clip views of every
// surviving library.
func (m *Manager) removeClips(r view.Slice) {
	if r.IsEmpty() {
		return
	}
	m.clipPool.EraseRange(r.Offset(), r.Len())
	m.libPool.Each(func(_ model.ID, lib *Library) bool {
		lib.Clips.FillGap(r.Offset(), r.Len())
		return true
	})
}

// removeMatrices erases a matrix range and corrects the matrix views of
// every surviving skeleton.
func (m *Manager) removeMatrices(r view.Slice) {
	if r.IsEmpty() {
		return
	}
	m.matrixPool.EraseRange(r.Offset(), r.Len())
	m.skelPool.Each(func(_ model.ID, skel *Skeleton) bool {
		skel.Matrices.FillGap(r.Offset(), r.Len())
		skel.BindPose.FillGap(r.Offset(), r.Len())
		skel.InvBindPose.FillGap(r.Offset(), r.Len())
		return true
	})
}

// mustPush appends to a compacting array whose capacity was verified
// during validation.
func mustPush[T any](a *carray.Array[T], item T) {
	if _, err := a.Push(item); err != nil {
		panic("anim: pool changed size during commit")
	}
}

// Stats is a point-in-time picture of pool occupancy.
type Stats struct {
	Libraries int
	Skeletons int
	Instances int
	Clips     int
	Curves    int
	Matrices  int
	NumKeys   int
	// MemoryUsage is the reserved value-pool bytes when a memory limit is
	// configured, 0 otherwise.
	MemoryUsage int64
}

// QueryStats returns current pool occupancy.
func (m *Manager) QueryStats() Stats {
	if !m.isValid {
		return Stats{}
	}
	return Stats{
		Libraries:   m.libPool.Len(),
		Skeletons:   m.skelPool.Len(),
		Instances:   m.instPool.Len(),
		Clips:       m.clipPool.Len(),
		Curves:      m.curvePool.Len(),
		Matrices:    m.matrixPool.Len(),
		NumKeys:     m.keys.Used(),
		MemoryUsage: m.opts.controller.MemoryUsage(),
	}
}
