// Package anim provides the resource arena backing a real-time
// character-animation subsystem.
//
// The arena owns all storage for animation libraries (clip collections),
// their clips, per-clip curves and the flat key data the curves sample
// from, plus a separate pool of skeleton bind matrices. Backing storage is
// a set of fixed-capacity, append-only, compactable arrays referenced by
// overlapping, nested views (offset+length windows). Destroying a library
// physically compacts its ranges out of each backing array and corrects the
// offsets of every surviving view.
//
// # Quick Start
//
//	mgr, err := anim.NewManager(anim.DefaultConfig())
//	if err != nil {
//	    panic(err)
//	}
//	defer mgr.Discard()
//
//	label, err := mgr.PushLabel()
//	if err != nil {
//	    panic(err)
//	}
//	libID, err := mgr.CreateLibrary(anim.LibrarySetup{
//	    Name:        "human",
//	    CurveLayout: []anim.CurveFormat{anim.Float3, anim.Float4},
//	    Clips: []anim.ClipSetup{
//	        {Name: "walk", Length: 30, KeyDuration: 1.0 / 30.0, Curves: []anim.CurveSetup{
//	            {Static: false},
//	            {Static: true, StaticValue: [4]float32{0, 0, 0, 1}},
//	        }},
//	    },
//	})
//	mgr.PopLabel()
//
// Per frame:
//
//	mgr.NewFrame()
//	mgr.AddActiveInstance(instID)
//	mgr.Evaluate(dt)
//
// Bulk teardown:
//
//	mgr.Destroy(label)
//
// The Manager is single-threaded by design: every operation runs to
// completion on the calling goroutine and no internal locking exists.
package anim
