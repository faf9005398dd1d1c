package anim

import "fmt"

// Config sizes every pool of the arena. All capacities are fixed at Setup;
// exhaustion is reported to the caller, never grown past.
type Config struct {
	MaxLibraries       int
	MaxSkeletons       int
	MaxInstances       int
	MaxActiveInstances int

	ClipPoolCapacity   int
	CurvePoolCapacity  int
	MatrixPoolCapacity int

	// KeyPoolCapacity is the keys region size in floats (permanent
	// per-library key storage).
	KeyPoolCapacity int
	// SamplePoolCapacity is the samples region size in floats (per-frame
	// scratch, reused every frame).
	SamplePoolCapacity int

	LabelStackCapacity int
	RegistryCapacity   int
}

// DefaultConfig returns a configuration sized for a small scene.
func DefaultConfig() Config {
	return Config{
		MaxLibraries:       16,
		MaxSkeletons:       16,
		MaxInstances:       128,
		MaxActiveInstances: 128,
		ClipPoolCapacity:   64,
		CurvePoolCapacity:  512,
		MatrixPoolCapacity: 512,
		KeyPoolCapacity:    64 * 1024,
		SamplePoolCapacity: 4 * 1024,
		LabelStackCapacity: 16,
		RegistryCapacity:   256,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	check := func(name string, v int) error {
		if v <= 0 {
			return fmt.Errorf("anim: config field %s must be positive, got %d", name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"MaxLibraries", c.MaxLibraries},
		{"MaxSkeletons", c.MaxSkeletons},
		{"MaxInstances", c.MaxInstances},
		{"MaxActiveInstances", c.MaxActiveInstances},
		{"ClipPoolCapacity", c.ClipPoolCapacity},
		{"CurvePoolCapacity", c.CurvePoolCapacity},
		{"MatrixPoolCapacity", c.MatrixPoolCapacity},
		{"KeyPoolCapacity", c.KeyPoolCapacity},
		{"SamplePoolCapacity", c.SamplePoolCapacity},
		{"LabelStackCapacity", c.LabelStackCapacity},
		{"RegistryCapacity", c.RegistryCapacity},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}
