// Package capability answers questions about the client environment a request was built for.
package capability

// Detector reports whether a Flash-capable plugin is available.
// Implementations may fail; callers treat an error as "not available".
type Detector interface {
	FlashEnabled() (bool, error)
}

// Static is a Detector with a precomputed answer.
type Static bool

func (s Static) FlashEnabled() (bool, error) {
	return bool(s), nil
}

// Func adapts a plain function into a Detector.
type Func func() (bool, error)

func (f Func) FlashEnabled() (bool, error) {
	return f()
}

// Probe returns the detector's answer, or false when the detector is nil or fails.
func Probe(d Detector) bool {
	if d == nil {
		return false
	}
	enabled, err := d.FlashEnabled()
	if err != nil {
		return false
	}
	return enabled
}
