package engine

import "fmt"

// TargetSpec is the caller's compression goal: either a percentage
// reduction of the original size or an absolute byte budget.
type TargetSpec struct {
	percent int
	bytes   int64
}

// ByPercent returns a target that shrinks the file by the given
// percentage. The reduction must be in (0, 100) exclusive.
func ByPercent(reduction int) TargetSpec {
	return TargetSpec{percent: reduction}
}

// ToBytes returns a target with an absolute byte budget.
func ToBytes(n int64) TargetSpec {
	return TargetSpec{bytes: n}
}

// IsPercent reports whether the target is a percentage reduction.
func (t TargetSpec) IsPercent() bool {
	return t.percent > 0
}

// Resolve converts the target into a concrete byte budget for the given
// original size.
func (t TargetSpec) Resolve(originalSize int64) int64 {
	if t.IsPercent() {
		return originalSize * int64(100-t.percent) / 100
	}
	return t.bytes
}

// Validate checks that exactly one goal is set and that it is sane.
func (t TargetSpec) Validate() error {
	switch {
	case t.percent != 0 && t.bytes != 0:
		return fmt.Errorf("target spec: percentage and byte budget are mutually exclusive")
	case t.percent != 0:
		if t.percent <= 0 || t.percent >= 100 {
			return fmt.Errorf("target spec: reduction must be between 1 and 99, got %d", t.percent)
		}
	case t.bytes <= 0:
		return fmt.Errorf("target spec: byte budget must be positive, got %d", t.bytes)
	}
	return nil
}

func (t TargetSpec) String() string {
	if t.IsPercent() {
		return fmt.Sprintf("%d%% reduction", t.percent)
	}
	return fmt.Sprintf("%d bytes", t.bytes)
}
