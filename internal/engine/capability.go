package engine

import "os/exec"

// capability records the result of a one-time PATH lookup for an external
// tool. The lookup happens at engine construction; call sites surface
// cap.err as a typed *CapabilityError.
type capability struct {
	path string
	err  error
}

func (c capability) available() bool {
	return c.err == nil
}

func lookupCapability(bin, fallback string) capability {
	if bin == "" {
		bin = fallback
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return capability{err: &CapabilityError{Tool: bin}}
	}
	return capability{path: path}
}
