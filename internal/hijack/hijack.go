// Package hijack validates that a reinserted patch still writes at least
// the ROM addresses it wrote before, so the reused ROM never retains stale
// bytes from a write the new patch dropped.
package hijack

import "github.com/Norgate-AV/insert-engine/internal/report"

// GoneBad reports whether new is an unsafe replacement for old: true iff
// some address old wrote is absent from new. New writes absent from old are
// acceptable.
func GoneBad(old, new []report.Hijack) bool {
	written := addressSet(new)

	for _, h := range old {
		for addr := h.Address; addr < h.Address+h.Length; addr++ {
			if !written[addr] {
				return true
			}
		}
	}

	return false
}

func addressSet(hijacks []report.Hijack) map[uint32]bool {
	set := make(map[uint32]bool)

	for _, h := range hijacks {
		for addr := h.Address; addr < h.Address+h.Length; addr++ {
			set[addr] = true
		}
	}

	return set
}
