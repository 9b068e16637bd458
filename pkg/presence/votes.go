package presence

import "github.com/teslashibe/facelight/internal/log"

// VoteRecord holds every per-frame, per-model face count of one burst.
type VoteRecord []int

// Add records a single detector's count. Negative counts cannot come out of
// a detector; if one does it is logged and stored as 0.
func (v *VoteRecord) Add(count int) {
	if count < 0 {
		log.Warn("negative face count clamped", "count", count)
		count = 0
	}
	*v = append(*v, count)
}

// Aggregate returns the largest count in the record, or 0 if it is empty.
// It is a maximum, not an average or a majority vote.
func (v VoteRecord) Aggregate() int {
	best := 0
	for _, n := range v {
		if n > best {
			best = n
		}
	}
	return best
}
