package srv

import (
	"sort"

	"github.com/srvdns/srvdns-go/fastrand"
)

// Arrange orders records for failover: ascending priority, with each
// equal-priority group weighted-shuffled per the RFC 2782 usage rules.
//
// The returned slice is a permutation of records, ordered in place.
// The ordering within a priority group is one outcome of the random
// draw-without-replacement process and varies between calls.
func Arrange(records []Record) []Record {
	rng := fastrand.New()
	return arrange(records, &rng)
}

func arrange(records []Record, rng *fastrand.Fastrand) []Record {
	// Stable keeps arrival order within a priority group, so the
	// shuffle alone decides the final intra-group order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Priority < records[j].Priority
	})

	start := 0
	for i := 1; i < len(records); i++ {
		if records[i].Priority != records[start].Priority {
			weightedShuffle(records[start:i], rng)
			start = i
		}
	}
	weightedShuffle(records[start:], rng)

	return records
}

// weightedShuffle reorders one priority group in place by repeatedly
// drawing a record with probability proportional to its weight among
// those not yet drawn. Zero-weight records are only ever drawn once no
// positive-weight record remains.
func weightedShuffle(group []Record, rng *fastrand.Fastrand) {
	var total uint64
	for i := range group {
		total += uint64(group[i].Weight)
	}

	for len(group) > 1 {
		var picked int
		if total == 0 {
			// All remaining records carry weight 0: uniform draw.
			picked = int(rng.Uint64n(uint64(len(group))))
		} else {
			r := rng.Uint64n(total)
			var sum uint64
			for i := range group {
				sum += uint64(group[i].Weight)
				if sum > r {
					picked = i
					break
				}
			}
		}

		total -= uint64(group[picked].Weight)
		group[0], group[picked] = group[picked], group[0]
		group = group[1:]
	}
}
