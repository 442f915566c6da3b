package region

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Stats summarises the point counts of a region document.
type Stats struct {
	Regions int `json:"regions"`
	Points  int `json:"points"`
	Max     int `json:"max"`
	P50     int `json:"p50"`
	P90     int `json:"p90"`
	P99     int `json:"p99"`
}

func (s Stats) String() string {
	return fmt.Sprintf("regions: %d  points: %d  max: %d  p50: %d  p90: %d  p99: %d",
		s.Regions, s.Points, s.Max, s.P50, s.P90, s.P99)
}

// Counts returns the contour length of every region.
func Counts(regions []Region) []int {
	out := make([]int, len(regions))
	for i, r := range regions {
		out[i] = len(r.Contour)
	}
	return out
}

// RawCounts returns the raw contour length of every record in a document,
// before any validation. Records without a contour list count as zero.
func RawCounts(data []byte) ([]int, error) {
	recs, err := records(data)
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, len(recs))
	for _, raw := range recs {
		var rec struct {
			Contour []json.RawMessage `json:"contour"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			out = append(out, 0)
			continue
		}
		out = append(out, len(rec.Contour))
	}
	return out, nil
}

// ComputeStats computes the summary for a list of point counts. P90 and P99
// fall back to the maximum when there are fewer than 10 or 100 counts.
func ComputeStats(counts []int) Stats {
	s := Stats{Regions: len(counts)}
	if len(counts) == 0 {
		return s
	}

	sorted := slices.Clone(counts)
	slices.Sort(sorted)
	for _, c := range sorted {
		s.Points += c
	}
	s.Max = sorted[len(sorted)-1]
	s.P50 = int(median(sorted))

	s.P90, s.P99 = s.Max, s.Max
	if len(sorted) >= 10 {
		s.P90 = int(lastQuantile(sorted, 10))
	}
	if len(sorted) >= 100 {
		s.P99 = int(lastQuantile(sorted, 100))
	}
	return s
}

func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// lastQuantile returns the highest of the n-1 cut points dividing sorted into
// n groups, using the exclusive method with linear interpolation.
func lastQuantile(sorted []int, n int) float64 {
	ld := len(sorted)
	m := ld + 1
	i := n - 1

	j := i * m / n
	j = max(1, min(ld-1, j))
	delta := i*m - j*n

	return float64(sorted[j-1]*(n-delta)+sorted[j]*delta) / float64(n)
}
