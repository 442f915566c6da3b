package engine

import "fmt"

// DefaultUpdateEvery is the batch size used when none is configured.
const DefaultUpdateEvery = 300

// DrawBatched draws every region in order with no pacing, refreshing the
// canvas once per updateEvery regions.
func DrawBatched(canvas Canvas, regions []ScreenRegion, updateEvery int) {
	if updateEvery <= 0 {
		updateEvery = DefaultUpdateEvery
	}

	for i := 0; i < len(regions); i += updateEvery {
		end := min(i+updateEvery, len(regions))
		for _, r := range regions[i:end] {
			canvas.DrawPolygon(r.Color, r.Points)
		}
		canvas.SetStatus(fmt.Sprintf("%d/%d", end, len(regions)))
		canvas.Flush()
	}

	canvas.SetStatus(StatusDone)
}
