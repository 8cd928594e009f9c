package segment

import "math"

// Candidate is a threshold that splits the histogram into two non-empty
// classes, together with its weighted within-class variance.
type Candidate struct {
	Threshold uint8   `json:"threshold"`
	Score     float64 `json:"score"`
}

// ScoreTable holds the valid candidates in ascending threshold order.
type ScoreTable []Candidate

// classStats summarizes the histogram bins in [lo, hi).
//
// The mean is the count-weighted average intensity and the variance the
// count-weighted average squared deviation from it. ok is false when the
// class holds no pixels, in which case the variance is undefined.
func classStats(h Histogram, lo, hi int) (count int, mean, variance float64, ok bool) {
	var sum float64
	for v := lo; v < hi; v++ {
		count += h[v]
		sum += float64(v) * float64(h[v])
	}
	if count == 0 {
		return 0, 0, 0, false
	}

	mean = sum / float64(count)
	for v := lo; v < hi; v++ {
		if h[v] == 0 {
			continue
		}
		d := float64(v) - mean
		variance += d * d * float64(h[v])
	}
	variance /= float64(count)

	return count, mean, variance, true
}

// ScoreCandidates evaluates every threshold t in [1,255].
//
// Class weights are normalized by the number of occupied bins, not by the
// pixel count. Thresholds that leave either class empty, or whose score is
// not finite, are left out of the table.
func ScoreCandidates(h Histogram) ScoreTable {
	occupied := float64(h.NonZero())
	if occupied == 0 {
		return nil
	}

	table := make(ScoreTable, 0, Levels-1)
	for t := 1; t < Levels; t++ {
		bgCount, _, bgVar, bgOK := classStats(h, 0, t)
		fgCount, _, fgVar, fgOK := classStats(h, t, Levels)
		if !bgOK || !fgOK {
			continue
		}

		score := float64(bgCount)/occupied*bgVar + float64(fgCount)/occupied*fgVar
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		table = append(table, Candidate{Threshold: uint8(t), Score: score})
	}

	return table
}

// Best returns the candidate with the smallest score. Ties go to the lowest
// threshold. It returns ErrEmptyScoreTable when the table has no entries.
func (st ScoreTable) Best() (Candidate, error) {
	if len(st) == 0 {
		return Candidate{}, ErrEmptyScoreTable
	}

	best := st[0]
	for _, c := range st[1:] {
		if c.Score < best.Score {
			best = c
		}
	}
	return best, nil
}

// Threshold selects the separating gray level for h.
func Threshold(h Histogram) (uint8, float64, error) {
	best, err := ScoreCandidates(h).Best()
	if err != nil {
		return 0, 0, err
	}
	return best.Threshold, best.Score, nil
}
