// Package matcher assigns detected faces to enrolled students by nearest
// Euclidean distance under a threshold.
package matcher

import (
	"smart-attendance/internal/encoding"
)

// Face is one detected face from a marking photo. Index is its position in
// the detection output and survives into the resulting match.
type Face struct {
	Index    int
	Encoding encoding.FaceEncoding
}

// Candidate is an enrolled student offered to the matcher. Candidates with a
// nil encoding (unparseable reference vector) are skipped for every face.
type Candidate struct {
	ID       int64
	Encoding encoding.FaceEncoding
}

// Match pairs one face with one candidate. Within a single Assign call each
// candidate ID and each face index appears at most once.
type Match struct {
	CandidateID int64
	FaceIndex   int
	Distance    float64
}

// Assign matches faces to candidates greedily, in face input order. Each face
// takes the nearest candidate not yet consumed by an earlier face, provided
// the distance is strictly below threshold; otherwise the face stays
// unmatched. The pass is first-come-first-served: an earlier face can consume
// a candidate that would have suited a later face better. That ordering is
// part of the observable behavior and is relied on by callers.
func Assign(faces []Face, candidates []Candidate, threshold float64) []Match {
	var matches []Match
	taken := make(map[int64]bool, len(candidates))

	for _, face := range faces {
		if len(face.Encoding) == 0 {
			continue
		}

		best := -1
		bestDistance := threshold
		for i, cand := range candidates {
			if taken[cand.ID] || len(cand.Encoding) == 0 {
				continue
			}
			d := encoding.EuclideanDistance(cand.Encoding, face.Encoding)
			if d < bestDistance {
				bestDistance = d
				best = i
			}
		}

		if best >= 0 {
			taken[candidates[best].ID] = true
			matches = append(matches, Match{
				CandidateID: candidates[best].ID,
				FaceIndex:   face.Index,
				Distance:    bestDistance,
			})
		}
	}

	return matches
}
