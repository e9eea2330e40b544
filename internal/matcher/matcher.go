// Package matcher compares a live embedding against the enrolled gallery.
package matcher

import (
	"math"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

// Threshold is the minimum cosine similarity for a match. The comparison is
// strict: a best score of exactly Threshold is reported as unknown.
const Threshold = 0.6

// CosineSimilarity returns dot(a, b) / (|a| * |b|). It returns 0 when the
// lengths differ, either vector is empty, or either norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Match scans the whole gallery and returns the best entry above Threshold.
// Entries whose embedding is not domain.EmbeddingDim long are skipped. The
// running best starts at 0 and only a strictly greater score replaces it, so
// the earliest entry wins ties and negative similarities never match.
func Match(live []float32, gallery []domain.GalleryEntry) domain.MatchResult {
	var (
		best     float64
		bestIdx  = -1
		liveSize = len(live)
	)

	if liveSize == domain.EmbeddingDim {
		for i := range gallery {
			if len(gallery[i].Embedding) != domain.EmbeddingDim {
				continue
			}
			score := CosineSimilarity(live, gallery[i].Embedding)
			if score > best {
				best = score
				bestIdx = i
			}
		}
	}

	result := domain.MatchResult{
		Name:  domain.UnknownName,
		Score: best * 100,
	}
	if bestIdx >= 0 && best > Threshold {
		e := gallery[bestIdx]
		result.Matched = true
		result.IdentityID = e.ID
		result.Name = e.Name
		result.Relation = e.Relation
	}
	return result
}
