package ragmark

import (
	"context"
	"errors"
	"fmt"

	"github.com/teilomillet/ragmark/rag"
)

// ErrEmptyBatch is returned by metrics that are proper means and therefore
// undefined over zero records. MRR is the deliberate exception: its value over
// an empty batch is 0.
var ErrEmptyBatch = errors.New("evaluation batch is empty")

// calibrationBins is the number of equal-width confidence intervals over
// [0,1) used to estimate ECE.
const calibrationBins = 10

// Thresholds are the score cut-offs used by error classification and
// calibration. They are configuration, not constants: different embedding
// models produce differently distributed similarity scores.
type Thresholds struct {
	// LowSimilarity marks answers misaligned with the ground truth;
	// below it a record is classified as a hallucination.
	LowSimilarity float64 `json:"low_similarity"`
	// LowRelevance marks answers that drifted from the question.
	LowRelevance float64 `json:"low_relevance"`
	// GoodSimilarity and GoodRelevance mark strong alignment; reporting
	// layers use them to flag healthy records.
	GoodSimilarity float64 `json:"good_similarity"`
	GoodRelevance  float64 `json:"good_relevance"`
	// Correctness is the similarity above which an answer counts as
	// correct for calibration purposes.
	Correctness float64 `json:"correctness"`
}

// DefaultThresholds returns the conventional cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowSimilarity:  0.5,
		LowRelevance:   0.5,
		GoodSimilarity: 0.8,
		GoodRelevance:  0.7,
		Correctness:    0.7,
	}
}

// ComputeMRR calculates the mean reciprocal rank over the batch. Per record,
// the reciprocal rank is 1/r where r is the 1-based position of the first
// fused hit whose source matches the record's ground-truth source, or 0 when
// no hit matches. An empty batch yields 0.
func ComputeMRR(records []EvaluationRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var total float64
	for _, record := range records {
		total += reciprocalRank(record)
	}
	return total / float64(len(records))
}

func reciprocalRank(record EvaluationRecord) float64 {
	for i, hit := range record.FusedHits {
		if hit.SourceID == record.GroundTruthSource {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// MeanPairedSimilarity embeds both text slices and returns the mean cosine
// similarity of index-matched pairs, plus the per-pair values. Only the
// diagonal is compared. A single pair goes through the identical path as a
// batch; an empty batch is an error.
func MeanPairedSimilarity(ctx context.Context, embedder *rag.EmbeddingService, left, right []string) (float64, []float64, error) {
	if len(left) != len(right) {
		return 0, nil, fmt.Errorf("paired similarity requires equal lengths, got %d and %d", len(left), len(right))
	}
	if len(left) == 0 {
		return 0, nil, ErrEmptyBatch
	}

	leftVecs, err := embedder.EmbedAll(ctx, left)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	rightVecs, err := embedder.EmbedAll(ctx, right)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to embed texts: %w", err)
	}

	similarities := make([]float64, len(left))
	var total float64
	for i := range leftVecs {
		similarities[i] = rag.CosineSimilarity(leftVecs[i], rightVecs[i])
		total += similarities[i]
	}
	return total / float64(len(left)), similarities, nil
}

// Confidence derives a record's confidence as the mean of its semantic
// similarity and relevance, each clamped into [0,1] first so the result obeys
// the calibration domain.
func Confidence(similarity, relevance float64) float64 {
	return (clamp01(similarity) + clamp01(relevance)) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ComputeCalibration estimates the Expected Calibration Error over the given
// confidence/correctness points. Confidences are partitioned into ten
// equal-width bins over [0,1); a confidence of exactly 1.0 lands in the top
// bin. For each populated bin the gap |mean confidence − accuracy| is
// weighted by the bin's share of the batch. Empty bins contribute zero. The
// raw points are retained in the report so a reliability diagram can be
// drawn later.
func ComputeCalibration(points []CalibrationPoint) (CalibrationReport, error) {
	if len(points) == 0 {
		return CalibrationReport{}, ErrEmptyBatch
	}

	type bin struct {
		confidence float64
		correct    int
		count      int
	}
	bins := make([]bin, calibrationBins)

	var totalConfidence float64
	var totalCorrect int
	for _, p := range points {
		idx := int(p.Confidence * calibrationBins)
		if idx >= calibrationBins {
			idx = calibrationBins - 1
		}
		bins[idx].confidence += p.Confidence
		bins[idx].count++
		if p.Correct {
			bins[idx].correct++
		}

		totalConfidence += p.Confidence
		if p.Correct {
			totalCorrect++
		}
	}

	var ece float64
	total := float64(len(points))
	for _, b := range bins {
		if b.count == 0 {
			continue
		}
		meanConfidence := b.confidence / float64(b.count)
		accuracy := float64(b.correct) / float64(b.count)
		weight := float64(b.count) / total
		gap := meanConfidence - accuracy
		if gap < 0 {
			gap = -gap
		}
		ece += weight * gap
	}

	return CalibrationReport{
		ECE:            ece,
		MeanConfidence: totalConfidence / total,
		Accuracy:       float64(totalCorrect) / total,
		Points:         points,
	}, nil
}
