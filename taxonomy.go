package ragmark

// ClassifyError assigns a record to exactly one failure category, checked in
// priority order: retrieval first, then generation, then relevance. Earlier
// failures mask later ones so each record counts once.
func ClassifyError(record EvaluationRecord, similarity, relevance float64, thresholds Thresholds) ErrorCategory {
	if reciprocalRank(record) == 0 {
		return ErrRetrievalFailure
	}
	if similarity < thresholds.LowSimilarity {
		return ErrGenerationHallucination
	}
	if relevance < thresholds.LowRelevance {
		return ErrContextIrrelevant
	}
	return ErrNone
}

// AnalyzeErrors classifies every record and aggregates counts overall and per
// question category. similarities and relevances are index-matched with
// records. Overall counts always sum to len(records).
func AnalyzeErrors(records []EvaluationRecord, similarities, relevances []float64, thresholds Thresholds) ErrorAnalysis {
	analysis := ErrorAnalysis{
		Overall:    make(map[ErrorCategory]int),
		ByCategory: make(map[QuestionCategory]map[ErrorCategory]int),
	}

	for i, record := range records {
		category := ClassifyError(record, similarities[i], relevances[i], thresholds)
		analysis.Overall[category]++

		if record.Category == "" {
			continue
		}
		if analysis.ByCategory[record.Category] == nil {
			analysis.ByCategory[record.Category] = make(map[ErrorCategory]int)
		}
		analysis.ByCategory[record.Category][category]++
	}

	return analysis
}
