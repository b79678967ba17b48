// Package ragmark implements a hybrid retrieval pipeline and an evaluation
// engine for RAG (Retrieval-Augmented Generation) systems. Retrieval combines
// a dense vector index and a sparse lexical index through Reciprocal Rank
// Fusion, and the evaluation engine scores batches of answered queries along
// ranking accuracy, semantic alignment, failure taxonomy, LLM-judge and
// confidence-calibration dimensions.
package ragmark

import "time"

// RetrievalHit is a single result returned by a retrieval collaborator,
// ordered by descending relevance within its list. Rank is positional
// (1-based). SourceID identifies the source document the chunk was cut from
// and is the join key used by the evaluation metrics; matching on raw chunk
// text is too fragile under whitespace and tokenization differences.
type RetrievalHit struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	SourceID string  `json:"source_id"`
}

// FusedResult is one entry of a fused ranking produced by the Fuser. Results
// are ordered by descending Score and contain no duplicate Content.
type FusedResult struct {
	Content  string  `json:"content"`
	Score    float64 `json:"fused_score"`
	SourceID string  `json:"source_id"`
}

// QueryResult captures everything the Orchestrator produced for one query.
// It is created once per answered query and not modified afterwards.
type QueryResult struct {
	Query         string         `json:"query"`
	Answer        string         `json:"answer"`
	ContextChunks []string       `json:"context_chunks"`
	DenseHits     []RetrievalHit `json:"dense_hits"`
	SparseHits    []RetrievalHit `json:"sparse_hits"`
	FusedHits     []FusedResult  `json:"fused_hits"`
	ResponseTime  time.Duration  `json:"response_time"`
}

// QuestionCategory classifies the kind of reasoning a question requires.
type QuestionCategory string

const (
	CategoryFactual     QuestionCategory = "factual"
	CategoryComparative QuestionCategory = "comparative"
	CategoryInferential QuestionCategory = "inferential"
	CategoryMultiHop    QuestionCategory = "multi-hop"
)

// QuestionCategories lists all categories in their canonical order.
var QuestionCategories = []QuestionCategory{
	CategoryFactual,
	CategoryComparative,
	CategoryInferential,
	CategoryMultiHop,
}

// EvaluationRecord joins a QueryResult with its ground-truth annotation.
// Records are assembled by the evaluation driver (see Pipeline) and consumed
// exactly once by Evaluator.Evaluate.
type EvaluationRecord struct {
	QueryResult

	GroundTruth       string           `json:"ground_truth"`
	GroundTruthSource string           `json:"ground_truth_source_id"`
	Category          QuestionCategory `json:"category"`
}

// ErrorCategory names the single failure mode assigned to a record. The four
// categories are mutually exclusive and exhaustive.
type ErrorCategory string

const (
	// ErrRetrievalFailure: the ground-truth source never made it into the
	// fused ranking.
	ErrRetrievalFailure ErrorCategory = "retrieval_failure"
	// ErrGenerationHallucination: retrieval succeeded but the answer drifted
	// away from the ground truth.
	ErrGenerationHallucination ErrorCategory = "generation_hallucination"
	// ErrContextIrrelevant: the answer tracks the ground truth but not the
	// question that was asked.
	ErrContextIrrelevant ErrorCategory = "context_irrelevant"
	// ErrNone: no failure detected.
	ErrNone ErrorCategory = "no_error"
)

// ErrorCategories lists all failure categories in priority order.
var ErrorCategories = []ErrorCategory{
	ErrRetrievalFailure,
	ErrGenerationHallucination,
	ErrContextIrrelevant,
	ErrNone,
}

// JudgeCriterion is one of the four dimensions the LLM judge scores.
type JudgeCriterion string

const (
	CriterionFactualAccuracy JudgeCriterion = "factual_accuracy"
	CriterionCompleteness    JudgeCriterion = "completeness"
	CriterionRelevance       JudgeCriterion = "relevance"
	CriterionCoherence       JudgeCriterion = "coherence"
)

// JudgeCriteria lists the criteria in the order the judge is asked to score
// them. The defensive parser assigns numeric tokens in this order.
var JudgeCriteria = []JudgeCriterion{
	CriterionFactualAccuracy,
	CriterionCompleteness,
	CriterionRelevance,
	CriterionCoherence,
}

// ErrorAnalysis tabulates failure categories over a batch: overall counts and
// a breakdown by question category. Every record contributes to exactly one
// overall bucket and one breakdown cell.
type ErrorAnalysis struct {
	Overall    map[ErrorCategory]int                      `json:"overall"`
	ByCategory map[QuestionCategory]map[ErrorCategory]int `json:"by_category"`
}

// CalibrationPoint is the raw per-record confidence/correctness pair retained
// for reliability diagrams. Points are kept in input-record order.
type CalibrationPoint struct {
	Confidence float64 `json:"confidence"`
	Correct    bool    `json:"correct"`
}

// CalibrationReport summarizes confidence calibration over a batch.
type CalibrationReport struct {
	ECE            float64            `json:"ece"`
	MeanConfidence float64            `json:"mean_confidence"`
	Accuracy       float64            `json:"accuracy"`
	Points         []CalibrationPoint `json:"points"`
}

// MetricsReport is the aggregate output of Evaluator.Evaluate.
type MetricsReport struct {
	MRR                float64                    `json:"mrr"`
	SemanticSimilarity float64                    `json:"semantic_similarity"`
	AnswerRelevance    float64                    `json:"answer_relevance"`
	ErrorAnalysis      ErrorAnalysis              `json:"error_analysis"`
	JudgeScores        map[JudgeCriterion]float64 `json:"llm_as_judge"`
	JudgeRationales    []string                   `json:"judge_rationales"`
	Calibration        CalibrationReport          `json:"confidence_calibration"`
}
