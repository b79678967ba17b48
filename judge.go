package ragmark

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/teilomillet/gollm"
	"golang.org/x/time/rate"
)

// NeutralJudgeScore is the fallback score assigned to every criterion when a
// judge reply cannot be parsed. Malformed output is a recoverable condition:
// it must never abort an evaluation run the way a judge transport error does.
const NeutralJudgeScore = 3

// ParseFailureRationale marks verdicts that fell back to neutral scores so
// they can be audited in the aggregated report.
const ParseFailureRationale = "judge response could not be parsed; neutral scores assigned"

// JudgeVerdict is one judged record: a 1-5 score per criterion and the
// judge's free-text rationale.
type JudgeVerdict struct {
	Scores    map[JudgeCriterion]float64
	Rationale string
}

// Judge scores a generated answer against its ground truth. An error return
// means the judging collaborator itself failed and the record cannot be
// scored; malformed but delivered output is handled inside implementations.
type Judge interface {
	Judge(ctx context.Context, query, answer, groundTruth string) (JudgeVerdict, error)
}

// LLMJudge implements Judge with a gollm language model prompted to emit a
// fixed single-line score format. An optional rate limiter keeps long batch
// runs inside provider quotas.
type LLMJudge struct {
	llm     gollm.LLM
	limiter *rate.Limiter
}

// NewLLMJudge wraps a gollm model as an answer judge.
func NewLLMJudge(llm gollm.LLM) *LLMJudge {
	return &LLMJudge{llm: llm}
}

// SetRateLimit throttles judge calls to at most rps requests per second with
// the given burst. Non-positive rps removes the limit.
func (j *LLMJudge) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		j.limiter = nil
		return
	}
	j.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Judge asks the model to rate the answer on all four criteria. Transport or
// model errors propagate; an unparseable reply degrades to neutral scores.
func (j *LLMJudge) Judge(ctx context.Context, query, answer, groundTruth string) (JudgeVerdict, error) {
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx); err != nil {
			return JudgeVerdict{}, fmt.Errorf("rate limiter interrupted: %w", err)
		}
	}

	prompt := buildJudgePrompt(query, answer, groundTruth)

	response, err := j.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return JudgeVerdict{}, fmt.Errorf("judge call failed: %w", err)
	}

	return ParseJudgeResponse(response), nil
}

func buildJudgePrompt(query, answer, groundTruth string) string {
	var b strings.Builder
	b.WriteString("Rate the answer against the reference on a 1-5 scale for each criterion.\n\n")
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer: ")
	b.WriteString(answer)
	b.WriteString("\nReference: ")
	b.WriteString(groundTruth)
	b.WriteString("\n\nReply in exactly this format:\n")
	b.WriteString("Factual: X, Completeness: X, Relevance: X, Coherence: X\n")
	b.WriteString("Explanation: one or two sentences\n")
	return b.String()
}

var judgeScorePattern = regexp.MustCompile(`\d+`)

// ParseJudgeResponse extracts criterion scores from a judge reply. The first
// line is expected to carry at least four integers in criterion order; any
// reply that does not is replaced wholesale by neutral scores with a parse
// failure rationale. Parsing never fails — recovery is the whole point.
func ParseJudgeResponse(response string) JudgeVerdict {
	lines := strings.SplitN(strings.TrimSpace(response), "\n", 2)
	tokens := judgeScorePattern.FindAllString(lines[0], -1)

	if len(tokens) < len(JudgeCriteria) {
		return neutralVerdict()
	}

	scores := make(map[JudgeCriterion]float64, len(JudgeCriteria))
	for i, criterion := range JudgeCriteria {
		value, err := strconv.Atoi(tokens[i])
		if err != nil {
			return neutralVerdict()
		}
		scores[criterion] = clampScore(float64(value))
	}

	rationale := ""
	if len(lines) > 1 {
		rationale = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[1]), "Explanation:"))
		rationale = strings.TrimSpace(rationale)
	}

	return JudgeVerdict{Scores: scores, Rationale: rationale}
}

func neutralVerdict() JudgeVerdict {
	scores := make(map[JudgeCriterion]float64, len(JudgeCriteria))
	for _, criterion := range JudgeCriteria {
		scores[criterion] = NeutralJudgeScore
	}
	return JudgeVerdict{Scores: scores, Rationale: ParseFailureRationale}
}

func clampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// AggregateVerdicts averages per-criterion scores over the batch and collects
// the non-empty rationales in record order.
func AggregateVerdicts(verdicts []JudgeVerdict) (map[JudgeCriterion]float64, []string) {
	aggregated := make(map[JudgeCriterion]float64, len(JudgeCriteria))
	if len(verdicts) == 0 {
		return aggregated, nil
	}

	var rationales []string
	for _, v := range verdicts {
		for _, criterion := range JudgeCriteria {
			aggregated[criterion] += v.Scores[criterion]
		}
		if v.Rationale != "" {
			rationales = append(rationales, v.Rationale)
		}
	}
	for _, criterion := range JudgeCriteria {
		aggregated[criterion] /= float64(len(verdicts))
	}
	return aggregated, rationales
}
