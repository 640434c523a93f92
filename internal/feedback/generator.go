// Package feedback scores student responses against the reference
// corpus and turns the score into rewards, personalized feedback, and
// educator alerts.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"feedbackgen/internal/config"
	"feedbackgen/internal/embedding"
	"feedbackgen/internal/logging"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
)

// matchThreshold filters which reference answers count as "best matches".
const matchThreshold = 0.3

// Generator is the feedback pipeline: analyze, reward, personalize,
// persist, alert.
type Generator struct {
	cfg    *config.UserConfig
	corpus *reference.Corpus
	store  *store.Store
	engine embedding.Engine // nil means keyword fallback scoring
}

// NewGenerator wires a generator. A nil engine is valid: scoring falls
// back to keyword overlap so the pipeline works fully offline.
func NewGenerator(cfg *config.UserConfig, corpus *reference.Corpus, st *store.Store, engine embedding.Engine) *Generator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Generator{cfg: cfg, corpus: corpus, store: st, engine: engine}
}

// Analysis is the scoring result for one response.
type Analysis struct {
	Score       float64
	BestMatches []string
}

// AnalyzeResponse scores a response against the subject's reference
// answers. Unknown subjects score a neutral 0.5; embedding failures
// score 0.0 rather than aborting the pipeline.
func (g *Generator) AnalyzeResponse(ctx context.Context, resp types.StudentResponse) Analysis {
	timer := logging.StartTimer(logging.CategoryFeedback, "AnalyzeResponse")
	defer timer.Stop()

	refs := g.corpus.Flatten(resp.Subject)
	if len(refs) == 0 {
		logging.Get(logging.CategoryFeedback).Warn("no reference answers for subject %q", resp.Subject)
		return Analysis{Score: 0.5}
	}

	if len(resp.ExpectedKeywords) > 0 {
		refs = append(refs, strings.Join(resp.ExpectedKeywords, " "))
	}

	if g.engine == nil {
		return analyzeByKeywords(resp.ResponseText, refs)
	}

	analysis, err := g.analyzeByEmbedding(ctx, resp.ResponseText, refs)
	if err != nil {
		logging.Get(logging.CategoryFeedback).Error("embedding analysis failed: %v", err)
		return Analysis{Score: 0.0}
	}
	return analysis
}

func (g *Generator) analyzeByEmbedding(ctx context.Context, text string, refs []string) (Analysis, error) {
	query, err := g.engine.Embed(ctx, text)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to embed response: %w", err)
	}

	corpus := make([][]float32, len(refs))
	for i, ref := range refs {
		vec, err := g.store.ReferenceVector(ctx, ref)
		if err != nil {
			return Analysis{}, err
		}
		corpus[i] = vec
	}

	top, err := embedding.FindTopK(query, corpus, 3)
	if err != nil {
		return Analysis{}, err
	}
	if len(top) == 0 {
		return Analysis{Score: 0.0}, nil
	}

	analysis := Analysis{Score: clampScore(top[0].Similarity)}
	for _, match := range top {
		if match.Similarity > matchThreshold {
			analysis.BestMatches = append(analysis.BestMatches, refs[match.Index])
		}
	}

	logging.FeedbackDebug("embedding score %.3f with %d matches", analysis.Score, len(analysis.BestMatches))
	return analysis, nil
}

// clampScore keeps similarity in [0, 1]; cosine similarity can go
// negative for dissimilar texts.
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// DetermineReward maps a score to a reward tier and points. Scores
// below every tier threshold still earn bronze at the floor points.
func (g *Generator) DetermineReward(score float64) (types.RewardType, int) {
	tiers := g.rewardTiers()

	// Highest tier first
	for i := len(types.AllRewardTypes) - 1; i >= 0; i-- {
		rt := types.AllRewardTypes[i]
		tier, ok := tiers.Tiers[string(rt)]
		if !ok {
			continue
		}
		if score >= tier.MinScore {
			return rt, tier.Points
		}
	}

	floor := tiers.FloorPoints
	if floor == 0 {
		floor = 10
	}
	return types.RewardBronze, floor
}

func (g *Generator) rewardTiers() *config.RewardConfig {
	if g.cfg.Rewards != nil && len(g.cfg.Rewards.Tiers) > 0 {
		return g.cfg.Rewards
	}
	return config.Default().Rewards
}

// GenerateFeedback runs the full pipeline for one response: score it,
// personalize the feedback, persist everything, and raise educator
// alerts where warranted.
func (g *Generator) GenerateFeedback(ctx context.Context, resp types.StudentResponse) (types.Feedback, error) {
	timer := logging.StartTimer(logging.CategoryFeedback, "GenerateFeedback")
	defer timer.Stop()

	if resp.Timestamp.IsZero() {
		resp.Timestamp = time.Now().UTC()
	}

	analysis := g.AnalyzeResponse(ctx, resp)
	personalized := g.personalize(analysis.Score)

	fb := types.Feedback{
		ResponseID:       "resp_" + uuid.NewString(),
		StudentID:        resp.StudentID,
		SimilarityScore:  analysis.Score,
		RewardType:       personalized.reward,
		FeedbackText:     personalized.text,
		Strengths:        personalized.strengths,
		ImprovementAreas: personalized.improvements,
		PersonalizedTips: personalized.tips,
		PointsEarned:     personalized.points,
		Timestamp:        time.Now().UTC(),
	}

	if err := g.store.SaveResponse(resp); err != nil {
		return types.Feedback{}, err
	}
	if err := g.store.SaveFeedback(fb); err != nil {
		return types.Feedback{}, err
	}

	if err := g.checkEducatorAlerts(resp, analysis.Score); err != nil {
		// Alerts are advisory; a failed write must not lose the feedback.
		logging.Get(logging.CategoryAlerts).Error("failed to evaluate alerts: %v", err)
	}

	logging.Feedback("generated feedback for student %s (score=%.2f, reward=%s)",
		resp.StudentID, fb.SimilarityScore, fb.RewardType)
	return fb, nil
}

type personalizedFeedback struct {
	text         string
	strengths    []string
	improvements []string
	tips         []string
	reward       types.RewardType
	points       int
}

// personalize builds the feedback narrative for a score band.
func (g *Generator) personalize(score float64) personalizedFeedback {
	var p personalizedFeedback

	switch {
	case score >= 0.8:
		p.strengths = []string{
			"Demonstrates strong understanding of key concepts",
			"Uses appropriate terminology",
			"Provides clear explanations",
		}
		p.tips = []string{
			"Try to add more examples to strengthen your explanations",
			"Consider exploring advanced applications of these concepts",
		}
	case score >= 0.6:
		p.strengths = []string{
			"Shows good grasp of basic concepts",
			"Attempts to explain reasoning",
		}
		p.improvements = []string{
			"Could use more specific terminology",
			"Explanations could be more detailed",
		}
		p.tips = []string{
			"Review key vocabulary for this topic",
			"Practice explaining concepts in your own words",
			"Try to include specific examples",
		}
	default:
		p.strengths = []string{"Shows effort in attempting the question"}
		p.improvements = []string{
			"Needs to review fundamental concepts",
			"Requires more specific and detailed responses",
		}
		p.tips = []string{
			"Review the lesson materials again",
			"Ask your teacher for clarification on confusing topics",
			"Practice with similar problems",
			"Try to break down complex problems into smaller steps",
		}
	}

	p.reward, p.points = g.DetermineReward(score)

	desc := g.rewardTiers().Tiers[string(p.reward)].Description
	if desc == "" {
		desc = "Keep trying!"
	}

	switch {
	case score >= 0.8:
		p.text = desc + " You've shown excellent understanding of this topic. Your response demonstrates clear thinking and good use of relevant concepts."
	case score >= 0.6:
		p.text = desc + " You're on the right track! Your response shows good understanding, with room for more detail and precision."
	default:
		p.text = desc + " Keep working on this topic. Review the key concepts and try to be more specific in your explanations."
	}

	return p
}

// checkEducatorAlerts raises alerts for a response that was just
// scored and persisted.
func (g *Generator) checkEducatorAlerts(resp types.StudentResponse, score float64) error {
	cfg := g.alertConfig()

	if score < cfg.LowScoreThreshold {
		alert := types.EducatorAlert{
			AlertID:        "alert_" + uuid.NewString(),
			StudentID:      resp.StudentID,
			AlertType:      types.AlertLowPerformance,
			Severity:       "high",
			Description:    fmt.Sprintf("Student showing very low understanding in %s", resp.Subject),
			Timestamp:      time.Now().UTC(),
			ActionRequired: true,
		}
		if err := g.store.SaveAlert(alert); err != nil {
			return err
		}
	}

	// The just-saved feedback is included in the window.
	recent, err := g.store.RecentScores(resp.StudentID, cfg.StruggleWindow)
	if err != nil {
		return err
	}
	if len(recent) >= cfg.StruggleMinCount && allBelow(recent, cfg.StruggleThreshold) {
		alert := types.EducatorAlert{
			AlertID:        "alert_" + uuid.NewString() + "_pattern",
			StudentID:      resp.StudentID,
			AlertType:      types.AlertConsistentStruggle,
			Severity:       "medium",
			Description:    "Student showing consistent difficulties across multiple responses",
			Timestamp:      time.Now().UTC(),
			ActionRequired: true,
		}
		if err := g.store.SaveAlert(alert); err != nil {
			return err
		}
	}

	return nil
}

// alertConfig fills unset thresholds with defaults so a partial
// alerts section in config.json cannot produce a zero threshold.
func (g *Generator) alertConfig() *config.AlertConfig {
	defaults := config.Default().Alerts
	if g.cfg.Alerts == nil {
		return defaults
	}

	cfg := *g.cfg.Alerts
	if cfg.LowScoreThreshold <= 0 {
		cfg.LowScoreThreshold = defaults.LowScoreThreshold
	}
	if cfg.StruggleWindow <= 0 {
		cfg.StruggleWindow = defaults.StruggleWindow
	}
	if cfg.StruggleMinCount <= 0 {
		cfg.StruggleMinCount = defaults.StruggleMinCount
	}
	if cfg.StruggleThreshold <= 0 {
		cfg.StruggleThreshold = defaults.StruggleThreshold
	}
	return &cfg
}

func allBelow(scores []float64, threshold float64) bool {
	for _, s := range scores {
		if s >= threshold {
			return false
		}
	}
	return true
}
