package clustering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/clusterer/internal/globaltime"
	"horse.fit/clusterer/internal/logging"
)

var (
	// ErrNotMember is returned when a representative is not in its group.
	ErrNotMember = errors.New("article is not a member of the group")
	// ErrGroupNotFound is returned when a group row does not exist.
	ErrGroupNotFound = errors.New("group not found")
)

// Store is the persistence the coordinator drives.
type Store interface {
	// ArticlesNeedingClustering returns ungrouped eligible articles, newest first.
	ArticlesNeedingClustering(ctx context.Context, limit int) ([]Article, error)
	// WithinTx runs fn in one transaction serialized against every other
	// clustering writer. fn returning an error rolls the transaction back.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the transactional view of the store.
type Tx interface {
	LockArticle(ctx context.Context, articleID int64) (Article, bool, error)
	CandidateArticles(ctx context.Context, excludeID int64, window time.Duration, limit int) ([]Article, error)
	CreateGroup(ctx context.Context, seed Article, siblings []Article) (int64, error)
	LockGroup(ctx context.Context, groupID int64) error
	AssignArticlesToGroup(ctx context.Context, articleIDs []int64, groupID int64) (int64, error)
	GroupMembers(ctx context.Context, groupID int64) ([]Article, error)
	RecomputeAndStoreGroupStats(ctx context.Context, groupID int64) (GroupStats, error)
	SetGroupRepresentative(ctx context.Context, groupID, articleID int64) error
}

// Observer receives per-article outcomes and the final batch report.
type Observer interface {
	ObserveOutcome(ArticleOutcome)
	ObserveBatch(BatchReport)
}

// Decision is what happened to one article.
type Decision string

const (
	DecisionSingleton Decision = "singleton"
	DecisionNewGroup  Decision = "new_group"
	DecisionAttached  Decision = "attached"
	DecisionSkipped   Decision = "skipped"
	DecisionFailed    Decision = "failed"
)

// Stage is the step an article reached in the clustering state machine.
type Stage string

const (
	StageFetchingCandidates Stage = "fetching_candidates"
	StageScoring            Stage = "scoring"
	StageDeciding           Stage = "deciding"
	StagePersisting         Stage = "persisting"
	StageFinalizing         Stage = "finalizing"
	StageDone               Stage = "done"
)

// ArticleOutcome is the result of clustering one article.
type ArticleOutcome struct {
	ArticleID        int64
	Decision         Decision
	Stage            Stage
	GroupID          int64
	Siblings         []int64
	Assigned         int64
	Matches          int
	RepresentativeID int64
	Duration         time.Duration
	Err              error
}

// BatchReport folds the outcomes of one ClusterUnassigned run.
type BatchReport struct {
	RunID       string
	Processed   int
	Failed      int
	Skipped     int
	NewGroups   int
	Attached    int
	Siblings    int
	Interrupted bool
	Outcomes    []ArticleOutcome
}

func (r *BatchReport) add(outcome ArticleOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch outcome.Decision {
	case DecisionFailed:
		r.Failed++
		return
	case DecisionSkipped:
		r.Skipped++
		return
	case DecisionSingleton, DecisionNewGroup:
		r.NewGroups++
	case DecisionAttached:
		r.Attached++
	}
	r.Processed++
	r.Siblings += len(outcome.Siblings)
}

// Coordinator runs the per-article clustering state machine against a Store.
type Coordinator struct {
	store    Store
	settings Settings
	scorer   *Scorer
	finder   *Finder
	selector *Selector
	observer Observer
	now      globaltime.Clock
	logger   zerolog.Logger
}

// NewCoordinator wires a scorer, finder and selector from settings. detector
// and now may be nil.
func NewCoordinator(
	store Store,
	settings Settings,
	detector LanguageDetector,
	now globaltime.Clock,
	logger zerolog.Logger,
) *Coordinator {
	clock := globaltime.OrDefault(now)
	scorer := NewScorer(settings, detector, logger)
	return &Coordinator{
		store:    store,
		settings: settings,
		scorer:   scorer,
		finder:   NewFinder(scorer, settings, logger),
		selector: NewSelector(settings.Selection, clock, logger),
		now:      clock,
		logger:   logging.Channel(logger, "clustering.coordinator"),
	}
}

// SetObserver registers o for outcome callbacks. Call before running batches.
func (c *Coordinator) SetObserver(o Observer) {
	c.observer = o
}

// Scorer returns the scorer the coordinator ranks candidates with.
func (c *Coordinator) Scorer() *Scorer {
	return c.scorer
}

// ClusterUnassigned clusters up to limit ungrouped articles, one transaction
// per article. A non-positive limit uses the configured batch size. The
// context is checked between articles; an article already in progress runs
// to completion. The returned error covers only loading the batch.
func (c *Coordinator) ClusterUnassigned(ctx context.Context, limit int) (BatchReport, error) {
	if c == nil || c.store == nil {
		return BatchReport{}, fmt.Errorf("clustering coordinator is not initialized")
	}
	if limit <= 0 {
		limit = c.settings.BatchSize
	}

	report := BatchReport{RunID: uuid.NewString()}
	logger := c.logger.With().Str("run_id", report.RunID).Logger()

	articles, err := c.store.ArticlesNeedingClustering(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("load articles needing clustering: %w", err)
	}
	logger.Info().Int("limit", limit).Int("articles", len(articles)).Msg("clustering batch started")

	for _, article := range articles {
		if ctx.Err() != nil {
			report.Interrupted = true
			logger.Warn().Int("remaining", len(articles)-len(report.Outcomes)).Msg("clustering batch interrupted")
			break
		}

		outcome := c.clusterArticle(ctx, article.ID, logger)
		report.add(outcome)
		if c.observer != nil {
			c.observer.ObserveOutcome(outcome)
		}
	}

	if c.observer != nil {
		c.observer.ObserveBatch(report)
	}
	logger.Info().
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Int("new_groups", report.NewGroups).
		Int("attached", report.Attached).
		Int("siblings", report.Siblings).
		Bool("interrupted", report.Interrupted).
		Msg("clustering batch completed")
	return report, nil
}

func (c *Coordinator) clusterArticle(ctx context.Context, articleID int64, logger zerolog.Logger) ArticleOutcome {
	started := c.now()
	outcome := ArticleOutcome{ArticleID: articleID, Stage: StageFetchingCandidates}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.settings.ArticleTimeout)
	defer cancel()

	err := c.store.WithinTx(txCtx, func(tx Tx) error {
		return c.clusterArticleTx(txCtx, tx, articleID, &outcome, logger)
	})
	outcome.Duration = c.now().Sub(started)
	if err != nil {
		outcome.Decision = DecisionFailed
		outcome.Err = err
		logger.Error().
			Err(err).
			Int64("article_id", articleID).
			Str("stage", string(outcome.Stage)).
			Msg("clustering article failed")
		return outcome
	}
	return outcome
}

func (c *Coordinator) clusterArticleTx(
	ctx context.Context,
	tx Tx,
	articleID int64,
	outcome *ArticleOutcome,
	logger zerolog.Logger,
) error {
	outcome.Stage = StageFetchingCandidates
	article, found, err := tx.LockArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("lock article %d: %w", articleID, err)
	}
	if !found || article.Grouped() || !article.Status.Eligible() {
		outcome.Decision = DecisionSkipped
		outcome.Stage = StageDone
		logger.Debug().Int64("article_id", articleID).Bool("found", found).Msg("article no longer needs clustering")
		return nil
	}

	pool, err := tx.CandidateArticles(ctx, article.ID, c.settings.CandidateWindow(), c.settings.CandidateLimit)
	if err != nil {
		return fmt.Errorf("load candidates for article %d: %w", article.ID, err)
	}

	outcome.Stage = StageScoring
	matches := c.finder.FindSimilar(article, pool)
	outcome.Matches = len(matches)

	outcome.Stage = StageDeciding
	plan := planAssignment(matches, c.settings.AttachLimit)
	outcome.Siblings = articleIDs(plan.siblings)
	if plan.hasTarget {
		logger.Debug().
			Int64("article_id", article.ID).
			Int64("group_id", plan.target).
			Float64("mean_score", plan.targetMean).
			Int("siblings", len(plan.siblings)).
			Msg("attaching to existing group")
	}

	outcome.Stage = StagePersisting
	groupID := plan.target
	switch {
	case plan.hasTarget:
		if err := tx.LockGroup(ctx, groupID); err != nil {
			return fmt.Errorf("lock group %d: %w", groupID, err)
		}
		outcome.Decision = DecisionAttached
	default:
		groupID, err = tx.CreateGroup(ctx, article, plan.siblings)
		if err != nil {
			return fmt.Errorf("create group for article %d: %w", article.ID, err)
		}
		outcome.Decision = DecisionNewGroup
		if len(plan.siblings) == 0 {
			outcome.Decision = DecisionSingleton
		}
	}
	outcome.GroupID = groupID

	ids := append([]int64{article.ID}, outcome.Siblings...)
	assigned, err := tx.AssignArticlesToGroup(ctx, ids, groupID)
	if err != nil {
		return fmt.Errorf("assign articles to group %d: %w", groupID, err)
	}
	outcome.Assigned = assigned

	outcome.Stage = StageFinalizing
	stats, representativeID, err := c.refreshGroupTx(ctx, tx, groupID)
	if err != nil {
		return err
	}
	outcome.RepresentativeID = representativeID
	outcome.Stage = StageDone

	logger.Info().
		Int64("article_id", article.ID).
		Str("decision", string(outcome.Decision)).
		Int64("group_id", groupID).
		Int("matches", len(matches)).
		Int64("assigned", assigned).
		Int("members", stats.MemberCount).
		Int64("representative_id", representativeID).
		Msg("article clustered")
	return nil
}

// RecomputeGroup rebuilds the cached statistics and representative of one
// group under the same locking as clustering.
func (c *Coordinator) RecomputeGroup(ctx context.Context, groupID int64) (GroupStats, int64, error) {
	var (
		stats            GroupStats
		representativeID int64
	)
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.settings.ArticleTimeout)
	defer cancel()

	err := c.store.WithinTx(txCtx, func(tx Tx) error {
		if err := tx.LockGroup(txCtx, groupID); err != nil {
			return fmt.Errorf("lock group %d: %w", groupID, err)
		}
		var err error
		stats, representativeID, err = c.refreshGroupTx(txCtx, tx, groupID)
		return err
	})
	if err != nil {
		return GroupStats{}, 0, err
	}
	return stats, representativeID, nil
}

func (c *Coordinator) refreshGroupTx(ctx context.Context, tx Tx, groupID int64) (GroupStats, int64, error) {
	stats, err := tx.RecomputeAndStoreGroupStats(ctx, groupID)
	if err != nil {
		return GroupStats{}, 0, fmt.Errorf("recompute stats for group %d: %w", groupID, err)
	}
	members, err := tx.GroupMembers(ctx, groupID)
	if err != nil {
		return GroupStats{}, 0, fmt.Errorf("load members of group %d: %w", groupID, err)
	}
	representativeID, ok := c.selector.SelectRepresentative(members)
	if !ok {
		return stats, 0, nil
	}
	if err := tx.SetGroupRepresentative(ctx, groupID, representativeID); err != nil {
		return GroupStats{}, 0, fmt.Errorf("set representative %d for group %d: %w", representativeID, groupID, err)
	}
	return stats, representativeID, nil
}

type assignmentPlan struct {
	hasTarget  bool
	target     int64
	targetMean float64
	siblings   []Article
}

// planAssignment picks the grouped candidate group with the highest mean
// score, first seen winning ties, and up to attachLimit ungrouped siblings
// in ranked order.
func planAssignment(matches []Match, attachLimit int) assignmentPlan {
	type groupScore struct {
		sum   float64
		count int
	}

	var (
		plan   assignmentPlan
		order  []int64
		scores = make(map[int64]*groupScore)
	)
	for _, match := range matches {
		if match.Candidate.GroupID == nil {
			if len(plan.siblings) < attachLimit {
				plan.siblings = append(plan.siblings, match.Candidate)
			}
			continue
		}
		groupID := *match.Candidate.GroupID
		score, ok := scores[groupID]
		if !ok {
			score = &groupScore{}
			scores[groupID] = score
			order = append(order, groupID)
		}
		score.sum += match.Score
		score.count++
	}

	for _, groupID := range order {
		score := scores[groupID]
		mean := score.sum / float64(score.count)
		if !plan.hasTarget || mean > plan.targetMean {
			plan.hasTarget = true
			plan.target = groupID
			plan.targetMean = mean
		}
	}
	return plan
}
