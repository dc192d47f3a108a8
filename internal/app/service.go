// Package service runs the expected goals training pipeline: it turns raw
// play-by-play events into a training table, selects a feature recipe,
// tunes and refits the boosted trees classifier, evaluates it on the
// hold-out partition and publishes the results.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/xg/internal/adapters/mq/queue"
	"github.com/okian/xg/internal/adapters/mq/worker"
	"github.com/okian/xg/internal/adapters/registry"
	"github.com/okian/xg/internal/adapters/repository"
	"github.com/okian/xg/internal/adapters/source"
	"github.com/okian/xg/internal/config"
	"github.com/okian/xg/internal/domain/boost"
	"github.com/okian/xg/internal/domain/cv"
	"github.com/okian/xg/internal/domain/dataset"
	"github.com/okian/xg/internal/domain/dedupe"
	"github.com/okian/xg/internal/domain/encode"
	"github.com/okian/xg/internal/domain/evaluate"
	"github.com/okian/xg/internal/domain/fit"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/selection"
	"github.com/okian/xg/internal/domain/tune"
	"github.com/okian/xg/pkg/logger"
	"github.com/okian/xg/pkg/metrics"
)

const (
	defaultQueueSize = 4096
	shutdownTimeout  = 30 * time.Second
	importanceTop    = 5
	slowFitJob       = time.Minute
)

// Seed offsets keep every random stage on its own stream of the base seed.
const (
	seedSplit uint64 = iota
	seedFolds
	seedSelect
	seedSample
	seedRace
	seedRefit
)

// Service runs training pipelines. A Service holds no per-run state, so
// one value may run several pipelines in turn.
type Service struct {
	cfg         *config.Config
	workerCount int
	queueSize   int
	recipes     []encode.Recipe

	store    repository.Store
	registry registry.Registry

	now    func() time.Time
	runID  func() string
	logger logger.Logger
}

// Dataset is the output of the feature pipeline.
type Dataset struct {
	Rows       []model.TrainingRow
	Duplicates int
	Enrich     dataset.EnrichStats
	Report     dataset.Report
}

// Result is everything a training run produced.
type Result struct {
	RunID      string
	Dataset    Dataset
	Train      []model.TrainingRow
	Test       []model.TrainingRow
	Selection  selection.Result
	Race       tune.RaceResult
	Artifact   *tune.Artifact
	Report     evaluate.Report
	Importance []tune.FeatureImportance
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:       config.New(),
		queueSize: defaultQueueSize,
		recipes:   encode.Recipes(),
		now:       time.Now,
		runID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workerCount == 0 {
		s.workerCount = s.cfg.WorkerCount
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Config returns the configuration the Service runs with.
func (s *Service) Config() *config.Config { return s.cfg }

// Run loads the configured input file and trains on it.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if s.cfg.InputPath == "" {
		return nil, fmt.Errorf("%w: input_path is empty", ErrNoInput)
	}
	events, err := source.Load(ctx, s.cfg.InputFormat, s.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "events loaded",
		logger.String("path", s.cfg.InputPath),
		logger.String("format", s.cfg.InputFormat),
		logger.Int("events", len(events)),
	)
	return s.Train(ctx, events)
}

// Build runs the feature pipeline: de-duplication, season concatenation,
// schema validation, enrichment and assembly. A schema mismatch is fatal.
func (s *Service) Build(ctx context.Context, events []model.Event) (Dataset, error) {
	if len(events) == 0 {
		return Dataset{}, ErrNoInput
	}
	metrics.RecordEventIngested(len(events))

	policy, err := dataset.PolicyByName(s.cfg.OutcomePolicy)
	if err != nil {
		return Dataset{}, err
	}

	d := dedupe.NewInMemoryDeduper(dedupe.WithExpected(uint(len(events))))
	unique, dupes, err := dedupe.Events(ctx, d, events)
	if err != nil {
		return Dataset{}, err
	}
	for i := 0; i < dupes; i++ {
		metrics.RecordEventDuplicate()
	}
	s.logger.Debug(ctx, "deduplicated events",
		logger.Int("duplicates", dupes), logger.Int64("suspects", d.Suspects()))

	stream := dataset.Concat(bySeason(unique))
	if err := dataset.Validate(stream); err != nil {
		return Dataset{}, err
	}

	enriched, stats, err := dataset.Enrich(stream, policy)
	if err != nil {
		return Dataset{}, err
	}
	for i := 0; i < stats.InvalidSituation; i++ {
		metrics.RecordInvalidSituation()
	}
	metrics.RecordUndefinedGeometry(stats.UndefinedGeometry)

	rows, rep := dataset.Assemble(enriched, policy)
	for reason, n := range rep.Dropped {
		metrics.RecordRowDropped(reason, n)
	}
	metrics.UpdateTrainingRows(len(rows))

	s.logger.Info(ctx, "training table assembled",
		logger.String("policy", rep.Policy),
		logger.Int("events", len(events)),
		logger.Int("duplicates", dupes),
		logger.Int("games", stats.Games),
		logger.Int("invalid_situation", stats.InvalidSituation),
		logger.Int("undefined_geometry", stats.UndefinedGeometry),
		logger.Int("candidates", rep.Candidates),
		logger.Int("rows", rep.Rows),
		logger.Int("goals", rep.Goals),
		logger.Any("dropped", rep.Dropped),
	)
	return Dataset{Rows: rows, Duplicates: dupes, Enrich: stats, Report: rep}, nil
}

// Train builds the training table from events, then selects, tunes,
// refits, evaluates and publishes a classifier.
func (s *Service) Train(ctx context.Context, events []model.Event) (*Result, error) {
	start := time.Now()
	ds, err := s.Build(ctx, events)
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, ErrNoRows
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: s.runID(), Dataset: ds}
	seed := uint64(s.cfg.Seed)
	log := s.logger

	trainIdx, testIdx, err := cv.StratifiedSplit(model.Labels(ds.Rows), s.cfg.TestFraction, seed+seedSplit)
	if err != nil {
		return nil, err
	}
	res.Train = model.Subset(ds.Rows, trainIdx)
	res.Test = model.Subset(ds.Rows, testIdx)

	folds, err := cv.StratifiedFolds(model.Labels(res.Train), s.cfg.Folds, seed+seedFolds)
	if err != nil {
		return nil, err
	}
	evaluator := fit.NewEvaluator(res.Train, folds, s.cfg.LearningRate)
	evaluator.RareThreshold = s.cfg.RareThreshold

	pool := worker.NewPool(s.workerCount,
		queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize)),
		evaluator,
		worker.WithName("fit"),
		worker.WithLogger(log),
		worker.WithSlowJob(slowFitJob),
	)
	pool.Start(ctx)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(sctx); err != nil {
			log.Warn(sctx, "worker pool shutdown", logger.Error(err))
		}
	}()

	log.Info(ctx, "training started",
		logger.String("run", res.RunID),
		logger.Int("train", len(res.Train)),
		logger.Int("test", len(res.Test)),
		logger.Int("folds", s.cfg.Folds),
		logger.Int("workers", pool.Size()),
	)

	recipe, err := s.selectRecipe(ctx, pool, res, seed)
	if err != nil {
		return nil, err
	}
	if err := s.race(ctx, pool, recipe, res, seed); err != nil {
		return nil, err
	}

	params := boost.WithHyper(res.Race.Winner.Hyper, s.cfg.LearningRate, seed+seedRefit)
	res.Artifact, err = tune.NewArtifact(res.RunID, recipe, res.Train, params, res.Race.Winner.Summary, s.now())
	if err != nil {
		return nil, fmt.Errorf("refit: %w", err)
	}
	res.Importance = res.Artifact.Importance()

	res.Report, err = evaluate.Evaluate(res.Artifact, res.Train, res.Test)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	metrics.UpdateTestAUC(res.Report.TestAUC)
	metrics.UpdateCalibrationPct(res.Report.Calibration.PctDiff)

	if err := s.publish(ctx, res); err != nil {
		return nil, err
	}

	top := res.Importance
	if len(top) > importanceTop {
		top = top[:importanceTop]
	}
	log.Info(ctx, "training finished",
		logger.String("run", res.RunID),
		logger.String("recipe", recipe.Name),
		logger.String("hyper", res.Race.Winner.Hyper.String()),
		logger.Float64("cv_auc", res.Race.Winner.Summary.Mean),
		logger.Float64("train_auc", res.Report.TrainAUC),
		logger.Float64("test_auc", res.Report.TestAUC),
		logger.Float64("calibration_pct", res.Report.Calibration.PctDiff),
		logger.Any("importance", top),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Service) selectRecipe(ctx context.Context, runner fit.Runner, res *Result, seed uint64) (encode.Recipe, error) {
	if len(s.recipes) == 0 {
		return encode.Recipe{}, ErrNoRecipes
	}
	sel, err := selection.Select(ctx, selection.Request{
		Recipes: s.recipes,
		Folds:   s.cfg.Folds,
		Seed:    seed + seedSelect,
	}, runner)
	if err != nil {
		return encode.Recipe{}, err
	}
	if err := ctx.Err(); err != nil {
		return encode.Recipe{}, err
	}
	for _, c := range sel.Ranked {
		metrics.UpdateRecipeAUC(c.Recipe.Name, c.Summary.Mean)
		s.logger.Debug(ctx, "recipe scored",
			logger.String("recipe", c.Recipe.Name),
			logger.Float64("auc", c.Summary.Mean),
			logger.Float64("std_err", c.Summary.StdErr),
			logger.Int("failures", c.Failures),
		)
	}
	if sel.Winner.Failures == len(sel.Winner.Scores) {
		return encode.Recipe{}, fmt.Errorf("%w: %v", ErrNoRecipe, sel.Winner.Errors)
	}
	res.Selection = sel

	recipe := sel.Winner.Recipe
	if s.cfg.RareThreshold > 0 {
		recipe.RareThreshold = s.cfg.RareThreshold
	}
	s.logger.Info(ctx, "recipe selected",
		logger.String("recipe", recipe.Name),
		logger.Float64("auc", sel.Winner.Summary.Mean),
		logger.Float64("std_err", sel.Winner.Summary.StdErr),
	)
	return recipe, nil
}

func (s *Service) race(ctx context.Context, runner fit.Runner, recipe encode.Recipe, res *Result, seed uint64) error {
	configs, err := tune.Sample(s.space(), s.cfg.TuneCandidates, seed+seedSample)
	if err != nil {
		return err
	}
	race, err := tune.Race(ctx, tune.RaceRequest{
		Recipe:  recipe.Name,
		Configs: configs,
		Folds:   s.cfg.Folds,
		BurnIn:  s.cfg.TuneBurnIn,
		Alpha:   s.cfg.TuneAlpha,
		Seed:    seed + seedRace,
	}, runner)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	eliminated := 0
	for i := range race.Configs {
		if !race.Configs[i].Alive() {
			eliminated++
			metrics.RecordCandidateEliminated()
		}
	}
	metrics.UpdateBestCVAUC(race.Winner.Summary.Mean)
	res.Race = race

	s.logger.Info(ctx, "hyperparameters tuned",
		logger.Int("configs", len(race.Configs)),
		logger.Int("eliminated", eliminated),
		logger.Int("jobs", race.Jobs),
		logger.String("winner", race.Winner.Hyper.String()),
		logger.Float64("auc", race.Winner.Summary.Mean),
	)
	return nil
}

func (s *Service) space() tune.Space {
	c := s.cfg
	return tune.Space{
		Rounds:    tune.IntRange{Min: c.RoundsMin, Max: c.RoundsMax},
		MaxDepth:  tune.IntRange{Min: c.DepthMin, Max: c.DepthMax},
		ColSample: tune.FloatRange{Min: c.ColSampleMin, Max: c.ColSampleMax},
		MinLeaf:   tune.IntRange{Min: c.MinLeafMin, Max: c.MinLeafMax},
		Subsample: tune.FloatRange{Min: c.SubsampleMin, Max: c.SubsampleMax},
	}
}

// publish writes the run to every configured sink.
func (s *Service) publish(ctx context.Context, res *Result) error {
	if s.store != nil {
		if err := s.store.SaveRows(ctx, res.RunID, res.Dataset.Rows); err != nil {
			return err
		}
		if err := s.store.SaveCandidates(ctx, res.RunID, candidates(res)); err != nil {
			return err
		}
		err := s.store.SaveDiagnostics(ctx, res.RunID, res.Artifact.Recipe, len(res.Dataset.Rows), res.Report, res.Artifact.CreatedAt)
		if err != nil {
			return err
		}
	}
	if s.cfg.ParquetPath != "" {
		if err := repository.WriteParquet(s.cfg.ParquetPath, res.Dataset.Rows); err != nil {
			return err
		}
	}
	if s.registry != nil {
		if err := s.registry.Put(ctx, res.Artifact); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "run published",
		logger.String("run", res.RunID),
		logger.Bool("store", s.store != nil),
		logger.Bool("registry", s.registry != nil),
		logger.String("parquet", s.cfg.ParquetPath),
	)
	return nil
}

// candidates flattens the selection ranking and the race into ledger
// records. Race configurations are ranked survivors first.
func candidates(res *Result) []repository.CandidateRecord {
	out := make([]repository.CandidateRecord, 0, len(res.Selection.Ranked)+len(res.Race.Configs))
	for i, c := range res.Selection.Ranked {
		out = append(out, repository.CandidateRecord{
			Stage:    model.StageSelect,
			Name:     c.Recipe.Name,
			Recipe:   c.Recipe.Name,
			Hyper:    boost.DefaultParams().Hyperparameters,
			Mean:     c.Summary.Mean,
			StdErr:   c.Summary.StdErr,
			Folds:    len(c.Scores),
			Failures: c.Failures,
			Rank:     i + 1,
		})
	}

	cfgs := append([]tune.Config(nil), res.Race.Configs...)
	sort.SliceStable(cfgs, func(i, j int) bool {
		if cfgs[i].Alive() != cfgs[j].Alive() {
			return cfgs[i].Alive()
		}
		return cv.Better(cfgs[i].Summary, cfgs[j].Summary)
	})
	for i, c := range cfgs {
		out = append(out, repository.CandidateRecord{
			Stage:           model.StageTune,
			Name:            fmt.Sprintf("config-%02d", c.ID),
			Recipe:          res.Artifact.Recipe,
			Hyper:           c.Hyper,
			Mean:            c.Summary.Mean,
			StdErr:          c.Summary.StdErr,
			Folds:           len(c.Scores),
			Failures:        c.Failures,
			EliminatedAfter: c.EliminatedAfter,
			Rank:            i + 1,
		})
	}
	return out
}

// bySeason splits events into season tables in first-seen season order.
func bySeason(events []model.Event) []dataset.SeasonTable {
	var tables []dataset.SeasonTable
	index := map[string]int{}
	for i := range events {
		season := events[i].Season
		j, ok := index[season]
		if !ok {
			j = len(tables)
			index[season] = j
			tables = append(tables, dataset.SeasonTable{Season: season})
		}
		tables[j].Events = append(tables[j].Events, events[i])
	}
	return tables
}
