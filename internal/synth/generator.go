// Package synth generates deterministic play-by-play seasons whose goals
// follow a known probability surface.
package synth

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/okian/xg/internal/domain/gamestate"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/rink"
	"github.com/okian/xg/pkg/logger"
)

// Clock and rules constants.
const (
	periodLength      = 1200
	regulationPeriods = 3
	overtimeLength    = 300
	penaltyLength     = 120
	pullClock         = 1140
	shootoutRounds    = 3
	rosterSize        = 18
	goalieOffset      = 30
	penaltyShotRate   = 0.05
	reboundRate       = 0.15
	onGoalShare       = 0.65
	emptyNetGoalProb  = 0.45
)

// Stats summarizes a generated season.
type Stats struct {
	BatchID    string
	Games      int
	Events     int
	Attempts   int
	Goals      int
	Duplicates int
	// Attempts and Goals exclude the shootout. ExpectedGoals is the surface probability summed over attempts the
	// pipeline keeps (not empty net, not shootout, with coordinates).
	ExpectedGoals float64
}

// Generator produces seasons for a Config.
type Generator struct {
	cfg     Config
	surface Surface
	log     logger.Logger
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSurface replaces the default goal surface.
func WithSurface(s Surface) Option {
	return func(g *Generator) { g.surface = s }
}

// WithLogger sets a custom logger for the generator.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// New validates cfg and returns a generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := time.Parse(time.DateOnly, cfg.StartDate); err != nil {
		return nil, fmt.Errorf("%w: start date: %w", ErrInvalidConfig, err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	g := &Generator{cfg: cfg, surface: DefaultSurface(), log: logger.Get().Named("synth")}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Surface returns the goal surface outcomes are drawn from.
func (g *Generator) Surface() Surface { return g.surface }

// BatchID names the season deterministically from the seed and size.
func (g *Generator) BatchID() string {
	name := "xg-synth:" + strconv.FormatUint(g.cfg.Seed, 10) + ":" + strconv.Itoa(g.cfg.Games)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

type fixture struct {
	id         int64
	date       string
	home, away int
	seed       uint64
}

// Generate plays every game and returns the events in chronological order.
// The output depends only on the Config, not on Workers.
func (g *Generator) Generate(ctx context.Context) ([]model.Event, Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}
	fixtures := g.schedule()
	g.log.Info(ctx, "generating season",
		logger.Int("games", len(fixtures)),
		logger.Int("workers", g.cfg.Workers),
		logger.String("batch", g.BatchID()),
	)

	results := make([]*game, len(fixtures))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = g.play(fixtures[i])
			}
		}()
	}

	var err error
feed:
	for i := range fixtures {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{BatchID: g.BatchID(), Games: len(fixtures)}
	var out []model.Event
	for _, r := range results {
		out = append(out, r.events...)
		stats.Attempts += r.attempts
		stats.Goals += r.goals
		stats.Duplicates += r.duplicates
		stats.ExpectedGoals += r.expected
	}
	stats.Events = len(out)

	g.log.Info(ctx, "season generated",
		logger.Int("events", stats.Events),
		logger.Int("attempts", stats.Attempts),
		logger.Int("goals", stats.Goals),
		logger.Float64("expected_goals", stats.ExpectedGoals),
	)
	return out, stats, nil
}

func (g *Generator) schedule() []fixture {
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	start, _ := time.Parse(time.DateOnly, g.cfg.StartDate)
	perDay := g.cfg.Teams / 2

	out := make([]fixture, g.cfg.Games)
	for i := range out {
		home := 1 + rng.Intn(g.cfg.Teams)
		away := 1 + rng.Intn(g.cfg.Teams-1)
		if away >= home {
			away++
		}
		out[i] = fixture{
			id:   g.cfg.FirstGameID + int64(i),
			date: start.AddDate(0, 0, i/perDay).Format(time.DateOnly),
			home: home,
			away: away,
			seed: rng.Uint64(),
		}
	}
	return out
}

// game is the mutable state of one game being played.
type game struct {
	fixture
	cfg     *Config
	surface Surface
	rng     *rand.Rand

	homeSign float64
	period   int
	clock    int

	homeSkaters, awaySkaters int
	homeGoalie, awayGoalie   bool
	homePenaltyEnd           int
	awayPenaltyEnd           int

	idx    int
	events []model.Event

	attempts, goals, duplicates int
	expected                    float64
}

func (g *Generator) play(f fixture) *game {
	gm := &game{
		fixture:     f,
		cfg:         &g.cfg,
		surface:     g.surface,
		rng:         rand.New(rand.NewSource(f.seed)),
		homeSkaters: 5,
		awaySkaters: 5,
		homeGoalie:  true,
		awayGoalie:  true,
	}
	gm.homeSign = 1
	if gm.rng.Float64() < 0.5 {
		gm.homeSign = -1
	}
	pulled := gm.rng.Float64() < g.cfg.EmptyNetRate
	shootout := gm.rng.Float64() < g.cfg.ShootoutRate

	for gm.period = 1; gm.period <= regulationPeriods; gm.period++ {
		gm.playPeriod(pulled && gm.period == regulationPeriods)
	}
	if shootout {
		gm.playShootout()
	}
	if !shootout {
		gm.period = regulationPeriods
	}
	gm.clock = periodLength
	gm.emit(model.Event{Type: model.GameEnd})
	gm.duplicate()
	return gm
}

func (gm *game) playPeriod(pull bool) {
	gm.clock = 0
	gm.emit(model.Event{Type: model.PeriodStart})
	gm.faceoff(gm.pickTeam(), "N")

	for {
		gm.clock += 4 + gm.rng.Intn(30)
		if gm.clock >= periodLength {
			break
		}
		gm.expirePenalties()
		if pull && gm.clock >= pullClock && gm.homeGoalie {
			gm.homeGoalie = false
			gm.homeSkaters++
		}

		team := gm.pickTeam()
		switch u := gm.rng.Float64(); {
		case u < 0.40:
			gm.attempt(team)
		case u < 0.48:
			gm.play(team, model.BlockedShot, "D")
		case u < 0.63:
			gm.play(team, model.Hit, gm.zone())
		case u < 0.70:
			gm.play(team, model.Giveaway, gm.zone())
		case u < 0.76:
			gm.play(team, model.Takeaway, gm.zone())
		case u < 0.80:
			gm.penalty(team)
		case u < 0.90:
			gm.emit(model.Event{Type: model.Stoppage, SituationCode: gm.code()})
			gm.faceoff(gm.pickTeam(), gm.zone())
		default:
			gm.faceoff(team, gm.zone())
		}
	}

	gm.clock = periodLength
	gm.emit(model.Event{Type: model.PeriodEnd})
	if !gm.homeGoalie {
		gm.homeGoalie = true
		gm.homeSkaters--
	}
}

func (gm *game) playShootout() {
	gm.period = model.ShootoutPeriod
	gm.clock = 0
	gm.homeSkaters, gm.awaySkaters = 1, 1
	for r := 0; r < shootoutRounds; r++ {
		for _, team := range []int{gm.away, gm.home} {
			gm.penaltyShot(team)
		}
	}
	gm.emit(model.Event{Type: model.ShootoutComplete})
}

// emit stamps the shared fields and appends e.
func (gm *game) emit(e model.Event) {
	gm.idx++
	e.GameID = gm.id
	e.Season = gm.cfg.Season
	e.Date = gm.date
	e.Period = gm.period
	e.PeriodSeconds = gm.clock
	e.GameSeconds = gm.gameSeconds()
	e.SortOrder = gm.idx * 10
	e.EventIdx = gm.idx
	e.HomeTeamID = gm.home
	e.AwayTeamID = gm.away
	gm.events = append(gm.events, e)
}

func (gm *game) gameSeconds() int {
	if gm.period == model.ShootoutPeriod {
		return regulationPeriods*periodLength + overtimeLength
	}
	return (gm.period-1)*periodLength + gm.clock
}

// code renders the situation code: away goalie, away skaters, home
// skaters, home goalie.
func (gm *game) code() string {
	return fmt.Sprintf("%d%d%d%d", b2i(gm.awayGoalie), gm.awaySkaters, gm.homeSkaters, b2i(gm.homeGoalie))
}

func (gm *game) pickTeam() int {
	p := 0.5
	switch {
	case gm.homeSkaters > gm.awaySkaters:
		p = 0.65
	case gm.homeSkaters < gm.awaySkaters:
		p = 0.35
	}
	if gm.rng.Float64() < p {
		return gm.home
	}
	return gm.away
}

func (gm *game) opponent(team int) int {
	if team == gm.home {
		return gm.away
	}
	return gm.home
}

// sign is the raw-x direction team attacks in the current period.
func (gm *game) sign(team int) float64 {
	s := gm.homeSign
	if gm.period%2 == 0 {
		s = -s
	}
	if team != gm.home {
		s = -s
	}
	return s
}

func (gm *game) zone() string {
	switch u := gm.rng.Float64(); {
	case u < 0.4:
		return "O"
	case u < 0.7:
		return "D"
	default:
		return "N"
	}
}

// place converts attacking-frame coordinates to raw rink coordinates.
func (gm *game) place(team int, xAtt, yAtt float64) (*float64, *float64) {
	s := gm.sign(team)
	return model.Float(math.Round(s*xAtt*10) / 10), model.Float(math.Round(s*yAtt*10) / 10)
}

// spot draws attacking-frame coordinates inside zone.
func (gm *game) spot(zone string) (float64, float64) {
	y := (2*gm.rng.Float64() - 1) * 38
	switch zone {
	case "O":
		return 30 + gm.rng.Float64()*59, y
	case "D":
		return -30 - gm.rng.Float64()*59, y
	default:
		return (2*gm.rng.Float64() - 1) * 24, y
	}
}

func (gm *game) play(team int, t model.EventType, zone string) {
	xAtt, yAtt := gm.spot(zone)
	x, y := gm.place(team, xAtt, yAtt)
	gm.emit(model.Event{
		Type:          t,
		TeamID:        team,
		Zone:          zone,
		X:             x,
		Y:             y,
		SituationCode: gm.code(),
	})
}

func (gm *game) faceoff(team int, zone string) {
	xAtt, yAtt := 0.0, 0.0
	switch zone {
	case "O":
		xAtt, yAtt = 69, 22*sideOf(gm.rng.Float64())
	case "D":
		xAtt, yAtt = -69, 22*sideOf(gm.rng.Float64())
	}
	x, y := gm.place(team, xAtt, yAtt)
	gm.emit(model.Event{
		Type:          model.Faceoff,
		TeamID:        team,
		Zone:          zone,
		X:             x,
		Y:             y,
		SituationCode: gm.code(),
	})
}

func (gm *game) penalty(team int) {
	opp := gm.opponent(team)
	if gm.rng.Float64() < penaltyShotRate {
		gm.emit(model.Event{
			Type:          model.Penalty,
			TeamID:        team,
			Zone:          "D",
			PenaltyDesc:   "ps-hooking-on-breakaway",
			SituationCode: gm.code(),
		})
		gm.penaltyShot(opp)
		return
	}

	now := gm.gameSeconds()
	if team == gm.home {
		if gm.homePenaltyEnd != 0 {
			return
		}
		gm.homePenaltyEnd = now + penaltyLength
		gm.homeSkaters--
	} else {
		if gm.awayPenaltyEnd != 0 {
			return
		}
		gm.awayPenaltyEnd = now + penaltyLength
		gm.awaySkaters--
	}
	gm.emit(model.Event{
		Type:          model.Penalty,
		TeamID:        team,
		Zone:          gm.zone(),
		PenaltyDesc:   "minor",
		SituationCode: gm.code(),
	})
}

func (gm *game) expirePenalties() {
	now := gm.gameSeconds()
	if gm.homePenaltyEnd != 0 && now >= gm.homePenaltyEnd {
		gm.homePenaltyEnd = 0
		gm.homeSkaters++
	}
	if gm.awayPenaltyEnd != 0 && now >= gm.awayPenaltyEnd {
		gm.awayPenaltyEnd = 0
		gm.awaySkaters++
	}
}

// attempt plays a shot and, sometimes, a rebound off it.
func (gm *game) attempt(team int) {
	t, yAtt := gm.shotAt(team, false, 0)
	if t != model.ShotOnGoal || gm.rng.Float64() >= reboundRate {
		return
	}
	next := gm.clock + 1 + gm.rng.Intn(3)
	if next >= periodLength {
		return
	}
	gm.clock = next
	gm.shotAt(team, true, yAtt)
}

// penaltyShot is a one-on-one attempt from the slot.
func (gm *game) penaltyShot(team int) {
	dx := 8 + gm.rng.Float64()*10
	yAtt := (gm.rng.Float64() - 0.5) * 10
	gm.release(team, 89-dx, yAtt, false, true)
}

// shotAt plays an attempt. A rebound of a shot taken at prevY is released
// close in, from the far side of the crease.
func (gm *game) shotAt(team int, rebound bool, prevY float64) (model.EventType, float64) {
	var dx, yAtt float64
	if rebound {
		side := 1.0
		if prevY > 0 {
			side = -1
		}
		dx = 3 + gm.rng.Float64()*10
		yAtt = side * (2 + gm.rng.Float64()*12)
	} else {
		switch u := gm.rng.Float64(); {
		case u < 0.3:
			dx = 4 + gm.rng.Float64()*16
		case u < 0.8:
			dx = 20 + gm.rng.Float64()*25
		default:
			dx = 45 + gm.rng.Float64()*25
		}
		yAtt = (2*gm.rng.Float64() - 1) * math.Min(38, 6+dx*0.9)
	}
	return gm.release(team, 89-dx, yAtt, rebound, false), yAtt
}

// release draws the outcome of an attempt from (xAtt, yAtt) and emits it.
func (gm *game) release(team int, xAtt, yAtt float64, rebound, penaltyShot bool) model.EventType {
	isHome := team == gm.home
	code := gm.code()
	st, _ := gamestate.Decode(code)
	sit := gamestate.ForTeam(st, isHome)

	// Rounding mirrors what the pipeline reads back from raw coordinates.
	xAtt, yAtt = math.Round(xAtt*10)/10, math.Round(yAtt*10)/10
	distance, angle := rink.Geometry(xAtt, yAtt)
	p := gm.surface.Probability(distance, angle, rebound, sit.PowerPlay, penaltyShot)
	if sit.OnEmptyNet {
		p = emptyNetGoalProb
	}

	var x, y *float64
	if gm.rng.Float64() >= gm.cfg.MissingCoordRate {
		x, y = gm.place(team, xAtt, yAtt)
	}
	if x != nil && !sit.OnEmptyNet && gm.period != model.ShootoutPeriod {
		gm.expected += p
	}

	t := model.MissedShot
	switch u := gm.rng.Float64(); {
	case u < p:
		t = model.Goal
	case gm.rng.Float64() < onGoalShare:
		t = model.ShotOnGoal
	}

	shooter := team*100 + 1 + gm.rng.Intn(rosterSize)
	e := model.Event{
		Type:          t,
		TeamID:        team,
		Zone:          "O",
		X:             x,
		Y:             y,
		SituationCode: code,
		ShotType:      gm.shotType(rebound),
	}
	if !sit.OnEmptyNet {
		e.GoalieID = gm.opponent(team)*100 + goalieOffset
	}
	if t == model.Goal {
		e.ScorerID = shooter
		e.Assist1ID = team*100 + 1 + gm.rng.Intn(rosterSize)
		if gm.rng.Float64() < 0.7 {
			e.Assist2ID = team*100 + 1 + gm.rng.Intn(rosterSize)
		}
	} else {
		e.ShooterID = shooter
	}
	gm.emit(e)

	if gm.period == model.ShootoutPeriod {
		return t
	}
	gm.attempts++
	if t == model.Goal {
		gm.goals++
		gm.afterGoal(team, sit.PowerPlay)
	}
	return t
}

// afterGoal ends the opponent's minor on a power-play goal and restarts
// play at center ice.
func (gm *game) afterGoal(team int, powerPlay bool) {
	if powerPlay {
		if team == gm.home && gm.awayPenaltyEnd != 0 {
			gm.awayPenaltyEnd = 0
			gm.awaySkaters++
		}
		if team == gm.away && gm.homePenaltyEnd != 0 {
			gm.homePenaltyEnd = 0
			gm.homeSkaters++
		}
	}
	gm.faceoff(gm.opponent(team), "N")
}

func (gm *game) shotType(rebound bool) string {
	u := gm.rng.Float64()
	if rebound {
		switch {
		case u < 0.4:
			return "backhand"
		case u < 0.8:
			return "tip-in"
		default:
			return "wrist"
		}
	}
	switch {
	case u < 0.45:
		return "wrist"
	case u < 0.65:
		return "snap"
	case u < 0.80:
		return "slap"
	case u < 0.90:
		return "backhand"
	case u < 0.97:
		return "tip-in"
	default:
		return "deflected"
	}
}

// duplicate repeats events in place, as an overlapping upstream pull would.
func (gm *game) duplicate() {
	if gm.cfg.DuplicateRate == 0 {
		return
	}
	out := make([]model.Event, 0, len(gm.events))
	for _, e := range gm.events {
		out = append(out, e)
		if gm.rng.Float64() < gm.cfg.DuplicateRate {
			out = append(out, e)
			gm.duplicates++
		}
	}
	gm.events = out
}

func sideOf(u float64) float64 {
	if u < 0.5 {
		return -1
	}
	return 1
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
