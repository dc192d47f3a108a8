package dataset

import (
	"github.com/okian/xg/internal/domain/danger"
	"github.com/okian/xg/internal/domain/gamestate"
	"github.com/okian/xg/internal/domain/model"
	"github.com/okian/xg/internal/domain/rink"
	"github.com/okian/xg/internal/domain/sequence"
)

// EnrichStats counts recoverable input problems seen during enrichment.
type EnrichStats struct {
	Events int
	Games  int
	// InvalidSituation counts events whose situation code was absent or
	// malformed; their manpower flags stay false.
	InvalidSituation int
	// UndefinedGeometry counts shot attempts without fixed coordinates.
	UndefinedGeometry int
}

// Enrich derives per-event features from a chronologically sorted stream.
// Each game is processed on its own and the partial results are joined in
// order; sequence features then run across the joined stream.
func Enrich(events []model.Event, policy Policy) ([]model.EnrichedEvent, EnrichStats, error) {
	stats := EnrichStats{Events: len(events)}
	parts := make([][]model.EnrichedEvent, 0)
	for start := 0; start < len(events); {
		end := start + 1
		for end < len(events) && events[end].GameID == events[start].GameID {
			end++
		}
		part, s := enrichGame(events[start:end])
		parts = append(parts, part)
		stats.InvalidSituation += s.InvalidSituation
		stats.UndefinedGeometry += s.UndefinedGeometry
		start = end
	}
	stats.Games = len(parts)

	joined := make([]model.EnrichedEvent, 0, len(events))
	for _, p := range parts {
		joined = append(joined, p...)
	}

	out, err := sequence.Build(joined, sequence.WithReboundWindow(policy.Rebound.Max, policy.Rebound.AllowZero))
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

func enrichGame(game []model.Event) ([]model.EnrichedEvent, EnrichStats) {
	var stats EnrichStats
	fixed := rink.Normalize(game)
	out := make([]model.EnrichedEvent, len(game))
	for i := range game {
		en := model.EnrichedEvent{Event: game[i]}

		if st, err := gamestate.Decode(en.SituationCode); err == nil {
			en.SituationKnown = true
			en.AwayGoalie, en.AwaySkaters = st.AwayGoalie, st.AwaySkaters
			en.HomeGoalie, en.HomeSkaters = st.HomeGoalie, st.HomeSkaters
			if en.TeamID != 0 {
				sit := gamestate.ForTeam(st, en.IsHome())
				en.PowerPlay = sit.PowerPlay
				en.ShortHanded = sit.ShortHanded
				en.EventOnEmptyNet = sit.OnEmptyNet
				en.EventTeamNetEmpty = sit.OwnNetEmpty
			}
		} else {
			stats.InvalidSituation++
		}

		if p := fixed[i]; p != nil {
			en.FixedX = model.Float(p.X)
			en.FixedY = model.Float(p.Y)
		}
		if en.Type.IsShotAttempt() {
			if en.FixedX == nil {
				stats.UndefinedGeometry++
			} else {
				d, a := rink.Geometry(*en.FixedX, *en.FixedY)
				en.Distance = model.Float(d)
				en.Angle = model.Float(a)
				en.Danger = danger.Dangerous(d, a)
			}
		}
		out[i] = en
	}
	return out, stats
}
