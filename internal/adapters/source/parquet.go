package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/okian/xg/internal/domain/model"
)

const (
	parquetParallel  = 4
	parquetBatchSize = 1024
)

// EventRecord is the Parquet layout of an event.
type EventRecord struct {
	GameID        int64    `parquet:"name=game_id, type=INT64"`
	Season        string   `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date          string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Period        int32    `parquet:"name=period, type=INT32"`
	PeriodSeconds int32    `parquet:"name=period_seconds, type=INT32"`
	GameSeconds   int32    `parquet:"name=game_seconds, type=INT32"`
	SortOrder     int32    `parquet:"name=sort_order, type=INT32"`
	EventIdx      int32    `parquet:"name=event_idx, type=INT32"`
	Type          string   `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	X             *float64 `parquet:"name=x, type=DOUBLE, repetitiontype=OPTIONAL"`
	Y             *float64 `parquet:"name=y, type=DOUBLE, repetitiontype=OPTIONAL"`
	Zone          string   `parquet:"name=zone, type=BYTE_ARRAY, convertedtype=UTF8"`
	TeamID        int32    `parquet:"name=team_id, type=INT32"`
	HomeTeamID    int32    `parquet:"name=home_team_id, type=INT32"`
	AwayTeamID    int32    `parquet:"name=away_team_id, type=INT32"`
	SituationCode string   `parquet:"name=situation_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShotType      string   `parquet:"name=shot_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	PenaltyDesc   string   `parquet:"name=penalty_desc, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShooterID     int32    `parquet:"name=shooter_id, type=INT32"`
	ScorerID      int32    `parquet:"name=scorer_id, type=INT32"`
	GoalieID      int32    `parquet:"name=goalie_id, type=INT32"`
	Assist1ID     int32    `parquet:"name=assist1_id, type=INT32"`
	Assist2ID     int32    `parquet:"name=assist2_id, type=INT32"`
}

// Event converts r to the domain type.
func (r *EventRecord) Event() model.Event {
	return model.Event{
		GameID:        r.GameID,
		Season:        r.Season,
		Date:          r.Date,
		Period:        int(r.Period),
		PeriodSeconds: int(r.PeriodSeconds),
		GameSeconds:   int(r.GameSeconds),
		SortOrder:     int(r.SortOrder),
		EventIdx:      int(r.EventIdx),
		Type:          model.EventType(r.Type),
		X:             r.X,
		Y:             r.Y,
		Zone:          r.Zone,
		TeamID:        int(r.TeamID),
		HomeTeamID:    int(r.HomeTeamID),
		AwayTeamID:    int(r.AwayTeamID),
		SituationCode: r.SituationCode,
		ShotType:      r.ShotType,
		PenaltyDesc:   r.PenaltyDesc,
		ShooterID:     int(r.ShooterID),
		ScorerID:      int(r.ScorerID),
		GoalieID:      int(r.GoalieID),
		Assist1ID:     int(r.Assist1ID),
		Assist2ID:     int(r.Assist2ID),
	}
}

// NewEventRecord converts e to its Parquet layout.
func NewEventRecord(e *model.Event) EventRecord {
	return EventRecord{
		GameID:        e.GameID,
		Season:        e.Season,
		Date:          e.Date,
		Period:        int32(e.Period),
		PeriodSeconds: int32(e.PeriodSeconds),
		GameSeconds:   int32(e.GameSeconds),
		SortOrder:     int32(e.SortOrder),
		EventIdx:      int32(e.EventIdx),
		Type:          string(e.Type),
		X:             e.X,
		Y:             e.Y,
		Zone:          e.Zone,
		TeamID:        int32(e.TeamID),
		HomeTeamID:    int32(e.HomeTeamID),
		AwayTeamID:    int32(e.AwayTeamID),
		SituationCode: e.SituationCode,
		ShotType:      e.ShotType,
		PenaltyDesc:   e.PenaltyDesc,
		ShooterID:     int32(e.ShooterID),
		ScorerID:      int32(e.ScorerID),
		GoalieID:      int32(e.GoalieID),
		Assist1ID:     int32(e.Assist1ID),
		Assist2ID:     int32(e.Assist2ID),
	}
}

// Parquet reads every event stored in the Parquet file at path.
func Parquet(ctx context.Context, path string) ([]model.Event, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fr, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(EventRecord), parquetParallel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	out := make([]model.Event, 0, num)
	batchSize := parquetBatchSize
	for offset := 0; offset < num; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]EventRecord, batchSize)
		if err := pr.Read(&batch); err != nil {
			return nil, fmt.Errorf("%w: rows %d..: %w", ErrDecode, offset, err)
		}
		for i := range batch {
			out = append(out, batch[i].Event())
		}
	}
	return out, nil
}

// WriteParquet stores events at path, replacing any existing file.
func WriteParquet(path string, events []model.Event) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(EventRecord), parquetParallel)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range events {
		if err := pw.Write(NewEventRecord(&events[i])); err != nil {
			return fmt.Errorf("%w: event %s: %w", ErrWrite, events[i].Key(), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
