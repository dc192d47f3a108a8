package repository

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/okian/xg/internal/domain/model"
)

const parquetParallel = 4

// RowRecord is the Parquet layout of a training row.
type RowRecord struct {
	RowID       int64   `parquet:"name=row_id, type=INT64"`
	GameID      int64   `parquet:"name=game_id, type=INT64"`
	Season      string  `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	EventIdx    int32   `parquet:"name=event_idx, type=INT32"`
	Distance    float64 `parquet:"name=distance, type=DOUBLE"`
	Angle       float64 `parquet:"name=angle, type=DOUBLE"`
	ShotType    string  `parquet:"name=shot_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Period      int32   `parquet:"name=period, type=INT32"`
	PowerPlay   bool    `parquet:"name=power_play, type=BOOLEAN"`
	ShortHanded bool    `parquet:"name=short_handed, type=BOOLEAN"`
	LagEvent1   string  `parquet:"name=lag_event_1, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	LagEvent2   string  `parquet:"name=lag_event_2, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	LagZone     string  `parquet:"name=lag_zone, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Elapsed     float64 `parquet:"name=elapsed, type=DOUBLE"`
	Lateral     float64 `parquet:"name=lateral, type=DOUBLE"`
	Rebound     bool    `parquet:"name=rebound, type=BOOLEAN"`
	PenaltyShot bool    `parquet:"name=penalty_shot, type=BOOLEAN"`
	Outcome     string  `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Danger      bool    `parquet:"name=danger, type=BOOLEAN"`
}

func newRowRecord(r *model.TrainingRow) RowRecord {
	f := &r.Features
	return RowRecord{
		RowID:       int64(r.Meta.ID),
		GameID:      r.Meta.GameID,
		Season:      r.Meta.Season,
		EventIdx:    int32(r.Meta.EventIdx),
		Distance:    f.Distance,
		Angle:       f.Angle,
		ShotType:    f.ShotType,
		Period:      int32(f.Period),
		PowerPlay:   f.PowerPlay,
		ShortHanded: f.ShortHanded,
		LagEvent1:   f.LagEvent1,
		LagEvent2:   f.LagEvent2,
		LagZone:     f.LagZone,
		Elapsed:     f.Elapsed,
		Lateral:     f.Lateral,
		Rebound:     f.Rebound,
		PenaltyShot: f.PenaltyShot,
		Outcome:     string(r.Label),
		Danger:      r.Danger,
	}
}

func (rec *RowRecord) row() model.TrainingRow {
	return model.TrainingRow{
		Meta: model.RowMeta{
			ID:       model.RowID(rec.RowID),
			GameID:   rec.GameID,
			Season:   rec.Season,
			EventIdx: int(rec.EventIdx),
		},
		Features: model.Features{
			Distance:    rec.Distance,
			Angle:       rec.Angle,
			ShotType:    rec.ShotType,
			Period:      int(rec.Period),
			PowerPlay:   rec.PowerPlay,
			ShortHanded: rec.ShortHanded,
			LagEvent1:   rec.LagEvent1,
			LagEvent2:   rec.LagEvent2,
			LagZone:     rec.LagZone,
			Elapsed:     rec.Elapsed,
			Lateral:     rec.Lateral,
			Rebound:     rec.Rebound,
			PenaltyShot: rec.PenaltyShot,
		},
		Label:  model.Outcome(rec.Outcome),
		Danger: rec.Danger,
	}
}

// WriteParquet exports rows to a Parquet file at path.
func WriteParquet(path string, rows []model.TrainingRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(RowRecord), parquetParallel)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(newRowRecord(&rows[i])); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrWrite, rows[i].Meta.ID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// ReadParquet loads rows exported by WriteParquet.
func ReadParquet(path string) ([]model.TrainingRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(RowRecord), parquetParallel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer pr.ReadStop()

	recs := make([]RowRecord, int(pr.GetNumRows()))
	if err := pr.Read(&recs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	out := make([]model.TrainingRow, len(recs))
	for i := range recs {
		out[i] = recs[i].row()
	}
	return out, nil
}
