// Package report renders the daily campaign report: per-program standing,
// passing scores, the unified applicant outcome and the cutoff movement over
// the campaign so far.
package report

import (
	"context"
	"time"

	"abitur/internal/admission/models"
	"abitur/internal/ingest"
)

// Source is the slice of the campaign service the builder reads from.
type Source interface {
	Days(ctx context.Context) ([]models.Day, error)
	DayResult(ctx context.Context, day models.Day) (*models.DayResult, error)
}

// ProgramSection is one program's standing on the report day.
type ProgramSection struct {
	Code       models.ProgramID
	Name       string
	Seats      int
	Applicants int
	Consents   int
	Admitted   int
	Cutoff     *int
}

// DynamicsRow is one campaign day in the cutoff movement table. Cutoffs are
// keyed by program code; a missing key means the cutoff was undefined that
// day.
type DynamicsRow struct {
	Day     models.Day
	Label   string
	Cutoffs map[models.ProgramID]int
}

// Data is everything the renderer needs for one report.
type Data struct {
	Day         models.Day
	Label       string
	GeneratedAt time.Time
	Programs    []ProgramSection
	Unified     []models.UnifiedEntry
	Dynamics    []DynamicsRow
}

// Build assembles the report for the given day, or for the latest applied
// day when day is empty. The dynamics table covers every applied day up to
// and including the report day.
func Build(ctx context.Context, src Source, campaign ingest.Campaign, day models.Day) (*Data, error) {
	result, err := src.DayResult(ctx, day)
	if err != nil {
		return nil, err
	}

	data := &Data{
		Day:         result.Day,
		Label:       campaign.LabelFor(result.Day),
		GeneratedAt: time.Now().UTC(),
		Unified:     result.Unified,
	}

	for _, program := range campaign.Programs {
		section := ProgramSection{
			Code:  program.Code,
			Name:  program.Name,
			Seats: program.Seats,
		}
		if ranking, ok := result.Ranking(program.Code); ok {
			section.Applicants = len(ranking.Entries)
		}
		if cutoff, ok := result.CutoffFor(program.Code); ok {
			section.Consents = cutoff.ConsentCount
			section.Admitted = cutoff.Admitted
			section.Cutoff = cutoff.Score
		}
		data.Programs = append(data.Programs, section)
	}

	days, err := src.Days(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		if d > result.Day {
			break
		}
		past := result
		if d != result.Day {
			past, err = src.DayResult(ctx, d)
			if err != nil {
				return nil, err
			}
		}
		row := DynamicsRow{
			Day:     d,
			Label:   campaign.LabelFor(d),
			Cutoffs: make(map[models.ProgramID]int, len(past.Cutoffs)),
		}
		for _, c := range past.Cutoffs {
			if c.Defined() {
				row.Cutoffs[c.Program] = *c.Score
			}
		}
		data.Dynamics = append(data.Dynamics, row)
	}

	return data, nil
}
