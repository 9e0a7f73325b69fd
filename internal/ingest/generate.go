package ingest

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"abitur/internal/admission/models"
)

// GenerateOptions tunes the sample data generator.
type GenerateOptions struct {
	// Seed makes the output reproducible.
	Seed int64
	// ApplicantsPerDay is how many new applicants appear each day.
	ApplicantsPerDay int
	// ConsentShare is the fraction of known applicants consenting by the
	// last day, ramping up linearly over the campaign.
	ConsentShare float64
}

// Generate writes plausible CSV day folders for the whole campaign. The
// output always satisfies the evolution rules: applicants only appear, never
// vanish; scores are frozen at first appearance; consents only move from
// none to the applicant's top choice.
func Generate(dataDir string, campaign Campaign, opts GenerateOptions) error {
	if opts.ApplicantsPerDay <= 0 {
		opts.ApplicantsPerDay = 200
	}
	if opts.ConsentShare <= 0 || opts.ConsentShare > 1 {
		opts.ConsentShare = 0.3
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var population []*genApplicant
	nextID := models.ApplicantID(100000)

	for dayIdx, day := range campaign.Days {
		// New applicants for this day, with fixed scores and priorities.
		for i := 0; i < opts.ApplicantsPerDay; i++ {
			total := 160 + rng.Intn(141) // 160..300
			a := &genApplicant{
				id:         nextID,
				score:      splitTotal(total, rng),
				priorities: randomPriorities(campaign.Programs, rng),
			}
			nextID++
			population = append(population, a)
		}

		// Ramp consents toward the target share. New consents go to the
		// applicant's rank 1 program, which is always a legal transition.
		share := opts.ConsentShare * float64(dayIdx+1) / float64(len(campaign.Days))
		target := int(share * float64(len(population)))
		consented := 0
		for _, a := range population {
			if a.consented {
				consented++
			}
		}
		for _, a := range population {
			if consented >= target {
				break
			}
			if !a.consented {
				a.consented = true
				consented++
			}
		}

		folder := filepath.Join(dataDir, day.Folder)
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("create day folder: %w", err)
		}
		for _, program := range campaign.Programs {
			rows := make([]*genApplicant, 0, len(population))
			for _, a := range population {
				if hasProgram(a.priorities, program.Code) {
					rows = append(rows, a)
				}
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
			if err := writeProgramFile(folder, program.Code, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasProgram(priorities []models.ProgramPriority, code models.ProgramID) bool {
	for _, p := range priorities {
		if p.Program == code {
			return true
		}
	}
	return false
}

func randomPriorities(programs []models.Program, rng *rand.Rand) []models.ProgramPriority {
	perm := rng.Perm(len(programs))
	count := 1 + rng.Intn(len(programs))
	out := make([]models.ProgramPriority, 0, count)
	for rank, idx := range perm[:count] {
		out = append(out, models.ProgramPriority{Program: programs[idx].Code, Rank: rank + 1})
	}
	return out
}

// splitTotal distributes a total over the subject columns the way the source
// data does: three subjects of 50..100 plus achievements 0..10.
func splitTotal(total int, rng *rand.Rand) models.Score {
	achievements := total % 11
	rem := total - achievements - 150
	subjects := [3]int{50, 50, 50}
	for i := 0; i < 3 && rem > 0; i++ {
		add := rng.Intn(min(50, rem) + 1)
		subjects[i] += add
		rem -= add
	}
	for i := 0; rem > 0; i = (i + 1) % 3 {
		if subjects[i] < 100 {
			subjects[i]++
			rem--
		}
	}
	return models.Score{
		PhysicsIT:    subjects[0],
		Russian:      subjects[1],
		Math:         subjects[2],
		Achievements: achievements,
		Total:        total,
	}
}

type genApplicant struct {
	id         models.ApplicantID
	score      models.Score
	priorities []models.ProgramPriority
	consented  bool
}

func writeProgramFile(folder string, code models.ProgramID, rows []*genApplicant) error {
	path := filepath.Join(folder, string(code)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create day file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range rows {
		consent := "0"
		// Consent binds to the rank 1 program only.
		if a.consented && a.priorities[0].Program == code {
			consent = "1"
		}
		rank := 0
		for _, p := range a.priorities {
			if p.Program == code {
				rank = p.Rank
			}
		}
		record := []string{
			strconv.FormatInt(int64(a.id), 10),
			consent,
			strconv.Itoa(rank),
			strconv.Itoa(a.score.PhysicsIT),
			strconv.Itoa(a.score.Russian),
			strconv.Itoa(a.score.Math),
			strconv.Itoa(a.score.Achievements),
			strconv.Itoa(a.score.Total),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
