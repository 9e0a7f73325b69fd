package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"abitur/internal/admission/models"
	dErrors "abitur/pkg/domain-errors"
)

// csvHeader is the fixed column set of a per-program day file.
var csvHeader = []string{
	"applicant_id", "consent", "priority",
	"physics_ikt", "russian", "math", "achievements", "total",
}

type csvRow struct {
	applicant models.ApplicantID
	consent   bool
	priority  int
	score     models.Score
}

// ReadDay assembles a DaySnapshot from a day folder: one <CODE>.csv per
// campaign program, each row being one applicant's application to that
// program. Rows for the same applicant across files merge into a single
// record; contradictions between files (diverging scores, more than one
// consent flag) are malformed input.
func ReadDay(dataDir string, campaign Campaign, day models.Day) (models.DaySnapshot, error) {
	campaignDay, ok := campaign.DayByKey(day)
	if !ok {
		return models.DaySnapshot{}, dErrors.Newf(dErrors.CodeNotFound, "unknown campaign day %s", day)
	}
	folder := filepath.Join(dataDir, campaignDay.Folder)

	type partial struct {
		record  models.ApplicantRecord
		consent *models.ProgramID
	}
	byApplicant := make(map[models.ApplicantID]*partial)

	for _, program := range campaign.Programs {
		path := filepath.Join(folder, string(program.Code)+".csv")
		rows, err := readProgramFile(path)
		if err != nil {
			return models.DaySnapshot{}, fmt.Errorf("program %s: %w", program.Code, err)
		}
		for _, row := range rows {
			p, exists := byApplicant[row.applicant]
			if !exists {
				p = &partial{record: models.ApplicantRecord{ID: row.applicant, Score: row.score}}
				byApplicant[row.applicant] = p
			} else if p.record.Score != row.score {
				return models.DaySnapshot{}, dErrors.Newf(dErrors.CodeMalformedRecord,
					"applicant %d: score differs between program files", row.applicant)
			}
			p.record.Priorities = append(p.record.Priorities, models.ProgramPriority{
				Program: program.Code,
				Rank:    row.priority,
			})
			if row.consent {
				if p.consent != nil {
					return models.DaySnapshot{}, dErrors.Newf(dErrors.CodeMalformedRecord,
						"applicant %d: consent set for more than one program", row.applicant)
				}
				code := program.Code
				p.consent = &code
			}
		}
	}

	records := make([]models.ApplicantRecord, 0, len(byApplicant))
	for _, p := range byApplicant {
		p.record.Consent = p.consent
		sort.Slice(p.record.Priorities, func(i, j int) bool {
			return p.record.Priorities[i].Rank < p.record.Priorities[j].Rank
		})
		records = append(records, p.record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	return models.DaySnapshot{Day: day, Records: records}, nil
}

func readProgramFile(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open day file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range csvHeader {
		if strings.TrimSpace(header[i]) != want {
			return nil, dErrors.Newf(dErrors.CodeMalformedRecord,
				"unexpected column %q, want %q", header[i], want)
		}
	}

	var rows []csvRow
	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(fields)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeMalformedRecord, fmt.Sprintf("line %d", line))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(fields []string) (csvRow, error) {
	ints := make([]int, len(fields))
	for i, f := range fields {
		if i == 1 {
			continue // consent parses separately
		}
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return csvRow{}, fmt.Errorf("column %s: %w", csvHeader[i], err)
		}
		ints[i] = n
	}

	row := csvRow{
		applicant: models.ApplicantID(ints[0]),
		consent:   parseConsent(fields[1]),
		priority:  ints[2],
		score: models.Score{
			PhysicsIT:    ints[3],
			Russian:      ints[4],
			Math:         ints[5],
			Achievements: ints[6],
			Total:        ints[7],
		},
	}
	return row, nil
}

// parseConsent accepts the loose truthy forms the source files use.
func parseConsent(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
