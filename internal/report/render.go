package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"abitur/internal/admission/models"
)

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"score":   formatScore,
	"outcome": formatOutcome,
	"cell":    dynamicsCell,
}).Parse(`ADMISSION REPORT {{.Label}} ({{.Day}})
generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}} UTC

PROGRAMS
{{printf "  %-6s %-28s %5s %6s %8s %9s %7s" "CODE" "NAME" "SEATS" "APPL" "CONSENT" "ADMITTED" "CUTOFF"}}
{{- range .Programs}}
{{printf "  %-6s %-28s %5d %6d %8d %9d %7s" (printf "%s" .Code) .Name .Seats .Applicants .Consents .Admitted (score .Cutoff)}}
{{- end}}

CUTOFF DYNAMICS
{{printf "  %-8s" "DAY"}}{{range .Programs}}{{printf " %6s" (printf "%s" .Code)}}{{end}}
{{- $programs := .Programs}}
{{- range .Dynamics}}
{{printf "  %-8s" .Label}}{{$row := .}}{{range $programs}}{{printf " %6s" (cell $row .Code)}}{{end}}
{{- end}}

UNIFIED LIST
{{printf "  %-10s %s" "APPLICANT" "OUTCOME"}}
{{- range .Unified}}
{{printf "  %-10d %s" .ApplicantID (outcome .)}}
{{- end}}
`))

func formatScore(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *score)
}

func formatOutcome(entry models.UnifiedEntry) string {
	var b strings.Builder
	if entry.Admitted && entry.Program != nil {
		fmt.Fprintf(&b, "admitted to %s", *entry.Program)
	} else {
		b.WriteString("not admitted")
	}
	if len(entry.Chain) > 0 {
		codes := make([]string, 0, len(entry.Chain))
		for _, p := range entry.Chain {
			codes = append(codes, string(p.Program))
		}
		fmt.Fprintf(&b, " (priorities: %s)", strings.Join(codes, " > "))
	}
	return b.String()
}

func dynamicsCell(row DynamicsRow, code models.ProgramID) string {
	if score, ok := row.Cutoffs[code]; ok {
		return fmt.Sprintf("%d", score)
	}
	return "-"
}

// Render writes the plain-text report.
func Render(w io.Writer, data *Data) error {
	return reportTmpl.Execute(w, data)
}
