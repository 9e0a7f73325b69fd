// Package ingest turns raw campaign inputs (the YAML campaign definition and
// per-day CSV folders) into typed snapshots for the engine. The engine never
// sees unparsed data; everything syntactic stops here.
package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"abitur/internal/admission/models"
)

// CampaignDay is one calendar day of the application period. Folder names
// the CSV directory under the data dir; Label is the short display form.
type CampaignDay struct {
	Day    models.Day `yaml:"day"`
	Label  string     `yaml:"label"`
	Folder string     `yaml:"folder"`
}

// Campaign is the static campaign definition: the program quota set and the
// day calendar. Quotas are fixed for the campaign; snapshots never change
// them.
type Campaign struct {
	Programs []models.Program `yaml:"programs"`
	Days     []CampaignDay    `yaml:"days"`
}

// LoadCampaign reads and validates a campaign YAML file.
func LoadCampaign(path string) (Campaign, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Campaign{}, fmt.Errorf("read campaign file: %w", err)
	}
	var c Campaign
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Campaign{}, fmt.Errorf("parse campaign file: %w", err)
	}
	if err := c.validate(); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (c *Campaign) validate() error {
	if len(c.Programs) == 0 {
		return fmt.Errorf("campaign defines no programs")
	}
	if len(c.Days) == 0 {
		return fmt.Errorf("campaign defines no days")
	}
	seen := make(map[models.ProgramID]bool, len(c.Programs))
	for _, p := range c.Programs {
		if p.Code == "" {
			return fmt.Errorf("program without code")
		}
		if seen[p.Code] {
			return fmt.Errorf("duplicate program code %s", p.Code)
		}
		seen[p.Code] = true
		if p.Seats < 0 {
			return fmt.Errorf("program %s: negative seat count", p.Code)
		}
	}
	var prev models.Day
	for i := range c.Days {
		d := &c.Days[i]
		if d.Day == "" {
			return fmt.Errorf("day without date")
		}
		if d.Day <= prev {
			return fmt.Errorf("days out of calendar order at %s", d.Day)
		}
		prev = d.Day
		if d.Folder == "" {
			d.Folder = string(d.Day)
		}
		if d.Label == "" {
			d.Label = string(d.Day)
		}
	}
	return nil
}

// DayByKey finds a campaign day by its date key.
func (c *Campaign) DayByKey(day models.Day) (CampaignDay, bool) {
	for _, d := range c.Days {
		if d.Day == day {
			return d, true
		}
	}
	return CampaignDay{}, false
}

// LabelFor returns the display label for a day, falling back to the key.
func (c *Campaign) LabelFor(day models.Day) string {
	if d, ok := c.DayByKey(day); ok {
		return d.Label
	}
	return string(day)
}
