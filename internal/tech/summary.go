package tech

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	Day                  int              `json:"day"`
	Total                int              `json:"total"`
	Discovered           int              `json:"discovered"`
	Undiscovered         int              `json:"undiscovered"`
	ActiveProjects       int              `json:"active_projects"`
	CompletedProjects    int              `json:"completed_projects"`
	AbandonedProjects    int              `json:"abandoned_projects"`
	Innovations          int              `json:"innovations"`
	RecentInnovations    int              `json:"recent_innovations"`
	OpenGoals            int              `json:"open_goals"`
	ActiveCompetitions   int              `json:"active_competitions"`
	OpenConflicts        int              `json:"open_conflicts"`
	Failures             int              `json:"failures"`
	AverageAdvancement   float64          `json:"average_advancement"`
	MedianAdvancement    float64          `json:"median_advancement"`
	ComplexityRatio      float64          `json:"complexity_ratio"`
	DiscoveredByCategory map[Category]int `json:"discovered_by_category"`
}

// Summary aggregates the current state. Advancement is the mean and median
// knowledge level across every agent-technology pair.
func (s *System) Summary() Summary {
	sum := Summary{
		Day:                  s.day,
		Total:                s.Catalog.Len(),
		DiscoveredByCategory: make(map[Category]int),
	}
	for _, t := range s.Catalog.Technologies() {
		if t.Discovered() {
			sum.Discovered++
			sum.DiscoveredByCategory[t.Category]++
		}
	}
	sum.Undiscovered = sum.Total - sum.Discovered
	if sum.Total > 0 {
		sum.ComplexityRatio = float64(sum.Discovered) / float64(sum.Total)
	}

	for _, p := range s.Projects.All() {
		switch p.Status {
		case StatusInProgress:
			sum.ActiveProjects++
		case StatusCompleted:
			sum.CompletedProjects++
		case StatusAbandoned:
			sum.AbandonedProjects++
		}
	}
	sum.Innovations = len(s.Innovations.All())
	sum.RecentInnovations = s.Innovations.Since(s.day - s.rates.RecentInnovationDays)
	for _, g := range s.Goals.All() {
		if g.Open() {
			sum.OpenGoals++
		}
	}
	for _, c := range s.Competitions.All() {
		if c.Active {
			sum.ActiveCompetitions++
		}
	}
	for _, c := range s.Conflicts.All() {
		if !c.Resolved {
			sum.OpenConflicts++
		}
	}
	sum.Failures = len(s.Failures.All())

	levels := s.Knowledge.AllLevels()
	if len(levels) > 0 {
		sum.AverageAdvancement = stat.Mean(levels, nil)
		if median, err := stats.Median(levels); err == nil {
			sum.MedianAdvancement = median
		}
	}
	return sum
}

// Status is the catalog-wide view: how many technologies each category holds
// and the share of the catalog discovered so far.
type Status struct {
	Day               int              `json:"day"`
	Total             int              `json:"total"`
	Discovered        int              `json:"discovered"`
	Undiscovered      int              `json:"undiscovered"`
	ActiveProjects    int              `json:"active_projects"`
	CompletedProjects int              `json:"completed_projects"`
	Innovations       int              `json:"innovations"`
	ByCategory        map[Category]int `json:"by_category"`
	DiscoveryRate     float64          `json:"discovery_rate"`
}

func (s *System) Status() Status {
	techs := s.Catalog.Technologies()
	categories := make([]Category, 0, len(techs))
	for _, t := range techs {
		categories = append(categories, t.Category)
	}
	return StatusOf(s.Summary(), categories)
}

// StatusOf derives a Status from a summary and the category of every catalog
// entry. Every known category is reported, empty ones as zero.
func StatusOf(sum Summary, categories []Category) Status {
	st := Status{
		Day:               sum.Day,
		Total:             sum.Total,
		Discovered:        sum.Discovered,
		Undiscovered:      sum.Undiscovered,
		ActiveProjects:    sum.ActiveProjects,
		CompletedProjects: sum.CompletedProjects,
		Innovations:       sum.Innovations,
		ByCategory:        make(map[Category]int, len(Categories)),
	}
	for _, c := range Categories {
		st.ByCategory[c] = 0
	}
	for _, c := range categories {
		st.ByCategory[c]++
	}
	if st.Total > 0 {
		st.DiscoveryRate = float64(st.Discovered) / float64(st.Total)
	}
	return st
}

// Advantage is the product of benefit multipliers of a given kind across every
// technology the entity knows. An entity with none has advantage 1.
func (s *System) Advantage(entity, kind string) float64 {
	return AdvantageFor(s.Catalog, s.Knowledge.EntityKnown(entity), kind)
}

func AdvantageFor(catalog *Catalog, known Set, kind string) float64 {
	advantage := 1.0
	for _, id := range known.Sorted() {
		t, ok := catalog.Get(id)
		if !ok {
			continue
		}
		if v, ok := t.Benefits[kind]; ok {
			advantage *= v
		}
	}
	return advantage
}

type AgentSummary struct {
	Name         string             `json:"name"`
	Known        map[string]float64 `json:"known"`
	ByCategory   map[Category]int   `json:"by_category"`
	Leading      []string           `json:"leading,omitempty"`
	Contributing []string           `json:"contributing,omitempty"`
	Discoveries  []string           `json:"discoveries,omitempty"`
	Innovations  int                `json:"innovations"`
}

func (s *System) AgentSummary(name string) AgentSummary {
	out := AgentSummary{Name: name, Known: s.Knowledge.Levels(name), ByCategory: make(map[Category]int)}
	if out.Known == nil {
		out.Known = map[string]float64{}
	}
	for id := range out.Known {
		if t, ok := s.Catalog.Get(id); ok {
			out.ByCategory[t.Category]++
		}
	}
	for _, p := range s.Projects.Active() {
		if p.Lead == name {
			out.Leading = append(out.Leading, p.ID)
		} else if p.involves(name) {
			out.Contributing = append(out.Contributing, p.ID)
		}
	}
	for _, t := range s.Catalog.Technologies() {
		if d, ok := t.Discovery(); ok && d.Discoverer == name {
			out.Discoveries = append(out.Discoveries, t.ID)
		}
	}
	for _, item := range s.Innovations.All() {
		if item.Creator == name {
			out.Innovations++
		}
	}
	return out
}
