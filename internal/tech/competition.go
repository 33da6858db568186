package tech

import "fmt"

type CompetitionKind string

const (
	CompetitionResearchRace   CompetitionKind = "research_race"
	CompetitionInnovationWar  CompetitionKind = "innovation_war"
	CompetitionKnowledgeTheft CompetitionKind = "knowledge_theft"
	CompetitionEmbargo        CompetitionKind = "embargo"
)

func (k CompetitionKind) Valid() bool {
	switch k {
	case CompetitionResearchRace, CompetitionInnovationWar, CompetitionKnowledgeTheft, CompetitionEmbargo:
		return true
	default:
		return false
	}
}

type Sabotage struct {
	Day      int    `json:"day"`
	Saboteur string `json:"saboteur"`
	Target   string `json:"target"`
	Success  bool   `json:"success"`
}

type Competition struct {
	ID           string          `json:"id"`
	Kind         CompetitionKind `json:"kind"`
	Technology   string          `json:"technology"`
	Participants []string        `json:"participants"`
	StartDay     int             `json:"start_day"`
	Stakes       string          `json:"stakes,omitempty"`
	Leader       string          `json:"leader,omitempty"`
	Lead         float64         `json:"lead"`
	Sabotage     []Sabotage      `json:"sabotage,omitempty"`
	Active       bool            `json:"active"`
	Winner       string          `json:"winner,omitempty"`
	EndDay       int             `json:"end_day,omitempty"`
}

// Competitions tracks rivalries over a single undiscovered technology. A
// competition closes once that technology is discovered by anyone.
type Competitions struct {
	catalog  *Catalog
	projects *Projects
	rates    *Rates
	src      Source

	items map[string]*Competition
	order []string
}

func NewCompetitions(catalog *Catalog, projects *Projects, rates *Rates, src Source) *Competitions {
	return &Competitions{
		catalog:  catalog,
		projects: projects,
		rates:    rates,
		src:      src,
		items:    make(map[string]*Competition),
	}
}

func (c *Competitions) Get(id string) (*Competition, bool) {
	item, ok := c.items[id]
	return item, ok
}

func (c *Competitions) All() []*Competition {
	out := make([]*Competition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *Competitions) ActiveFor(techID string) *Competition {
	for _, id := range c.order {
		if item := c.items[id]; item.Active && item.Technology == techID {
			return item
		}
	}
	return nil
}

// Start opens a competition. It returns nil for fewer than two distinct
// participants or a technology that is unknown or already discovered.
func (c *Competitions) Start(kind CompetitionKind, techID string, participants []string, stakes string, day int) *Competition {
	t, ok := c.catalog.Get(techID)
	if !ok || t.Discovered() || !kind.Valid() {
		return nil
	}
	var distinct []string
	seen := make(map[string]bool)
	for _, p := range participants {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		distinct = append(distinct, p)
	}
	if len(distinct) < 2 {
		return nil
	}
	item := &Competition{
		ID:           newID(c.src, "competition"),
		Kind:         kind,
		Technology:   techID,
		Participants: distinct,
		StartDay:     day,
		Stakes:       stakes,
		Active:       true,
	}
	c.items[item.ID] = item
	c.order = append(c.order, item.ID)
	return item
}

func startedEvent(item *Competition, day int) Event {
	return Event{
		Kind:       EventCompetitionStarted,
		Day:        day,
		Technology: item.Technology,
		Ref:        item.ID,
		Detail: map[string]any{
			"kind":         string(item.Kind),
			"participants": append([]string(nil), item.Participants...),
		},
		Text: fmt.Sprintf("%s began between %v over %s", item.Kind, item.Participants, item.Technology),
	}
}

func (c *Competitions) Process(day int, pop *Population, emit Emit) error {
	for _, id := range c.order {
		item := c.items[id]
		if !item.Active {
			continue
		}
		t, ok := c.catalog.Get(item.Technology)
		if !ok {
			return fmt.Errorf("processing competition %s: unknown technology %q", item.ID, item.Technology)
		}
		if d, done := t.Discovery(); done {
			item.Active = false
			item.Winner = d.Discoverer
			item.EndDay = day
			emit(Event{
				Kind:       EventCompetitionEnded,
				Day:        day,
				Technology: item.Technology,
				Actor:      d.Discoverer,
				Ref:        item.ID,
				Detail:     map[string]any{"kind": string(item.Kind), "duration": day - item.StartDay},
				Text:       fmt.Sprintf("%s won the %s over %s", d.Discoverer, item.Kind, t.Name),
			})
			continue
		}

		c.updateLeader(item, pop)

		if roll(c.src, c.rates.SabotageChance) {
			i := c.src.IntN(len(item.Participants))
			j := c.src.IntN(len(item.Participants) - 1)
			if j >= i {
				j++
			}
			attempt := Sabotage{
				Day:      day,
				Saboteur: item.Participants[i],
				Target:   item.Participants[j],
				Success:  roll(c.src, c.rates.SabotageSuccess),
			}
			item.Sabotage = append(item.Sabotage, attempt)
			emit(Event{
				Kind:       EventSabotageAttempt,
				Day:        day,
				Technology: item.Technology,
				Actor:      attempt.Saboteur,
				Subject:    attempt.Target,
				Ref:        item.ID,
				Detail:     map[string]any{"success": attempt.Success},
				Text:       fmt.Sprintf("%s tried to sabotage %s in the race for %s", attempt.Saboteur, attempt.Target, t.Name),
			})
		}
	}
	return nil
}

// updateLeader credits the in-progress project on the technology to whichever
// participant leads or sponsors it.
func (c *Competitions) updateLeader(item *Competition, pop *Population) {
	p := c.projects.ActiveFor(item.Technology)
	if p == nil {
		return
	}
	for _, participant := range item.Participants {
		if participant == p.Lead || participant == p.Sponsor || p.involves(participant) {
			item.Leader = participant
			item.Lead = p.Fraction()
			return
		}
		if group, ok := pop.Group(participant); ok {
			for _, member := range group.Members() {
				if p.involves(member) {
					item.Leader = participant
					item.Lead = p.Fraction()
					return
				}
			}
		}
	}
}
