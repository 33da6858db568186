package tech

import (
	"fmt"
	"math"
)

type ResolutionMethod string

const (
	ResolveTechnologySharing ResolutionMethod = "technology_sharing"
	ResolveNegotiation       ResolutionMethod = "negotiation"
	ResolveTrade             ResolutionMethod = "trade"
	ResolveCollaboration     ResolutionMethod = "collaboration"
	ResolveDiplomacy         ResolutionMethod = "diplomacy"
)

var resolutionMethods = []ResolutionMethod{
	ResolveTechnologySharing, ResolveNegotiation, ResolveTrade, ResolveCollaboration, ResolveDiplomacy,
}

func (m ResolutionMethod) Valid() bool {
	for _, known := range resolutionMethods {
		if m == known {
			return true
		}
	}
	return false
}

type ConflictEntry struct {
	Day       int     `json:"day"`
	Action    string  `json:"action"`
	Intensity float64 `json:"intensity"`
}

type Conflict struct {
	ID            string           `json:"id"`
	Advantaged    string           `json:"advantaged"`
	Disadvantaged string           `json:"disadvantaged"`
	Gap           []string         `json:"gap"`
	Intensity     float64          `json:"intensity"`
	StartDay      int              `json:"start_day"`
	Log           []ConflictEntry  `json:"log"`
	Resolved      bool             `json:"resolved"`
	ResolvedDay   int              `json:"resolved_day,omitempty"`
	Outcome       ResolutionMethod `json:"outcome,omitempty"`
}

func (c *Conflict) between(a, b string) bool {
	return (c.Advantaged == a && c.Disadvantaged == b) || (c.Advantaged == b && c.Disadvantaged == a)
}

// Conflicts opens tension between groups whose technology sets diverge.
type Conflicts struct {
	knowledge *KnowledgeIndex
	rates     *Rates
	src       Source

	items []*Conflict
}

func NewConflicts(knowledge *KnowledgeIndex, rates *Rates, src Source) *Conflicts {
	return &Conflicts{knowledge: knowledge, rates: rates, src: src}
}

func (c *Conflicts) All() []*Conflict {
	return append([]*Conflict(nil), c.items...)
}

func (c *Conflicts) Get(id string) (*Conflict, bool) {
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

func (c *Conflicts) Process(day int, pop *Population, emit Emit) error {
	for _, item := range c.items {
		if item.Resolved {
			continue
		}
		if roll(c.src, c.rates.EscalateChance) {
			if item.Intensity < 1 {
				item.Intensity = math.Min(1, item.Intensity+c.rates.EscalateStep)
				c.shift(item, day, "escalated", EventConflictEscalated, emit)
			}
			continue
		}
		if roll(c.src, c.rates.DeescalateChance) {
			if item.Intensity > 0 {
				item.Intensity = math.Max(0, item.Intensity-c.rates.DeescalateStep)
				c.shift(item, day, "de-escalated", EventConflictDeescalated, emit)
			}
			continue
		}
		if roll(c.src, c.rates.ResolveChance) {
			method := resolutionMethods[c.src.IntN(len(resolutionMethods))]
			c.resolve(item, method, day, emit)
		}
	}

	if c.rates.ConflictInterval <= 0 || day%c.rates.ConflictInterval != 0 {
		return nil
	}
	groups := pop.Groups()
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			a, b := groups[i].Name(), groups[j].Name()
			if c.openBetween(a, b) {
				continue
			}
			knownA, knownB := c.knowledge.GroupKnown(a), c.knowledge.GroupKnown(b)
			gapA, gapB := knownA.Minus(knownB), knownB.Minus(knownA)
			advantaged, disadvantaged, gap := a, b, gapA
			if len(gapB) > len(gapA) {
				advantaged, disadvantaged, gap = b, a, gapB
			}
			if len(gap) < c.rates.ConflictGap || !roll(c.src, c.rates.ConflictChance) {
				continue
			}
			item := &Conflict{
				ID:            newID(c.src, "conflict"),
				Advantaged:    advantaged,
				Disadvantaged: disadvantaged,
				Gap:           gap.Sorted(),
				Intensity:     sample(c.src, c.rates.ConflictIntensity),
				StartDay:      day,
			}
			item.Log = append(item.Log, ConflictEntry{Day: day, Action: "started", Intensity: item.Intensity})
			c.items = append(c.items, item)
			emit(Event{
				Kind:    EventConflictStarted,
				Day:     day,
				Actor:   advantaged,
				Subject: disadvantaged,
				Ref:     item.ID,
				Detail:  map[string]any{"gap": append([]string(nil), item.Gap...), "intensity": item.Intensity},
				Text:    fmt.Sprintf("%s resents %s's technological lead in %d technologies", disadvantaged, advantaged, len(item.Gap)),
			})
		}
	}
	return nil
}

// shift records an intensity change already applied to item.
func (c *Conflicts) shift(item *Conflict, day int, action string, kind EventKind, emit Emit) {
	item.Log = append(item.Log, ConflictEntry{Day: day, Action: action, Intensity: item.Intensity})
	emit(Event{
		Kind:    kind,
		Day:     day,
		Actor:   item.Advantaged,
		Subject: item.Disadvantaged,
		Ref:     item.ID,
		Detail:  map[string]any{"intensity": item.Intensity},
		Text:    fmt.Sprintf("the technology conflict between %s and %s %s", item.Advantaged, item.Disadvantaged, action),
	})
}

func (c *Conflicts) openBetween(a, b string) bool {
	for _, item := range c.items {
		if !item.Resolved && item.between(a, b) {
			return true
		}
	}
	return false
}

// Resolve closes a conflict. A resolved conflict stays resolved; repeated
// calls report false.
func (c *Conflicts) Resolve(id string, method ResolutionMethod, day int, emit Emit) bool {
	item, ok := c.Get(id)
	if !ok || item.Resolved || !method.Valid() {
		return false
	}
	c.resolve(item, method, day, emit)
	return true
}

func (c *Conflicts) resolve(item *Conflict, method ResolutionMethod, day int, emit Emit) {
	item.Resolved = true
	item.ResolvedDay = day
	item.Outcome = method
	item.Log = append(item.Log, ConflictEntry{Day: day, Action: "resolved", Intensity: item.Intensity})
	if emit == nil {
		return
	}
	emit(Event{
		Kind:    EventConflictResolved,
		Day:     day,
		Actor:   item.Advantaged,
		Subject: item.Disadvantaged,
		Ref:     item.ID,
		Detail:  map[string]any{"method": string(method)},
		Text:    fmt.Sprintf("the technology conflict between %s and %s was resolved through %s", item.Advantaged, item.Disadvantaged, method),
	})
}
