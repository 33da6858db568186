package store

import (
	"sort"
	"time"

	"researchsim/internal/tech"
)

type TechnologyInput struct {
	Definition tech.Definition
	SourceFile string
	SourceHash string
}

type TechnologyRecord struct {
	Definition tech.Definition
	SourceFile string
	SourceHash string
}

type RunInput struct {
	ID        string
	Project   string
	Seed      uint64
	Days      int
	StartedAt time.Time
}

type Run struct {
	ID         string     `json:"id"`
	Project    string     `json:"project"`
	Seed       uint64     `json:"seed"`
	Days       int        `json:"days"`
	FinalDay   int        `json:"final_day"`
	Events     int        `json:"events"`
	Faults     int        `json:"faults"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Snapshot is the end-of-run state written once a run finishes.
type Snapshot struct {
	Day          int
	FinishedAt   time.Time
	Technologies []TechnologyState
	Knowledge    []KnowledgeRecord
	Groups       []GroupKnowledge
	Summary      tech.Summary
	Faults       []tech.StageFault
}

type TechnologyState struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Category      tech.Category `json:"category"`
	Discovered    bool          `json:"discovered"`
	DiscoveryDay  *int          `json:"discovery_day,omitempty"`
	Discoverer    string        `json:"discoverer,omitempty"`
	Prerequisites []string      `json:"prerequisites,omitempty"`
}

type KnowledgeRecord struct {
	Agent      string  `json:"agent"`
	Technology string  `json:"technology"`
	Level      float64 `json:"level"`
}

// GroupKnowledge is what a group's living members knew when the run ended.
type GroupKnowledge struct {
	Group        string   `json:"group"`
	Technologies []string `json:"technologies"`
}

type EventFilter struct {
	RunID      string
	Kind       string
	Technology string
	Actor      string
	FromDay    int
	ToDay      int
	Limit      int
}

type EventRecord struct {
	RunID string `json:"run_id"`
	Seq   int64  `json:"seq"`
	tech.Event
}

// StatesFromCatalog captures the discovery state of every technology in
// catalog order.
func StatesFromCatalog(catalog *tech.Catalog) []TechnologyState {
	techs := catalog.Technologies()
	states := make([]TechnologyState, 0, len(techs))
	for _, t := range techs {
		state := TechnologyState{
			ID:            t.ID,
			Name:          t.Name,
			Category:      t.Category,
			Prerequisites: t.Prerequisites,
		}
		if d, ok := t.Discovery(); ok {
			day := d.Day
			state.Discovered = true
			state.DiscoveryDay = &day
			state.Discoverer = d.Discoverer
		}
		states = append(states, state)
	}
	return states
}

// KnowledgeFromIndex flattens the index into agent, technology order.
func KnowledgeFromIndex(k *tech.KnowledgeIndex) []KnowledgeRecord {
	var records []KnowledgeRecord
	for _, agent := range k.Agents() {
		levels := k.Levels(agent)
		for _, id := range sortedIDs(levels) {
			records = append(records, KnowledgeRecord{Agent: agent, Technology: id, Level: levels[id]})
		}
	}
	return records
}

// GroupsFromIndex captures every group's known set as of the index's last
// refresh, in group order.
func GroupsFromIndex(k *tech.KnowledgeIndex) []GroupKnowledge {
	groups := k.Groups()
	out := make([]GroupKnowledge, 0, len(groups))
	for _, name := range groups {
		out = append(out, GroupKnowledge{Group: name, Technologies: k.GroupKnown(name).Sorted()})
	}
	return out
}

func sortedIDs(levels map[string]float64) []string {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
