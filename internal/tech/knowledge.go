package tech

import "sort"

// KnowledgeIndex tracks who knows what. Agent levels sit in [0,1] and never
// decrease; group sets are derived from living members on refresh.
type KnowledgeIndex struct {
	agents map[string]map[string]float64
	groups map[string]Set
}

func NewKnowledgeIndex() *KnowledgeIndex {
	return &KnowledgeIndex{
		agents: make(map[string]map[string]float64),
		groups: make(map[string]Set),
	}
}

// Grant raises an agent's level for a technology, keeping the larger of the
// existing and new value, and returns the resulting level.
func (k *KnowledgeIndex) Grant(agent, techID string, level float64) float64 {
	level = clamp01(level)
	levels, ok := k.agents[agent]
	if !ok {
		levels = make(map[string]float64)
		k.agents[agent] = levels
	}
	if current, ok := levels[techID]; ok && current >= level {
		return current
	}
	levels[techID] = level
	return level
}

func (k *KnowledgeIndex) Level(agent, techID string) float64 {
	return k.agents[agent][techID]
}

func (k *KnowledgeIndex) Knows(agent, techID string) bool {
	_, ok := k.agents[agent][techID]
	return ok
}

func (k *KnowledgeIndex) Known(agent string) Set {
	out := make(Set, len(k.agents[agent]))
	for id := range k.agents[agent] {
		out.Add(id)
	}
	return out
}

func (k *KnowledgeIndex) Levels(agent string) map[string]float64 {
	return cloneLevels(k.agents[agent])
}

func (k *KnowledgeIndex) Agents() []string {
	out := make([]string, 0, len(k.agents))
	for name := range k.agents {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AllLevels flattens every agent level, for aggregate statistics.
func (k *KnowledgeIndex) AllLevels() []float64 {
	var out []float64
	for _, name := range k.Agents() {
		levels := k.agents[name]
		for _, id := range sortedKeys(levels) {
			out = append(out, levels[id])
		}
	}
	return out
}

// RefreshGroups recomputes each group's set as the union of what its living
// members know.
func (k *KnowledgeIndex) RefreshGroups(pop *Population) {
	groups := make(map[string]Set, len(pop.Groups()))
	for _, group := range pop.Groups() {
		known := make(Set)
		for _, member := range pop.LivingMembers(group) {
			for id := range k.agents[member.Name()] {
				known.Add(id)
			}
		}
		groups[group.Name()] = known
	}
	k.groups = groups
}

// Groups lists the groups seen on the last refresh.
func (k *KnowledgeIndex) Groups() []string {
	out := make([]string, 0, len(k.groups))
	for name := range k.groups {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (k *KnowledgeIndex) GroupKnown(group string) Set {
	out := make(Set, len(k.groups[group]))
	for id := range k.groups[group] {
		out.Add(id)
	}
	return out
}

// EntityKnown returns the technologies a group or agent is credited with.
// Group names take precedence over agent names.
func (k *KnowledgeIndex) EntityKnown(entity string) Set {
	if _, ok := k.groups[entity]; ok {
		return k.GroupKnown(entity)
	}
	return k.Known(entity)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
