package tech

import "fmt"

// Discoveries rolls spontaneous, unresearched discoveries.
type Discoveries struct {
	catalog   *Catalog
	knowledge *KnowledgeIndex
	rates     *Rates
	src       Source
}

func NewDiscoveries(catalog *Catalog, knowledge *KnowledgeIndex, rates *Rates, src Source) *Discoveries {
	return &Discoveries{catalog: catalog, knowledge: knowledge, rates: rates, src: src}
}

// Chance is the per-day probability that agent stumbles onto t. Each required
// skill the agent meets multiplies it by (1+level); openness and curiosity
// scale it further.
func (d *Discoveries) Chance(agent Agent, t *Technology) float64 {
	chance := t.DiscoveryChance / d.rates.DiscoveryPeriodDays
	for _, name := range sortedKeys(t.RequiredSkills) {
		if level := skill(agent, name); level >= t.RequiredSkills[name] {
			chance *= 1 + level
		}
	}
	chance *= 1 + trait(agent, "openness")
	chance *= 1 + trait(agent, "curiosity")
	return chance
}

// Process gives every living agent one pass over the catalog; an agent makes
// at most one discovery per day.
func (d *Discoveries) Process(day int, pop *Population, emit Emit) error {
	for _, agent := range pop.Living() {
		known := d.knowledge.Known(agent.Name())
		for _, t := range d.catalog.Technologies() {
			if t.Discovered() || !known.Covers(t.Prerequisites) {
				continue
			}
			if !roll(d.src, d.Chance(agent, t)) {
				continue
			}
			if !d.catalog.MarkDiscovered(t.ID, day, agent.Name()) {
				continue
			}
			d.knowledge.Grant(agent.Name(), t.ID, 1.0)
			emit(Event{
				Kind:       EventSpontaneousDiscovery,
				Day:        day,
				Technology: t.ID,
				Actor:      agent.Name(),
				Detail:     map[string]any{"category": string(t.Category)},
				Text:       fmt.Sprintf("%s discovered %s", agent.Name(), t.Name),
			})
			agent.Remember(Memory{
				Text:       fmt.Sprintf("I discovered %s! This could change everything", t.Name),
				Importance: 0.9,
				Kind:       "discovery",
				Emotion:    "amazed",
			})
			break
		}
	}
	return nil
}
