package tech

// Relationship is the categorical label an agent holds for a peer.
type Relationship string

const (
	RelationshipStranger     Relationship = "stranger"
	RelationshipAcquaintance Relationship = "acquaintance"
	RelationshipFriend       Relationship = "friend"
	RelationshipFamily       Relationship = "family"
	RelationshipSpouse       Relationship = "spouse"
	RelationshipParent       Relationship = "parent"
	RelationshipChild        Relationship = "child"
	RelationshipSibling      Relationship = "sibling"
	RelationshipMentor       Relationship = "mentor"
	RelationshipNeutral      Relationship = "neutral"
	RelationshipRival        Relationship = "rival"
	RelationshipEnemy        Relationship = "enemy"
)

func (r Relationship) Known() bool {
	switch r {
	case RelationshipStranger, RelationshipAcquaintance, RelationshipFriend, RelationshipFamily,
		RelationshipSpouse, RelationshipParent, RelationshipChild, RelationshipSibling,
		RelationshipMentor, RelationshipNeutral, RelationshipRival, RelationshipEnemy:
		return true
	}
	return false
}

// Weight maps a relationship label onto the numeric strength used by teaching.
func (r Relationship) Weight() float64 {
	switch r {
	case RelationshipSpouse, RelationshipFamily, RelationshipParent, RelationshipChild, RelationshipSibling:
		return 0.9
	case RelationshipMentor:
		return 0.8
	case RelationshipFriend:
		return 0.7
	case RelationshipAcquaintance:
		return 0.3
	case RelationshipRival:
		return -0.3
	case RelationshipEnemy:
		return -0.6
	default:
		return 0
	}
}

type Memory struct {
	Text       string
	Importance float64
	Kind       string
	Emotion    string
}

// Agent is the read-only view of a simulated person consumed each tick, plus the
// memory side channel used for narrative logging.
type Agent interface {
	Name() string
	Alive() bool
	// SkillLevel returns the effective level of a skill, or false when the
	// agent has never trained it.
	SkillLevel(skill string) (float64, bool)
	Trait(name string) (float64, bool)
	Relationship(peer string) Relationship
	Remember(m Memory)
}

type GroupKind string

const (
	GroupInstitution GroupKind = "institution"
	GroupGuild       GroupKind = "guild"
	GroupOther       GroupKind = "other"
)

// Sponsors reports whether groups of this kind fund research and teaching.
func (k GroupKind) Sponsors() bool {
	switch k {
	case GroupInstitution, GroupGuild:
		return true
	default:
		return false
	}
}

type Group interface {
	Name() string
	Kind() GroupKind
	Members() []string
}

// Population is the per-tick snapshot of collaborators handed in by the
// orchestrator. Nothing in the subsystem keeps it past the tick.
type Population struct {
	agents []Agent
	byName map[string]Agent
	groups []Group
}

func NewPopulation(agents []Agent, groups []Group) *Population {
	byName := make(map[string]Agent, len(agents))
	for _, agent := range agents {
		byName[agent.Name()] = agent
	}
	return &Population{agents: agents, byName: byName, groups: groups}
}

func (p *Population) Agent(name string) (Agent, bool) {
	if p == nil {
		return nil, false
	}
	agent, ok := p.byName[name]
	return agent, ok
}

func (p *Population) Agents() []Agent {
	if p == nil {
		return nil
	}
	return p.agents
}

func (p *Population) Living() []Agent {
	if p == nil {
		return nil
	}
	out := make([]Agent, 0, len(p.agents))
	for _, agent := range p.agents {
		if agent.Alive() {
			out = append(out, agent)
		}
	}
	return out
}

func (p *Population) Groups() []Group {
	if p == nil {
		return nil
	}
	return p.groups
}

func (p *Population) Group(name string) (Group, bool) {
	if p == nil {
		return nil, false
	}
	for _, group := range p.groups {
		if group.Name() == name {
			return group, true
		}
	}
	return nil, false
}

// LivingMembers resolves a group's member names, skipping anyone dead or unknown.
func (p *Population) LivingMembers(group Group) []Agent {
	var out []Agent
	for _, name := range group.Members() {
		agent, ok := p.Agent(name)
		if !ok || !agent.Alive() {
			continue
		}
		out = append(out, agent)
	}
	return out
}

func (p *Population) alive(name string) bool {
	agent, ok := p.Agent(name)
	return ok && agent.Alive()
}

func skill(agent Agent, name string) float64 {
	level, ok := agent.SkillLevel(name)
	if !ok {
		return 0
	}
	return level
}

func trait(agent Agent, name string) float64 {
	value, ok := agent.Trait(name)
	if !ok {
		return 0
	}
	return value
}

func agentNames(agents []Agent) []string {
	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		names = append(names, agent.Name())
	}
	return names
}
