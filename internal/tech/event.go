package tech

type EventKind string

const (
	EventSpontaneousDiscovery   EventKind = "spontaneous_discovery"
	EventResearchInitiated      EventKind = "research_initiated"
	EventGroupResearchInitiated EventKind = "group_research_initiated"
	EventResearchBreakthrough   EventKind = "research_breakthrough"
	EventTechnologyDiscovered   EventKind = "technology_discovered"
	EventResearchAbandoned      EventKind = "research_abandoned"
	EventResearchFailure        EventKind = "research_failure"
	EventInnovationCreated      EventKind = "innovation_created"
	EventKnowledgeTransfer      EventKind = "knowledge_transfer"
	EventInstitutionalSharing   EventKind = "institutional_knowledge_sharing"
	EventGoalSet                EventKind = "technology_goal_set"
	EventGoalCompleted          EventKind = "technology_goal_completed"
	EventGoalExpired            EventKind = "technology_goal_expired"
	EventCompetitionStarted     EventKind = "technology_competition_started"
	EventCompetitionEnded       EventKind = "technology_competition_ended"
	EventSabotageAttempt        EventKind = "technology_sabotage_attempt"
	EventConflictStarted        EventKind = "technology_conflict_started"
	EventConflictEscalated      EventKind = "technology_conflict_escalated"
	EventConflictDeescalated    EventKind = "technology_conflict_deescalated"
	EventConflictResolved       EventKind = "technology_conflict_resolved"
)

// Event is one entry of the per-tick outward log. Fields not relevant to a kind
// stay empty; kind-specific numbers live in Detail.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Day        int            `json:"day"`
	Technology string         `json:"technology,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	Subject    string         `json:"subject,omitempty"`
	Group      string         `json:"group,omitempty"`
	Ref        string         `json:"ref,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	Text       string         `json:"text"`
}

// Emit receives events in production order.
type Emit func(Event)
