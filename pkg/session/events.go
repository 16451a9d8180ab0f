package session

// EventType identifies a session state change broadcast to subscribers.
type EventType string

const (
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventRewardsUpdated EventType = "rewards_updated"
	EventClaimSubmitted EventType = "claim_submitted"
	EventChainChanged   EventType = "chain_changed"
)

// Event is a session state change.
type Event struct {
	Type EventType
	Data interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
