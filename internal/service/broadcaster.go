package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	Notify(clinicianID string, msgType string, payload interface{})
}

// MsgScreeningCompleted is sent to a clinician's dashboard after each screening
const MsgScreeningCompleted = "screening_completed"
