package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Live channel event names.
const (
	EventJoinUserRoom     = "join-user-room"
	EventJoinOperatorRoom = "join-operator-room"
	EventLeaveRoom        = "leave-room"
	EventStatusUpdate     = "demand-status-update"
	EventNewDemand        = "new-demand"
	EventJoined           = "joined"
	EventLeft             = "left"
	EventError            = "error"
)

// OperatorRoom receives new-demand broadcasts for every operator session.
const OperatorRoom = "admin-room"

const userRoomPrefix = "user-"

// UserRoom returns the room key for a submitter's sessions.
func UserRoom(userID int64) string {
	return userRoomPrefix + strconv.FormatInt(userID, 10)
}

// Message is a JSON frame exchanged over the live channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is an outbound event addressed to one room.
type Envelope struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into an envelope for room.
func NewEnvelope(room, event string, data interface{}) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Room: room, Event: event, Data: raw}, nil
}

// Frame renders the client-facing frame, which omits the room.
func (e Envelope) Frame() ([]byte, error) {
	return json.Marshal(Message{Event: e.Event, Data: e.Data})
}

// StatusUpdate is the payload of demand-status-update.
type StatusUpdate struct {
	DemandID  int64  `json:"demandId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

type roomAck struct {
	Room string `json:"room"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// parseUserID accepts a user id sent as a JSON number or string.
func parseUserID(raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid user id %d", id)
		}
		return id, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("user id must be a number or string")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", text)
	}
	return id, nil
}
