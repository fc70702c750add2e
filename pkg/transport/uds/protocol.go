package uds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
)

var seq atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
	MsgTypeEvt MsgType = "evt"
)

// ErrNoData is returned by UnmarshalData when the message has no payload.
var ErrNoData = errors.New("message has no data")

// Message is the NDJSON envelope exchanged between igractl and igrad.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalData decodes the payload into v.
func (m Message) UnmarshalData(v any) error {
	if len(m.Data) == 0 {
		return ErrNoData
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", m.Method, err)
	}
	return nil
}

func newMessage(typ MsgType, id, method string, data any) (Message, error) {
	msg := Message{Type: typ, ID: id, Method: method}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s data: %w", method, err)
		}
		msg.Data = b
	}
	return msg, nil
}

// NewRequest creates a request with a fresh ID.
func NewRequest(method string, data any) (Message, error) {
	return newMessage(MsgTypeReq, fmt.Sprintf("req-%d", seq.Add(1)), method, data)
}

// NewResponse creates a response correlated to reqID.
func NewResponse(reqID, method string, data any) (Message, error) {
	return newMessage(MsgTypeRes, reqID, method, data)
}

// NewErrorResponse creates a failed response correlated to reqID.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Error: errMsg}
}

// NewEvent creates a server-pushed event.
func NewEvent(method string, data any) (Message, error) {
	return newMessage(MsgTypeEvt, fmt.Sprintf("evt-%d", seq.Add(1)), method, data)
}

// Methods
const (
	MethodPing     = "Ping"
	MethodStatus   = "Status"
	MethodServices = "Services"
	MethodHealth   = "Health"
	MethodLogs     = "Logs"
	MethodAction   = "Action"

	EventStatusChanged = "status.changed"
)

// Actions accepted by MethodAction.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// PingResponse is the response to a Ping request.
type PingResponse struct {
	Pong    bool   `json:"pong"`
	Version string `json:"version,omitempty"`
}

// ActionRequest is the payload for an Action request. Service is required
// for restart, Profile is optional for start.
type ActionRequest struct {
	Action  string `json:"action"`
	Service string `json:"service,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// Validate checks the action name and its required fields.
func (r ActionRequest) Validate() error {
	switch r.Action {
	case ActionStart, ActionStop:
		return nil
	case ActionRestart:
		if r.Service == "" {
			return errors.New("restart requires a service")
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", r.Action)
	}
}

// ActionResponse acknowledges a completed action.
type ActionResponse struct {
	OK bool `json:"ok"`
}

// LogsRequest asks for the last Tail lines of a service. Unit selects the
// systemd journal instead of the compose logs.
type LogsRequest struct {
	Service string `json:"service"`
	Tail    int    `json:"tail,omitempty"`
	Unit    bool   `json:"unit,omitempty"`
}
