package protocol

import (
	"strings"

	json "github.com/goccy/go-json"
)

// WebSocket subprotocol tokens offered during the handshake.
const (
	// SubprotocolGraphQLTransportWS is the modern graphql-ws protocol.
	SubprotocolGraphQLTransportWS = "graphql-transport-ws"
	// SubprotocolGraphQLWS is the legacy subscriptions-transport-ws protocol.
	SubprotocolGraphQLWS = "graphql-ws"
)

// MessageType defines the type of a GraphQL-over-WebSocket message.
type MessageType string

const (
	// TypeConnectionInit is sent once after the transport opens, carrying
	// the connection parameters.
	TypeConnectionInit MessageType = "connection_init"
	// TypeConnectionAck is the server's acknowledgement of connection_init.
	TypeConnectionAck MessageType = "connection_ack"
	// TypePing is a keepalive probe; either peer may send it.
	TypePing MessageType = "ping"
	// TypePong answers a ping.
	TypePong MessageType = "pong"
	// TypeStart begins a subscription for an id.
	TypeStart MessageType = "start"
	// TypeSubscribe is the modern protocol's name for start.
	TypeSubscribe MessageType = "subscribe"
	// TypeNext delivers one subscription result.
	TypeNext MessageType = "next"
	// TypeData is the legacy protocol's name for next.
	TypeData MessageType = "data"
	// TypeError delivers a subscription-level error.
	TypeError MessageType = "error"
	// TypeComplete signals that a subscription produced its final result.
	TypeComplete MessageType = "complete"
	// TypeStop cancels a subscription for an id.
	TypeStop MessageType = "stop"
	// TypeKeepAlive is the legacy protocol's server keepalive.
	TypeKeepAlive MessageType = "ka"
)

// Message is a single wire frame exchanged over the subscription transport.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OperationPayload is the payload of a start/subscribe message.
type OperationPayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// NewMessage builds a message with the given payload marshaled to JSON.
// A nil payload produces a message without a payload field.
func NewMessage(typ MessageType, id string, payload any) (*Message, error) {
	msg := &Message{ID: id, Type: typ}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// Encode serializes the message as a JSON text frame.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses a JSON text frame into a Message.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ErrorMessageText extracts a human-readable message from an error payload.
// Servers send either a single error object or a list of GraphQL errors.
func ErrorMessageText(payload json.RawMessage) string {
	if len(payload) == 0 {
		return "subscription error"
	}

	var single struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &single); err == nil && single.Message != "" {
		return single.Message
	}

	var list []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &list); err == nil && len(list) > 0 {
		parts := make([]string, 0, len(list))
		for _, e := range list {
			if e.Message != "" {
				parts = append(parts, e.Message)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	return string(payload)
}
