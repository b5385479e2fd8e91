// Package control defines the protocol the netclip CLI speaks to a running
// daemon over the local IPC socket. Messages are newline-delimited JSON,
// one request and one response per message.
package control

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests.
	TypeSend    Type = "SEND"    // record Text and broadcast it
	TypeResend  Type = "RESEND"  // re-broadcast outgoing history entry Index
	TypeCopy    Type = "COPY"    // copy incoming history entry Index to the clipboard
	TypeToggle  Type = "TOGGLE"  // set Toggle to Enabled
	TypeHistory Type = "HISTORY" // list one history (Received selects which)
	TypeStatus  Type = "STATUS"

	// Responses.
	TypeOK              Type = "OK"
	TypeError           Type = "ERROR"
	TypeHistoryResponse Type = "HISTORY_RESPONSE"
	TypeStatusResponse  Type = "STATUS_RESPONSE"
)

// Toggle names a runtime feature toggle.
type Toggle string

const (
	ToggleAutoSend    Toggle = "autosend"
	ToggleAutoReceive Toggle = "autoreceive"
)

// ClipInfo is one history entry as shown to the CLI.
type ClipInfo struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Status describes a running daemon.
type Status struct {
	Version     string `json:"version"`
	Group       string `json:"group"`
	Port        int    `json:"port"`
	AutoSend    bool   `json:"autosend"`
	AutoReceive bool   `json:"autoreceive"`
	Outgoing    int    `json:"outgoing"`
	Incoming    int    `json:"incoming"`
}

// Message is the top-level envelope for both requests and responses.
type Message struct {
	Type Type `json:"type"`

	// SEND
	Text string `json:"text,omitempty"`

	// RESEND / COPY
	Index int `json:"index,omitempty"`

	// TOGGLE
	Toggle  Toggle `json:"toggle,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`

	// HISTORY request / response
	Received bool       `json:"received,omitempty"`
	Clips    []ClipInfo `json:"clips,omitempty"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("control decode: %w", err)
	}
	return &m, nil
}

// ParseToggle validates a toggle name from the CLI.
func ParseToggle(s string) (Toggle, error) {
	switch Toggle(s) {
	case ToggleAutoSend, ToggleAutoReceive:
		return Toggle(s), nil
	}
	return "", fmt.Errorf("unknown toggle %q (want %s or %s)", s, ToggleAutoSend, ToggleAutoReceive)
}
