package ais

import "encoding/json"

// Envelope is the JSON form of a decoded message as published to sinks.
type Envelope struct {
	Type      MessageType `json:"type"`
	TypeName  string      `json:"type_name"`
	MMSI      uint32      `json:"mmsi"`
	Sentences []string    `json:"sentences,omitempty"`
	Message   Message     `json:"message"`
}

func NewEnvelope(m Message) Envelope {
	env := Envelope{
		Type:     m.Type(),
		TypeName: m.Type().String(),
		MMSI:     m.SourceMMSI(),
		Message:  m,
	}
	for _, s := range m.Sentences() {
		env.Sentences = append(env.Sentences, s.Raw)
	}
	return env
}

// MarshalEnvelope renders m wrapped in an Envelope.
func MarshalEnvelope(m Message) ([]byte, error) {
	return json.Marshal(NewEnvelope(m))
}
