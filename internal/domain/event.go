package domain

import "encoding/json"

type EventType string

const (
	EventOffer        EventType = "offer"
	EventAnswer       EventType = "answer"
	EventICECandidate EventType = "ice-candidate"

	EventImage   EventType = "image-data"
	EventImages  EventType = "images-data"
	EventAudio   EventType = "audio-data"
	EventMessage EventType = "message"

	EventResponse EventType = "response"

	EventPing EventType = "ping"
	EventPong EventType = "pong"
)

// IsSignaling reports whether frames of this type are relayed to peers.
func (t EventType) IsSignaling() bool {
	switch t {
	case EventOffer, EventAnswer, EventICECandidate:
		return true
	}
	return false
}

// IsRequest reports whether frames of this type go to a provider.
func (t EventType) IsRequest() bool {
	switch t {
	case EventImage, EventImages, EventAudio, EventMessage:
		return true
	}
	return false
}

// Envelope is the wire shape of every frame on the channel.
type Envelope struct {
	Type EventType       `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ResponseData is the payload of an outbound response event.
type ResponseData struct {
	Text string `json:"text"`
}
