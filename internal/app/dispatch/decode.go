package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Assist/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type messagePayload struct {
	Text    string        `json:"text"`
	Context []domain.Turn `json:"context" validate:"dive"`
}

type imagePayload struct {
	Image string `json:"image" validate:"required"`
}

type imagesPayload struct {
	Images []imagePayload `json:"images" validate:"required,min=1,dive"`
}

// Decode classifies an inbound event into a request variant. Every failure
// wraps domain.ErrClientInput. window caps the text context to the most
// recent turns.
func Decode(kind domain.EventType, raw json.RawMessage, window int) (domain.Request, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: %s: missing data", domain.ErrClientInput, kind)
	}

	switch kind {
	case domain.EventMessage:
		var p messagePayload
		if err := unmarshalValid(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrClientInput, kind, err)
		}
		turns := nonEmptyTurns(p.Context)
		if len(turns) == 0 {
			if p.Text == "" {
				return nil, fmt.Errorf("%w: %s: text or context required", domain.ErrClientInput, kind)
			}
			turns = []domain.Turn{{Role: domain.RoleUser, Content: p.Text}}
		}
		if window > 0 && len(turns) > window {
			turns = turns[len(turns)-window:]
		}
		return domain.TextTurn{Context: turns}, nil

	case domain.EventImage:
		var p imagePayload
		if err := unmarshalValid(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrClientInput, kind, err)
		}
		return domain.SingleImage{Image: p.Image}, nil

	case domain.EventImages:
		var p imagesPayload
		if err := unmarshalValid(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrClientInput, kind, err)
		}
		images := make([]string, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, img.Image)
		}
		return domain.ImageBatch{Images: images}, nil

	case domain.EventAudio:
		var audio []byte
		if err := json.Unmarshal(raw, &audio); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrClientInput, kind, err)
		}
		if len(audio) == 0 {
			return nil, fmt.Errorf("%w: %s: empty audio", domain.ErrClientInput, kind)
		}
		return domain.AudioClip{Audio: audio}, nil
	}

	return nil, fmt.Errorf("%w: %s is not a request event", domain.ErrClientInput, kind)
}

func unmarshalValid(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// nonEmptyTurns drops turns without content, such as an assistant turn
// still pending on the client when it resent the window.
func nonEmptyTurns(turns []domain.Turn) []domain.Turn {
	out := turns[:0:0]
	for _, t := range turns {
		if t.Content != "" {
			out = append(out, t)
		}
	}
	return out
}
