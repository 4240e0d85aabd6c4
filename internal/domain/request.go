package domain

// Role of a context turn as sent by the client.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=user system assistant"`
	Content string `json:"content"`
}

// Request is one multimodal request. The set of variants is closed:
// TextTurn, SingleImage, ImageBatch and AudioClip.
type Request interface {
	Kind() EventType
	isRequest()
}

type TextTurn struct {
	Context []Turn
}

type SingleImage struct {
	Image string
}

type ImageBatch struct {
	Images []string
}

type AudioClip struct {
	Audio []byte
}

func (TextTurn) Kind() EventType    { return EventMessage }
func (SingleImage) Kind() EventType { return EventImage }
func (ImageBatch) Kind() EventType  { return EventImages }
func (AudioClip) Kind() EventType   { return EventAudio }

func (TextTurn) isRequest()    {}
func (SingleImage) isRequest() {}
func (ImageBatch) isRequest()  {}
func (AudioClip) isRequest()   {}

// Result is the outcome of exactly one Request.
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool { return r.Err == nil }
