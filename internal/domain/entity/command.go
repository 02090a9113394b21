package entity

// Action identifies one browser operation the page-embedded executor can
// perform. The set is closed: the executor matches on it explicitly and
// rejects anything else.
type Action string

const (
	ActionNavigate     Action = "navigate"
	ActionSnapshot     Action = "snapshot"
	ActionClick        Action = "click"
	ActionFill         Action = "fill"
	ActionType         Action = "type"
	ActionPress        Action = "press"
	ActionScroll       Action = "scroll"
	ActionGetText      Action = "get_text"
	ActionGetAttribute Action = "get_attribute"
	ActionScreenshot   Action = "screenshot"
	ActionEvaluate     Action = "evaluate"
	ActionSetContent   Action = "set_content"
)

func (a Action) String() string {
	return string(a)
}

// Command is one browser action on the wire. ID is generated by the caller
// and is the sole correlation key; it must be unique while the command is
// outstanding. Only the fields the action needs are populated.
type Command struct {
	ID     string `json:"id"`
	Action Action `json:"action"`

	Selector  string `json:"selector,omitempty"`
	URL       string `json:"url,omitempty"`
	Text      string `json:"text,omitempty"`
	Key       string `json:"key,omitempty"`
	Direction string `json:"direction,omitempty"`
	Name      string `json:"name,omitempty"`
	Script    string `json:"script,omitempty"`
	HTML      string `json:"html,omitempty"`
	MaxSize   int    `json:"max_size,omitempty"`
}

// Response answers exactly one Command; ID equals the originating Command's
// ID. A failed Response always carries a non-empty Error.
type Response struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

const (
	EnvelopeCommand  = "bridge:command"
	EnvelopeResponse = "bridge:response"
)

// Envelope is what actually crosses the context boundary.
type Envelope struct {
	Type     string    `json:"type"`
	Command  *Command  `json:"command,omitempty"`
	Response *Response `json:"response,omitempty"`
}

func CommandEnvelope(cmd Command) Envelope {
	return Envelope{Type: EnvelopeCommand, Command: &cmd}
}

func ResponseEnvelope(resp Response) Envelope {
	return Envelope{Type: EnvelopeResponse, Response: &resp}
}

// Failure builds the failed Response for a command, keeping the
// non-empty-error invariant even when the caller passes nothing useful.
func Failure(commandID, errMsg string) Response {
	if errMsg == "" {
		errMsg = "unknown error"
	}
	return Response{ID: commandID, Success: false, Error: errMsg}
}

func Success(commandID string, data interface{}) Response {
	return Response{ID: commandID, Success: true, Data: data}
}
