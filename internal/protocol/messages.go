package protocol

// TypeAvatarControl marks the envelope form of a control command.
const TypeAvatarControl = "avatar_control"

// Status is the overall outcome of one processed command.
type Status string

const (
	// StatusSuccess means no processed field failed fatally.
	StatusSuccess Status = "success"
	// StatusPartial means the clip field failed while others may have
	// applied.
	StatusPartial Status = "partial"
)

// Command is one control frame from a remote controller, either direct
// or wrapped as {type:"avatar_control", params:{...}}. All fields are
// optional; absent or empty fields are skipped.
type Command struct {
	Type      string   `json:"type,omitempty"`
	Params    *Command `json:"params,omitempty"`
	Clip      string   `json:"clip,omitempty"`
	Emotion   string   `json:"emotion,omitempty"`
	LookAt    string   `json:"lookAt,omitempty"`
	CommandID string   `json:"commandId,omitempty"`
}

// AvatarState is the wire form of the three channel values.
type AvatarState struct {
	Animation string `json:"animation"`
	Emotion   string `json:"emotion"`
	LookAt    string `json:"lookAt"`
}

// Welcome is sent once per new connection with the state at that moment.
type Welcome struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	State   AvatarState `json:"state"`
}

// Result aggregates per-field outcomes: the accepted value or an
// error/warning string.
type Result struct {
	Animation      string `json:"animation,omitempty"`
	AnimationError string `json:"animation_error,omitempty"`
	Emotion        string `json:"emotion,omitempty"`
	EmotionError   string `json:"emotion_error,omitempty"`
	LookAt         string `json:"lookAt,omitempty"`
	LookAtWarning  string `json:"lookAt_warning,omitempty"`
}

// Response answers a command that carried a non-empty commandId.
type Response struct {
	Status    Status `json:"status"`
	Result    Result `json:"result"`
	CommandID string `json:"commandId"`
}
