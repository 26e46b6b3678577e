package services

// MissingAPIKeyMessage is shown inline when a prompt arrives without a key.
const MissingAPIKeyMessage = "请在侧边栏输入你的OpenAI API Key"

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// UnexpectedError carries a failure that escaped the normal flow. Its message
// is safe to show to the user.
type UnexpectedError struct{ Message string }

func (e *UnexpectedError) Error() string { return e.Message }

// ErrMissingAPIKey is returned by Submit before any state is touched.
var ErrMissingAPIKey = &ValidationError{
	Message: MissingAPIKeyMessage,
	Fields:  map[string]string{"api_key": MissingAPIKeyMessage},
}

var errSessionNotFound = &NotFoundError{Message: "Session not found"}

