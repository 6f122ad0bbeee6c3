package reasoning

import "errors"

var (
	// ErrEmptyPayload is returned when the engine output is blank.
	ErrEmptyPayload = errors.New("empty assessment payload")

	// ErrInvalidAssessment is returned when the payload does not match the
	// assessment schema.
	ErrInvalidAssessment = errors.New("assessment does not match schema")

	// ErrNoChoices is returned when a chat completion has no choices.
	ErrNoChoices = errors.New("no choices in completion response")

	// ErrUnexpectedStatus is returned when the completion endpoint fails.
	ErrUnexpectedStatus = errors.New("unexpected completion status")

	// ErrMissingAPIKey is returned when the LLM engine has no API key.
	ErrMissingAPIKey = errors.New("missing LLM API key")
)
