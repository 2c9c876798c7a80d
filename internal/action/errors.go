package action

import "errors"

var (
	// ErrUnsupportedInteraction means no declared pattern accepts the interaction.
	ErrUnsupportedInteraction = errors.New("unsupported interaction")
	// ErrHandlerFault means the handler returned an error or panicked.
	ErrHandlerFault = errors.New("handler fault")
	// ErrInvalidDefinition marks a configuration defect in an action definition.
	ErrInvalidDefinition = errors.New("invalid action definition")

	errEmptyReply = errors.New("handler returned an empty reply")
)
