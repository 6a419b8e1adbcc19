package model

import "github.com/rotisserie/eris"

var (
	// ErrInvalidArgument marks an unknown enumerated input (source mode,
	// engine type, entity type, signal type).
	ErrInvalidArgument = eris.New("invalid argument")

	// ErrCollaboratorRequired marks a call that needs a data source that is
	// not configured.
	ErrCollaboratorRequired = eris.New("collaborator required")
)

// InvalidArgument wraps ErrInvalidArgument with a message naming the valid
// alternatives.
func InvalidArgument(format string, args ...any) error {
	return eris.Wrapf(ErrInvalidArgument, format, args...)
}

// CollaboratorRequired wraps ErrCollaboratorRequired with a hint on how to
// configure the missing collaborator.
func CollaboratorRequired(format string, args ...any) error {
	return eris.Wrapf(ErrCollaboratorRequired, format, args...)
}
