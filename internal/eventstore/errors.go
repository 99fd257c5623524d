package eventstore

import (
	"git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// Sentinels for history store failures. Returned errors carry the cause and
// match these with errors.Is.
var (
	ErrDatabaseOpenFailed     = errors.HistoryError("could not open build history database").Build()
	ErrInitializeSchemaFailed = errors.HistoryError("failed to initialize build history schema").Build()
	ErrEventAppendFailed      = errors.HistoryError("failed to append event to store").Build()
	ErrEventQueryFailed       = errors.HistoryError("failed to query events from store").Build()
	ErrEventScanFailed        = errors.HistoryError("failed to scan event rows").Build()
	ErrMarshalPayloadFailed   = errors.HistoryError("failed to marshal event payload").Build()
	ErrUnmarshalPayloadFailed = errors.HistoryError("failed to unmarshal event payload").Build()
)

func wrap(sentinel *errors.ClassifiedError, err error) *errors.ClassifiedError {
	return errors.HistoryError(sentinel.Message()).WithCause(err).Build()
}
