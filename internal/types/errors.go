package types

import "fmt"

// ErrorKind is the tagged error taxonomy from the error-handling design:
// every error Medulla returns across the store, cache, query engine, and
// RPC surface carries one of these kinds so callers can map it to an exit
// code or a protocol error code without string-matching messages.
type ErrorKind string

const (
	KindNotInitialized     ErrorKind = "not_initialized"
	KindAlreadyInitialized ErrorKind = "already_initialized"

	KindEntityNotFound   ErrorKind = "entity_not_found"
	KindEntityTypeInvalid ErrorKind = "entity_type_invalid"
	KindInvalidEntityID  ErrorKind = "invalid_entity_id"

	KindValidationFailed ErrorKind = "validation_failed"

	KindRelationTargetNotFound ErrorKind = "relation_target_not_found"
	KindSelfReferentialRelation ErrorKind = "self_referential_relation"
	KindRelationTypeInvalid    ErrorKind = "relation_type_invalid"

	KindPathNotFound     ErrorKind = "path_not_found"
	KindMaxDepthExceeded ErrorKind = "max_depth_exceeded"

	KindParseError        ErrorKind = "parse_error"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindMethodNotFound     ErrorKind = "method_not_found"
	KindInvalidParams      ErrorKind = "invalid_params"
	KindResourceNotFound   ErrorKind = "resource_not_found"
	KindInvalidResourceURI ErrorKind = "invalid_resource_uri"

	KindStorageCorruption   ErrorKind = "storage_corruption"
	KindCacheSyncFailed     ErrorKind = "cache_sync_failed"
	KindEmbeddingUnavailable ErrorKind = "embedding_unavailable"

	KindInternal ErrorKind = "internal"
)

// Error is the concrete error type every Medulla package returns. Field is
// set for validation errors naming the offending field, per the testable
// property "entity_create(type=task, title='') → validation-failed with
// field='title'".
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewFieldError(kind ErrorKind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

func Wrap(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// a *Error, and KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
