package main

import (
	"github.com/medulla-kb/medulla/internal/types"
)

// exitCodeFor maps an error onto the exit codes named in §6: 0 success,
// 1 usage/validation, 2 not-initialized or already-initialized, any
// other non-zero value for an internal/storage failure.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch types.KindOf(err) {
	case types.KindNotInitialized, types.KindAlreadyInitialized:
		return 2
	case types.KindValidationFailed, types.KindInvalidRequest, types.KindInvalidParams,
		types.KindEntityTypeInvalid, types.KindRelationTypeInvalid, types.KindInvalidEntityID,
		types.KindParseError:
		return 1
	default:
		return 3
	}
}
