package mcpserver

import (
	"testing"

	"github.com/medulla-kb/medulla/internal/types"
)

func TestErrorCodeMapsKnownKinds(t *testing.T) {
	cases := map[types.ErrorKind]int{
		types.KindEntityNotFound:         -32001,
		types.KindEntityTypeInvalid:      -32002,
		types.KindValidationFailed:       -32003,
		types.KindRelationTargetNotFound: -32004,
		types.KindPathNotFound:           -32005,
		types.KindResourceNotFound:       -32006,
		types.KindStorageCorruption:      -32007,
		types.KindCacheSyncFailed:        -32007,
		types.KindParseError:             -32700,
		types.KindInvalidRequest:         -32600,
		types.KindMethodNotFound:         -32601,
		types.KindInvalidParams:          -32602,
	}
	for kind, want := range cases {
		if got := errorCode(kind); got != want {
			t.Errorf("errorCode(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestErrorCodeDefaultsToInternalError(t *testing.T) {
	if got := errorCode(types.KindInternal); got != -32603 {
		t.Errorf("errorCode(KindInternal) = %d, want -32603", got)
	}
}
