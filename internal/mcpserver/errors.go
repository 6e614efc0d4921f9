// Package mcpserver implements the RPC Server (§4.F): a protocol-compliant
// server exposing tools, resources with subscriptions, and a logging
// channel, over the official Go MCP SDK
// (github.com/modelcontextprotocol/go-sdk/mcp).
package mcpserver

import "github.com/medulla-kb/medulla/internal/types"

// errorCode maps the tagged error taxonomy onto the numeric codes named
// in §4.F's error-code table, layered over the JSON-RPC standard range.
func errorCode(kind types.ErrorKind) int {
	switch kind {
	case types.KindEntityNotFound:
		return -32001
	case types.KindEntityTypeInvalid:
		return -32002
	case types.KindValidationFailed:
		return -32003
	case types.KindRelationTargetNotFound:
		return -32004
	case types.KindPathNotFound:
		return -32005
	case types.KindResourceNotFound:
		return -32006
	case types.KindStorageCorruption, types.KindCacheSyncFailed:
		return -32007
	case types.KindParseError:
		return -32700
	case types.KindInvalidRequest:
		return -32600
	case types.KindMethodNotFound:
		return -32601
	case types.KindInvalidParams:
		return -32602
	default:
		return -32603 // internal error
	}
}
