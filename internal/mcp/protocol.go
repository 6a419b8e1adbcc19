// Package mcp serves the analyses as Model Context Protocol tools and the
// methodology documents as resources, over stdio or streamable HTTP.
package mcp

import (
	"encoding/json"

	"go.uber.org/zap"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2025-03-26"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id and so expects
// no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var nullID = json.RawMessage("null")

func resultResponse(id json.RawMessage, v any) *Response {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("mcp: marshal result", zap.Error(err))
		return errorResponse(id, CodeInternalError, "Internal error", nil)
	}
	return &Response{JSONRPC: "2.0", Result: data, ID: orNull(id)}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *Response {
	e := &Error{Code: code, Message: message}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			e.Data = raw
		}
	}
	return &Response{JSONRPC: "2.0", Error: e, ID: orNull(id)}
}

func orNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}

// textContent is one content block of a tool result or resource.
type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolResult is the result of tools/call.
type toolResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

// resourceContent is one entry of a resources/read result.
type resourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Parse decodes one JSON-RPC message. A nil request comes with the error
// response to send back.
func Parse(data []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errorResponse(nil, CodeParseError, "Parse error", map[string]string{"error": err.Error()})
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return nil, errorResponse(req.ID, CodeInvalidRequest, "Invalid Request", nil)
	}
	return &req, nil
}
