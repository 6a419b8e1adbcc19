package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-intel/internal/analysis"
	"github.com/sells-group/revenue-intel/internal/license"
	"github.com/sells-group/revenue-intel/internal/methodology"
)

// ServerName is reported in the initialize handshake.
const ServerName = "revenue-intel"

// Server dispatches JSON-RPC requests to the analysis service.
type Server struct {
	svc     *analysis.Service
	tools   []*tool
	byName  map[string]*tool
	schemas map[string]*gojsonschema.Schema
	metrics *Metrics
	version string
	log     *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records tool calls and requests in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer compiles the tool input schemas and returns a ready server.
func NewServer(svc *analysis.Service, opts ...Option) (*Server, error) {
	if svc == nil || svc.Sources == nil {
		return nil, eris.New("mcp: analysis service with sources is required")
	}
	s := &Server{
		svc:     svc,
		tools:   catalog(),
		byName:  make(map[string]*tool),
		schemas: make(map[string]*gojsonschema.Schema),
		version: "dev",
		log:     zap.L().With(zap.String("component", "mcp")),
	}
	for _, o := range opts {
		o(s)
	}
	for _, t := range s.tools {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema))
		if err != nil {
			return nil, eris.Wrapf(err, "mcp: compile schema for %s", t.Name)
		}
		s.byName[t.Name] = t
		s.schemas[t.Name] = schema
	}
	return s, nil
}

// Instructions describes the server to the client, according to the
// license tier.
func (s *Server) Instructions() string {
	base := "Revenue intelligence tools: RFM analysis, ICP scoring (14.5-point model), " +
		"pipeline health scoring, signal detection, constraint identification, value engine " +
		"analysis and GTM change proposals. "
	if s.svc.License.Tier == license.TierFree {
		return base + "Running in free mode: use source='sample' for demo data. " +
			"Purchase a Pro license for live CRM integration."
	}
	return base + "Connect to HubSpot, Salesforce or an imported file for live data, or use built-in sample data."
}

// Handle processes one request. Notifications yield a nil response.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	s.metrics.RecordRequest(req.Method)

	var resp *Response
	switch req.Method {
	case "initialize":
		resp = resultResponse(req.ID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]string{
				"name":    ServerName,
				"version": s.version,
			},
			"instructions": s.Instructions(),
		})
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		resp = resultResponse(req.ID, map[string]any{})
	case "tools/list":
		list := make([]map[string]any, 0, len(s.tools))
		for _, t := range s.tools {
			list = append(list, t.descriptor())
		}
		resp = resultResponse(req.ID, map[string]any{"tools": list})
	case "tools/call":
		resp = s.callTool(ctx, req)
	case "resources/list":
		resp = resultResponse(req.ID, map[string]any{"resources": methodology.List()})
	case "resources/read":
		resp = s.readResource(req)
	default:
		resp = errorResponse(req.ID, CodeMethodNotFound, "Method not found", map[string]string{"method": req.Method})
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (s *Server) callTool(ctx context.Context, req *Request) *Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", nil)
	}
	t, ok := s.byName[params.Name]
	if !ok {
		return errorResponse(req.ID, CodeInvalidParams, "Unknown tool: "+params.Name, nil)
	}

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	if problems, err := s.validate(t.Name, args); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", map[string]string{"error": err.Error()})
	} else if len(problems) > 0 {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid arguments for "+t.Name,
			map[string]any{"errors": problems})
	}

	start := time.Now()
	out, err := t.handle(ctx, s.svc, args)
	s.metrics.RecordToolCall(t.Name, err != nil, time.Since(start))
	if err != nil {
		s.log.Warn("tool call failed", zap.String("tool", t.Name), zap.Error(err))
		return resultResponse(req.ID, toolError(err))
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		s.log.Error("marshal tool result", zap.String("tool", t.Name), zap.Error(err))
		return errorResponse(req.ID, CodeInternalError, "Internal error", nil)
	}
	return resultResponse(req.ID, toolResult{Content: []textContent{{Type: "text", Text: string(text)}}})
}

// validate checks args against the tool's input schema and returns the
// violations.
func (s *Server) validate(name string, args json.RawMessage) ([]string, error) {
	res, err := s.schemas[name].Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return nil, eris.Wrap(err, "mcp: validate arguments")
	}
	if res.Valid() {
		return nil, nil
	}
	problems := make([]string, len(res.Errors()))
	for i, desc := range res.Errors() {
		problems[i] = desc.String()
	}
	return problems, nil
}

// toolError renders a failed call as an error result carrying the error
// text.
func toolError(err error) toolResult {
	text, _ := json.Marshal(map[string]string{"error": err.Error()})
	return toolResult{Content: []textContent{{Type: "text", Text: string(text)}}, IsError: true}
}

func (s *Server) readResource(req *Request) *Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", nil)
	}
	text, err := methodology.Read(params.URI)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Resource not found", map[string]string{"uri": params.URI})
	}
	return resultResponse(req.ID, map[string]any{
		"contents": []resourceContent{{URI: params.URI, MIMEType: methodology.MIMEType, Text: text}},
	})
}
