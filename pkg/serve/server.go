package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/sagardeyrakesh/sdpattern/pkg/engine"
	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server evaluates buffers sent as NDJSON requests. Requests are handled
// one at a time, so a single engine worker serves the whole session.
type Server struct {
	engine  *engine.Engine
	worker  *engine.Worker
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(eng *engine.Engine, in io.Reader, out io.Writer) *Server {
	return &Server{
		engine:  eng,
		worker:  eng.NewWorker(),
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop. It returns nil when the input closes or
// a "close" request arrives, and ctx.Err() on cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "evaluate":
		s.handleEvaluate(req.Payload)
	case "evaluate_batch":
		s.handleEvaluateBatch(req.Payload)
	case "stats":
		s.handleStats()
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) evaluate(item Item) EvaluateResult {
	alerts := s.worker.Evaluate(item.Bytes(), types.BufferProvenance{Label: item.Source})
	res := EvaluateResult{
		Source:   item.Source,
		Verdict:  types.NoMatch,
		Alerts:   alerts,
		Metadata: item.Metadata,
	}
	if len(alerts) > 0 {
		res.Verdict = types.Match
	} else {
		res.Alerts = []*types.Alert{}
	}
	return res
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{
		Version: Version,
		Rules:   len(s.engine.Entries()),
		Options: len(s.engine.Options()),
	})
}

func (s *Server) handleEvaluate(payload json.RawMessage) {
	var p EvaluatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("evaluate", err.Error())
		return
	}
	s.send("evaluate", s.evaluate(p))
}

func (s *Server) handleEvaluateBatch(payload json.RawMessage) {
	var p EvaluateBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("evaluate_batch", err.Error())
		return
	}

	result := BatchResult{Results: make([]EvaluateResult, 0, len(p.Items))}
	for _, item := range p.Items {
		res := s.evaluate(item)
		result.Total += len(res.Alerts)
		result.Results = append(result.Results, res)
	}
	s.send("evaluate_batch", result)
}

func (s *Server) handleStats() {
	merged := engine.MergeStats(s.worker)
	data := StatsData{Options: make([]OptionStats, 0, len(merged))}
	for _, m := range merged {
		data.Options = append(data.Options, OptionStats{
			Pattern:          m.Pattern,
			Threshold:        m.Threshold,
			Buffers:          m.Stats.Buffers,
			Bytes:            m.Stats.Bytes,
			Iterations:       m.Stats.Iterations,
			Matches:          m.Stats.Matches,
			ValidatorRejects: m.Stats.ValidatorRejects,
			GuardRejects:     m.Stats.GuardRejects,
			EarlyExits:       m.Stats.EarlyExits,
		})
	}
	s.send("stats", data)
}

func (s *Server) send(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
