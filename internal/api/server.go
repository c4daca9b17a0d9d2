// Package api exposes the decode and scan engines over HTTP so captures can
// be probed from scripts and the stored sessions browsed.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/framesift/internal/analysis"
	"github.com/banshee-data/framesift/internal/intake"
	"github.com/banshee-data/framesift/internal/livelink"
	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/scandb"
	"github.com/banshee-data/framesift/internal/wire"
)

// Layouts maps the layout names the API accepts to their header layouts.
// An empty or "none" layout scans from offset 0.
var Layouts = map[string]wire.HeaderLayout{
	"livelink-v1": livelink.V1HeaderLayout(),
}

type Server struct {
	db *scandb.DB // may be nil: persistence is optional
}

// NewServer creates an API server. db may be nil to disable session
// storage.
func NewServer(db *scandb.DB) *Server {
	return &Server{db: db}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("framesift: POST /api/scan, GET /api/sessions\n"))
}

// ScanRequest is the POST /api/scan body. Buffer accepts hex or a decimal
// byte list; MinAbs/MaxAbs default to the 0..1 plausibility range.
type ScanRequest struct {
	Buffer string   `json:"buffer"`
	Layout string   `json:"layout,omitempty"`
	MinAbs *float64 `json:"min_abs,omitempty"`
	MaxAbs *float64 `json:"max_abs,omitempty"`
	Store  bool     `json:"store,omitempty"`
	Source string   `json:"source,omitempty"`
}

type ScanResponse struct {
	Header       map[string]any   `json:"header,omitempty"`
	PayloadStart int              `json:"payload_start"`
	Candidates   []scan.Candidate `json:"candidates"`
	Summary      analysis.Summary `json:"summary"`
	SessionID    int64            `json:"session_id,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request body: %v", err), http.StatusBadRequest)
		return
	}

	buf, err := intake.ParseHexDump(req.Buffer)
	if err != nil {
		buf, err = intake.ParseByteDump(req.Buffer)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("bad buffer: %v", err), http.StatusBadRequest)
		return
	}

	var resp ScanResponse
	if req.Layout != "" && req.Layout != "none" {
		layout, ok := Layouts[req.Layout]
		if !ok {
			http.Error(w, fmt.Sprintf("unknown layout %q", req.Layout), http.StatusBadRequest)
			return
		}
		h, err := wire.DecodeHeader(buf, layout)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		resp.PayloadStart = h.PayloadStart
		resp.Header = make(map[string]any, len(layout))
		for _, f := range layout {
			v, _ := h.Field(f.Name)
			if raw, ok := v.([]byte); ok {
				v = fmt.Sprintf("% X", raw)
			}
			resp.Header[f.Name] = v
		}
	}

	minAbs, maxAbs := 0.0, 1.0
	if req.MinAbs != nil {
		minAbs = *req.MinAbs
	}
	if req.MaxAbs != nil {
		maxAbs = *req.MaxAbs
	}

	resp.Candidates = scan.ScanAll(buf, resp.PayloadStart, scan.InRange(minAbs, maxAbs))
	resp.Summary = analysis.Summarize(buf, resp.PayloadStart, resp.Candidates)

	if req.Store {
		if s.db == nil {
			http.Error(w, "session storage not enabled", http.StatusConflict)
			return
		}
		source := req.Source
		if source == "" {
			source = "api"
		}
		id, err := s.db.RecordSession(scandb.Session{
			Source:       source,
			BufferLength: len(buf),
			PayloadStart: resp.PayloadStart,
			LayoutName:   req.Layout,
			MinAbs:       minAbs,
			MaxAbs:       maxAbs,
			Windows:      resp.Summary.Windows,
			HitRate:      resp.Summary.HitRate,
			EntropyBits:  resp.Summary.EntropyBits,
		}, resp.Candidates)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to store session: %v", err), http.StatusInternalServerError)
			return
		}
		resp.SessionID = id
	}

	writeJSON(w, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "session storage not enabled", http.StatusConflict)
		return
	}
	sessions, err := s.db.Sessions()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list sessions: %v", err), http.StatusInternalServerError)
		return
	}

	type sessionJSON struct {
		ID           int64   `json:"id"`
		Source       string  `json:"source"`
		BufferLength int     `json:"buffer_length"`
		PayloadStart int     `json:"payload_start"`
		LayoutName   string  `json:"layout_name"`
		MinAbs       float64 `json:"min_abs"`
		MaxAbs       float64 `json:"max_abs"`
		Windows      int     `json:"windows"`
		HitRate      float64 `json:"hit_rate"`
		EntropyBits  float64 `json:"entropy_bits"`
		CreatedAt    string  `json:"created_at"`
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionJSON{
			ID:           sess.ID,
			Source:       sess.Source,
			BufferLength: sess.BufferLength,
			PayloadStart: sess.PayloadStart,
			LayoutName:   sess.LayoutName,
			MinAbs:       sess.MinAbs,
			MaxAbs:       sess.MaxAbs,
			Windows:      sess.Windows,
			HitRate:      sess.HitRate,
			EntropyBits:  sess.EntropyBits,
			CreatedAt:    sess.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
