// stats.go - process and emulator health for monitoring
package server

import (
	"net/http"
	"runtime"
)

// Stats is the body of GET /api/stats.
type Stats struct {
	AllocMB         float64 `json:"alloc_mb"`
	NumGC           uint32  `json:"num_gc"`
	Goroutines      int     `json:"goroutines"`
	Generation      uint64  `json:"generation"`
	ScrollbackLines int     `json:"scrollback_lines"`
	Clients         int     `json:"clients"`
}

func (s *Server) collectStats() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Stats{
		AllocMB:         float64(m.Alloc) / 1024 / 1024,
		NumGC:           m.NumGC,
		Goroutines:      runtime.NumGoroutine(),
		Generation:      s.term.Generation(),
		ScrollbackLines: s.term.ScrollbackLen(),
		Clients:         s.hub.Clients(),
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.collectStats())
}
