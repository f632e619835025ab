package http

import (
	"fmt"
	"net/http"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/gorilla/mux"
)

type banner struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeData(w, banner{Name: "chainscan", Protocol: s.protocol})
}

// HealthReport is the body of /health.
type HealthReport struct {
	Live     bool         `json:"live"`
	Protocol string       `json:"protocol"`
	Events   []event.Type `json:"events"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	report := HealthReport{
		Live:     s.pool.IsLive(),
		Protocol: s.protocol,
		Events:   []event.Type{},
	}

	if !report.Live {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Status: statusError, Data: report})
		return
	}

	active, err := s.source.ActiveEvents(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	report.Events = active

	writeData(w, report)
}

type eventInfo struct {
	Name         string `json:"name"`
	Notification string `json:"notification"`
	Enabled      bool   `json:"enabled"`
}

type eventsReport struct {
	Events        []eventInfo `json:"events"`
	Strategy      string      `json:"strategy"`
	BufferSize    int         `json:"bufferSize"`
	Deduplication bool        `json:"deduplication"`
}

func (s *Server) listEvents(w http.ResponseWriter, _ *http.Request) {
	enabled := types.NewSet(s.events.Enabled...)

	all := event.All()
	report := eventsReport{
		Events:        make([]eventInfo, 0, len(all)),
		Strategy:      s.events.Strategy.Kind.String(),
		BufferSize:    s.events.BufferSize,
		Deduplication: s.events.Deduplication,
	}
	for _, t := range all {
		report.Events = append(report.Events, eventInfo{
			Name:         t.String(),
			Notification: t.NotificationName(),
			Enabled:      enabled.Has(t.String()),
		})
	}

	writeData(w, report)
}

func (s *Server) lastEvent(w http.ResponseWriter, r *http.Request) {
	typ, err := event.Parse(mux.Vars(r)["event"])
	if err != nil {
		WriteError(w, r, err)
		return
	}

	snap, err := s.cache.Last(r.Context(), typ)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, snap)
}

func (s *Server) lastHeader(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.LatestHeader(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, h)
}

func (s *Server) chainStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ChainStats(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, stats)
}

func hexVar(r *http.Request, name string) (types.Hex, error) {
	h, err := types.HexFromString(mux.Vars(r)[name])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBadRequest, name, err)
	}
	if len(h) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrBadRequest, name)
	}
	return h, nil
}

func (s *Server) headerByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := hexVar(r, "hash")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h, err := s.store.HeaderByHash(r.Context(), hash)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, h)
}

func (s *Server) lastTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.store.LatestTransaction(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, tx)
}

func (s *Server) transactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TransactionStats(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, stats)
}

func (s *Server) transactionByID(w http.ResponseWriter, r *http.Request) {
	id, err := hexVar(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	tx, err := s.store.TransactionByID(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeData(w, tx)
}
