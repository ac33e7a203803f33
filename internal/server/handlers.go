package server

import (
	"errors"
	"net/http"
	"net/netip"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/lpm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error string `json:"error"`
}

func (m *Server) handleLookup(w http.ResponseWriter, req *http.Request) {
	addr, err := netip.ParseAddr(req.URL.Query().Get("addr"))
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	verdict, err := m.filter.Lookup(addr)
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	m.writeJSON(w, http.StatusOK, verdict)
}

func (m *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, http.StatusOK, m.filter.Rules())
}

func (m *Server) handlePutRule(w http.ResponseWriter, req *http.Request) {
	rule := filter.Rule{}
	if err := json.NewDecoder(req.Body).Decode(&rule); err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := m.filter.Insert(rule.Prefix, rule.Action); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, lpm.ErrAllocationFailure) {
			status = http.StatusInsufficientStorage
		}
		m.writeError(w, status, err)
		return
	}

	m.log.Infow("installed rule via API", zap.Stringer("rule", rule))
	w.WriteHeader(http.StatusNoContent)
}

func (m *Server) handleDeleteRule(w http.ResponseWriter, req *http.Request) {
	prefix, err := netip.ParsePrefix(req.URL.Query().Get("prefix"))
	if err != nil {
		m.writeError(w, http.StatusBadRequest, err)
		return
	}

	if !m.filter.Remove(prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	m.log.Infow("removed rule via API", zap.Stringer("prefix", prefix))
	w.WriteHeader(http.StatusNoContent)
}

func (m *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		m.log.Errorw("failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		m.log.Debugw("failed to write response", zap.Error(err))
	}
}

func (m *Server) writeError(w http.ResponseWriter, status int, err error) {
	m.writeJSON(w, status, errorResponse{Error: err.Error()})
}
