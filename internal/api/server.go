// Package api exposes a small read-only status server over the ledger,
// handy for dashboards and health checks alongside the bot.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gringotts/internal/bank"
	"gringotts/internal/links"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	log    *slog.Logger
	ledger *bank.Ledger
	links  *links.Table
	mux    *chi.Mux
}

func New(logger *slog.Logger, ledger *bank.Ledger, table *links.Table) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:    logger,
		ledger: ledger,
		links:  table,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/leaderboard/users", s.handleTopUsers)
		r.Get("/leaderboard/characters", s.handleTopCharacters)
		r.Get("/owners/{id}", s.handleOwner)
	})
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 || n > 100 {
		return 10
	}
	return n
}

func (s *Server) handleTopUsers(w http.ResponseWriter, r *http.Request) {
	rows := s.ledger.TopOwners(limitParam(r))
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{
			"owner_id":    strconv.FormatInt(row.OwnerID, 10),
			"total_knuts": row.Total.Knuts,
			"total":       row.Total.Format(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleTopCharacters(w http.ResponseWriter, r *http.Request) {
	rows := s.ledger.TopWallets(limitParam(r))
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if row.Wallet == "" {
			continue
		}
		out = append(out, map[string]any{
			"owner_id":      strconv.FormatInt(row.OwnerID, 10),
			"character":     row.Wallet,
			"balance_knuts": row.Balance.Knuts,
			"balance":       row.Balance.Format(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	wallets := make(map[string]any)
	for wallet, bal := range s.ledger.Wallets(id) {
		wallets[wallet] = map[string]any{"knuts": bal.Knuts, "display": bal.Format()}
	}
	total := s.ledger.OwnerTotal(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"owner_id":    strconv.FormatInt(id, 10),
		"vault_knuts": s.ledger.Balance(id, "").Knuts,
		"total_knuts": total.Knuts,
		"total":       total.Format(),
		"wallets":     wallets,
		"characters":  s.links.OwnedBy(id),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
