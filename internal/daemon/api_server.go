package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"relist/internal/api"
	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
	"relist/internal/identity"
	"relist/internal/logging"
	"relist/internal/workflow"
)

type apiServer struct {
	bind       string
	logger     *slog.Logger
	daemon     *Daemon
	catalogSvc *api.CatalogService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:       bind,
		logger:     logger,
		daemon:     d,
		catalogSvc: api.NewCatalogService(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", srv.handleLogin)
	mux.HandleFunc("/api/logout", srv.authenticated(srv.handleLogout))
	mux.HandleFunc("/api/heartbeat", srv.authenticated(srv.handleHeartbeat))
	mux.HandleFunc("/api/status", srv.authenticated(srv.handleStatus))
	mux.HandleFunc("/api/items", srv.authenticated(srv.handleItems))
	mux.HandleFunc("/api/items/", srv.authenticated(srv.handleItemSubtree))
	mux.HandleFunc("/api/claims", srv.authenticated(srv.handleClaims))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, principal, err := s.daemon.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user, err := s.daemon.store.GetUser(r.Context(), principal.UserID)
	if err != nil || user == nil {
		s.writeError(w, http.StatusInternalServerError, "load user failed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.LoginResponse{Token: token, User: api.FromUser(user)})
}

func (s *apiServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.identity.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	principal := principalFrom(r.Context())
	if err := s.daemon.identity.Heartbeat(r.Context(), principal.UserID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		CatalogDBPath: status.CatalogDBPath,
		LockFilePath:  status.LockFilePath,
		StageCounts:   api.MergeStats(status.StageCounts),
		ActiveClaims:  status.ActiveClaims,
	})
}

func (s *apiServer) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var stages []catalog.Stage
	for _, value := range r.URL.Query()["stage"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		stage, err := catalog.ParseStage(trimmed)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		stages = append(stages, stage)
	}

	items, err := s.catalogSvc.List(r.Context(), stages...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: items})
}

// handleItemSubtree routes /api/items/{id} and /api/items/{id}/{action}.
func (s *apiServer) handleItemSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/items/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch action {
	case "":
		s.handleItemDescribe(w, r, id)
	case "history":
		s.handleItemHistory(w, r, id)
	case "claim":
		s.handleItemClaim(w, r, id)
	case "release":
		s.handleItemRelease(w, r, id)
	case "transition":
		s.handleItemTransition(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleItemDescribe(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	item, err := s.catalogSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: *item})
}

func (s *apiServer) handleItemHistory(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actions, err := s.daemon.history.History(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Actions: api.FromActions(actions)})
}

func (s *apiServer) handleItemClaim(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	principal := principalFrom(r.Context())
	claim, err := s.daemon.claims.Claim(r.Context(), id, principal.UserID)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClaimResponse{Claim: api.FromClaim(claim)})
}

func (s *apiServer) handleItemRelease(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	principal := principalFrom(r.Context())
	if err := s.daemon.claims.Release(r.Context(), id, principal.UserID); err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleItemTransition(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target, err := catalog.ParseStage(req.Target)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	principal := principalFrom(r.Context())
	item, action, err := s.daemon.engine.Transition(r.Context(), workflow.TransitionRequest{
		ItemID:  id,
		ActorID: principal.UserID,
		Target:  target,
		Notes:   req.Notes,
		Changes: req.Changes,
	})
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TransitionResponse{
		Item:   api.FromItem(item),
		Action: api.FromAction(action),
	})
}

func (s *apiServer) handleClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	active, err := s.daemon.claims.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClaimListResponse{Claims: api.FromClaims(active)})
}

// writeWorkflowError maps engine and claim errors onto HTTP statuses.
func (s *apiServer) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrPermissionDenied):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, workflow.ErrClaimConflict),
		errors.Is(err, workflow.ErrContention),
		errors.Is(err, claims.ErrAlreadyClaimed),
		errors.Is(err, claims.ErrNotClaimant):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrIncompleteData):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, workflow.ErrInvalidState):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, claims.ErrUnknownItem):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
