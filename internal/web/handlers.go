package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/janitor"
	"github.com/condanest/condanest/internal/store"
)

// errorBody is the JSON error envelope. Code identifies the failure class
// from the backend error taxonomy; Raw carries diagnostic output when the
// failure wraps unparsed backend text.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// writeError maps the conda error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		tosErr   *conda.TermsOfServiceError
		cmdErr   *conda.CommandError
		parseErr *conda.ParseError
	)
	switch {
	case errors.As(err, &tosErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: tosErr.Error(), Code: "tos_required", Raw: tosErr.Stderr})
	case errors.Is(err, conda.ErrEnvBusy):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "env_busy"})
	case errors.Is(err, conda.ErrEnvNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "env_not_found"})
	case errors.Is(err, conda.ErrEnvPathMissing):
		writeJSON(w, http.StatusGone, errorBody{Error: err.Error(), Code: "env_path_missing"})
	case errors.Is(err, conda.ErrBackendNotFound):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: "backend_missing"})
	case errors.Is(err, janitor.ErrEstimateRequired):
		writeJSON(w, http.StatusPreconditionFailed, errorBody{Error: err.Error(), Code: "estimate_required"})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: parseErr.Error(), Code: "parse_failure", Raw: parseErr.Raw})
	case errors.As(err, &cmdErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: cmdErr.Error(), Code: "command_failed", Raw: cmdErr.Stderr})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

// envJSON is the wire shape of an environment record.
type envJSON struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsActive  bool   `json:"is_active"`
	Stale     bool   `json:"stale"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

func envToJSON(env *conda.Environment) envJSON {
	return envJSON{
		Name:      env.Name,
		Path:      env.Path,
		IsActive:  env.IsActive,
		Stale:     env.Stale,
		SizeBytes: env.SizeBytes,
	}
}

// packageJSON is the wire shape of a package record.
type packageJSON struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	BuildString string `json:"build_string,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Source      string `json:"source"`
}

func packagesToJSON(packages []*conda.Package) []packageJSON {
	out := make([]packageJSON, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, packageJSON{
			Name:        pkg.Name,
			Version:     pkg.Version,
			BuildString: pkg.BuildString,
			Channel:     pkg.Channel,
			Source:      string(pkg.Source),
		})
	}
	return out
}

func (s *Server) handleBackend(w http.ResponseWriter, r *http.Request) {
	backend := s.session.Client().Backend()
	writeJSON(w, http.StatusOK, map[string]string{
		"kind":        string(backend.Kind),
		"executable":  backend.Executable,
		"version":     backend.Version,
		"base_prefix": backend.BasePrefix,
	})
}

func (s *Server) handleListEnvs(w http.ResponseWriter, r *http.Request) {
	envs, err := s.session.Client().ListEnvs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]envJSON, 0, len(envs))
	for _, env := range envs {
		if !env.Stale {
			env.SizeBytes = s.janitor.EnvSize(env)
		}
		out = append(out, envToJSON(env))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEnv(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		PythonVersion string `json:"python_version"`
		File          string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.Name == "" && req.File == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name or file is required"})
		return
	}

	name := req.Name
	if name == "" {
		declared, err := conda.EnvFileName(req.File)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		name = declared
	}

	err := s.runOp(r, store.OpCreate, name, func(client *conda.Client) error {
		if req.File != "" {
			return client.CreateEnvFromFile(r.Context(), req.File, req.Name)
		}
		return client.CreateEnv(r.Context(), req.Name, req.PythonVersion)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.hub.Broadcast(EventEnvsChanged, map[string]string{"env": name})
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.runOp(r, store.OpDelete, name, func(client *conda.Client) error {
		return client.RemoveEnv(r.Context(), env)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteEnvSize(env.Path); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to drop cached size")
	}
	s.hub.Broadcast(EventEnvsChanged, map[string]string{"env": name})
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	packages, err := s.session.Client().ListPackages(r.Context(), env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packagesToJSON(packages))
}

func (s *Server) handleCloneEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "new_name is required"})
		return
	}

	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.runOp(r, store.OpClone, name, func(client *conda.Client) error {
		return client.CloneEnv(r.Context(), env, req.NewName)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.hub.Broadcast(EventEnvsChanged, map[string]string{"env": req.NewName})
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.NewName})
}

// handleRenameEnv runs the clone-verify-delete flow. delete_old is the
// explicit confirmation: when false the old environment is kept and only
// the clone is reported.
func (s *Server) handleRenameEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		NewName   string `json:"new_name"`
		DeleteOld bool   `json:"delete_old"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "new_name is required"})
		return
	}

	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	var result *conda.RenameResult
	err = s.runOp(r, store.OpRename, name, func(client *conda.Client) error {
		confirm := func(*conda.Environment) bool { return req.DeleteOld }
		progress := func(msg string) {
			s.hub.Broadcast(EventProgress, map[string]string{"operation": store.OpRename, "env": name, "message": msg})
		}
		var flowErr error
		result, flowErr = conda.Rename(r.Context(), client, env, req.NewName, confirm, progress)
		return flowErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if result.OldRemoved {
		if err := s.store.DeleteEnvSize(env.Path); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("failed to drop cached size")
		}
	}
	s.hub.Broadcast(EventEnvsChanged, map[string]string{"env": req.NewName})
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        result.NewEnv.Name,
		"old_removed": result.OldRemoved,
	})
}

func (s *Server) handleExportEnv(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Dest string `json:"dest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dest == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "dest is required"})
		return
	}

	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.runOp(r, store.OpExport, name, func(client *conda.Client) error {
		return client.ExportEnvYAML(r.Context(), env, req.Dest)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dest": req.Dest})
}

func (s *Server) handleSearchPackages(w http.ResponseWriter, r *http.Request) {
	spec := r.URL.Query().Get("q")
	if spec == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "q query parameter is required"})
		return
	}
	packages, err := s.session.Client().SearchPackages(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packagesToJSON(packages))
}

// packageOp factors the three package mutation endpoints; they differ only
// in journal kind and client call.
func (s *Server) packageOp(w http.ResponseWriter, r *http.Request, kind string, run func(*conda.Client, *conda.Environment, []string) error) {
	name := chi.URLParam(r, "name")
	var req struct {
		Packages []string `json:"packages"`
		All      bool     `json:"all"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if len(req.Packages) == 0 && !req.All {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "packages list is required"})
		return
	}

	env, err := s.session.Client().FindEnv(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.runOp(r, kind, name, func(client *conda.Client) error {
		return run(client, env, req.Packages)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"env": name, "packages": req.Packages})
}

func (s *Server) handleInstallPackages(w http.ResponseWriter, r *http.Request) {
	s.packageOp(w, r, store.OpInstall, func(client *conda.Client, env *conda.Environment, specs []string) error {
		return client.InstallPackages(r.Context(), env, specs)
	})
}

func (s *Server) handleRemovePackages(w http.ResponseWriter, r *http.Request) {
	s.packageOp(w, r, store.OpRemove, func(client *conda.Client, env *conda.Environment, names []string) error {
		return client.RemovePackages(r.Context(), env, names)
	})
}

func (s *Server) handleUpdatePackages(w http.ResponseWriter, r *http.Request) {
	s.packageOp(w, r, store.OpUpdate, func(client *conda.Client, env *conda.Environment, names []string) error {
		if len(names) == 0 {
			return client.UpdateAllPackages(r.Context(), env)
		}
		return client.UpdatePackages(r.Context(), env, names)
	})
}

func (s *Server) handleGetChannels(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.session.Client().GetChannels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels":      cfg.Channels,
		"priority_mode": cfg.PriorityMode,
	})
}

func (s *Server) handleSetChannels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channels     []string `json:"channels"`
		PriorityMode string   `json:"priority_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	client := s.session.Client()
	if len(req.Channels) > 0 {
		if err := client.SetChannels(r.Context(), req.Channels); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.PriorityMode != "" {
		if err := client.SetChannelPriorityMode(r.Context(), req.PriorityMode); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *Server) handleDiskUsage(w http.ResponseWriter, r *http.Request) {
	report, err := s.janitor.Estimate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"pkgs_cache": report.PkgsCache,
		"envs":       report.Envs,
		"total":      report.Total,
	})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.janitor.Clean(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.hub.Broadcast(EventEnvsChanged, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleaned"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ops, err := s.store.ListOperations(50)
	if err != nil {
		writeError(w, err)
		return
	}
	type opJSON struct {
		Kind       string `json:"kind"`
		EnvName    string `json:"env_name,omitempty"`
		Status     string `json:"status"`
		Detail     string `json:"detail,omitempty"`
		StartedAt  string `json:"started_at"`
		FinishedAt string `json:"finished_at,omitempty"`
	}
	out := make([]opJSON, 0, len(ops))
	for _, op := range ops {
		entry := opJSON{
			Kind:      op.Kind,
			EnvName:   op.EnvName,
			Status:    op.Status,
			Detail:    op.Detail,
			StartedAt: op.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if !op.FinishedAt.IsZero() {
			entry.FinishedAt = op.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// runOp executes fn under the per-environment guard with a journal entry
// around it.
func (s *Server) runOp(r *http.Request, kind, envName string, fn func(*conda.Client) error) error {
	opID, err := s.store.BeginOperation(kind, envName, "")
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to journal operation")
	}
	runErr := s.session.Do(envName, fn)
	if opID != 0 {
		status := store.StatusSucceeded
		detail := ""
		if runErr != nil {
			status = store.StatusFailed
			detail = runErr.Error()
		}
		if err := s.store.FinishOperation(opID, status, detail); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("failed to close journal entry")
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s %s: %w", kind, envName, runErr)
	}
	return nil
}
