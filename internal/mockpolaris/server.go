package mockpolaris

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Call records a request made to the mock service.
type Call struct {
	Method  string
	Path    string
	Project string
}

// SamplingCall records the body of a sampling request.
type SamplingCall struct {
	Project        string
	SourceType     string
	ConnectionName string
	Objects        []string
}

// Job records a submitted ingestion job.
type Job struct {
	ID      string
	Project string
	Payload json.RawMessage
}

// Server implements a minimal sampling + jobs API surface.
type Server struct {
	schemaDir string
	jobsDir   string

	mu       sync.Mutex
	calls    []Call
	sampling []SamplingCall
	jobs     []Job

	expectedAuthorization string

	schemas  map[string]json.RawMessage
	failures map[string]int
	jobFail  int
	nextJob  int
}

// New constructs a mock server. schemaDir holds "<object>.json" files with a
// schema array per object name; jobsDir, when set, receives every submitted
// job payload. Either may be empty.
func New(schemaDir, jobsDir string) *Server {
	return &Server{
		schemaDir: schemaDir,
		jobsDir:   jobsDir,
		schemas:   make(map[string]json.RawMessage),
		failures:  make(map[string]int),
		nextJob:   1,
	}
}

// RequireBasicCredential enforces that requests carry "Basic <credential>".
// If credential is empty, authorization is not enforced.
func (s *Server) RequireBasicCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential = strings.TrimSpace(credential)
	if credential == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Basic " + credential
}

// SetSchema registers the schema array returned when sampling object.
func (s *Server) SetSchema(object string, schema json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[object] = schema
}

// FailSampling makes sampling of object respond with the given status code.
func (s *Server) FailSampling(object string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[object] = status
}

// FailJobs makes every job submission respond with the given status code.
// Zero restores normal behavior.
func (s *Server) FailJobs(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobFail = status
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/projects/", s.handleProjects)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// SamplingCalls returns a snapshot of sampling requests.
func (s *Server) SamplingCalls() []SamplingCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SamplingCall, len(s.sampling))
	copy(out, s.sampling)
	return out
}

// Jobs returns a snapshot of accepted job submissions.
func (s *Server) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.Header.Get("Authorization") != expected {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return false
	}
	return true
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	// /v1/projects/{project}/sampling/raw
	// /v1/projects/{project}/jobs
	rest := strings.TrimPrefix(r.URL.Path, "/v1/projects/")
	parts := strings.Split(rest, "/")
	project := parts[0]

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Project: project})
	s.mu.Unlock()

	if !s.authorize(w, r) {
		return
	}
	if !isSafeToken(project) {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid project id")
		return
	}

	switch {
	case len(parts) == 3 && parts[1] == "sampling" && parts[2] == "raw":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleSampling(w, r, project)
	case len(parts) == 2 && parts[1] == "jobs":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleCreateJob(w, r, project)
	default:
		http.NotFound(w, r)
	}
}

type samplingReq struct {
	Source struct {
		Type           string   `json:"type"`
		ConnectionName string   `json:"connectionName"`
		Objects        []string `json:"objects"`
	} `json:"source"`
}

func (s *Server) handleSampling(w http.ResponseWriter, r *http.Request, project string) {
	var req samplingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", fmt.Sprintf("invalid json: %v", err))
		return
	}

	s.mu.Lock()
	s.sampling = append(s.sampling, SamplingCall{
		Project:        project,
		SourceType:     req.Source.Type,
		ConnectionName: req.Source.ConnectionName,
		Objects:        append([]string(nil), req.Source.Objects...),
	})
	s.mu.Unlock()

	if len(req.Source.Objects) != 1 {
		writeError(w, http.StatusBadRequest, "BadRequest", "exactly one object is required")
		return
	}
	object := req.Source.Objects[0]

	s.mu.Lock()
	status := s.failures[object]
	schema, ok := s.schemas[object]
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, "SamplingFailed", "sampling failed for "+object)
		return
	}
	if !ok {
		b, err := s.loadSchemaFile(object)
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NotFound", "object not found: "+object)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "InvalidSchemaFile", err.Error())
			return
		}
		schema = b
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"schema": schema,
		"data":   []any{},
	})
}

func (s *Server) loadSchemaFile(object string) (json.RawMessage, error) {
	if s.schemaDir == "" || !isSafeToken(object) {
		return nil, os.ErrNotExist
	}
	b, err := os.ReadFile(filepath.Join(s.schemaDir, object+".json"))
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("schema file %s is not valid JSON", object+".json")
	}
	return json.RawMessage(b), nil
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request, project string) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "read body")
		return
	}
	if !json.Valid(b) {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}

	var head struct {
		Type   string `json:"type"`
		Target struct {
			TableName string `json:"tableName"`
		} `json:"target"`
	}
	_ = json.Unmarshal(b, &head)

	s.mu.Lock()
	if s.jobFail != 0 {
		status := s.jobFail
		s.mu.Unlock()
		writeError(w, status, "JobRejected", "job rejected")
		return
	}
	id := fmt.Sprintf("job-%04d", s.nextJob)
	s.nextJob++
	s.jobs = append(s.jobs, Job{ID: id, Project: project, Payload: append(json.RawMessage(nil), b...)})
	s.mu.Unlock()

	if s.jobsDir != "" {
		if err := os.MkdirAll(s.jobsDir, 0o755); err == nil {
			_ = os.WriteFile(filepath.Join(s.jobsDir, id+".json"), b, 0o644)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":              id,
		"type":            head.Type,
		"target":          map[string]any{"type": "table", "tableName": head.Target.TableName},
		"executionStatus": "pending",
		"health":          map[string]any{"status": "ok"},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func isSafeToken(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}
