package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// only 限定请求方法，其余返回 405
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// tail 取前缀之后的单段路径，多段或为空时返回 false
func tail(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", only(http.MethodGet, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	}))
}

// RegisterAPIRoutes /api/v1
func (r *Router) RegisterAPIRoutes(h *APIHandler) {
	s := h.sessions

	// session
	r.Handle("/api/v1/session", s.Wrap(func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		switch req.Method {
		case http.MethodGet:
			h.GetSession(w, req, sess)
		case http.MethodDelete:
			h.ResetSession(w, req, sess)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	r.Handle("/api/v1/knowledge", only(http.MethodGet, h.GetKnowledge))

	// technical quality
	r.Handle("/api/v1/technical", only(http.MethodGet, s.Wrap(h.GetTechnical)))
	r.Handle("/api/v1/technical/", only(http.MethodPost, s.Wrap(func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		section, ok := tail(req.URL.Path, "/api/v1/technical/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.RecordTechnical(w, req, sess, section)
	})))

	// systematic review
	r.Handle("/api/v1/anatomy", only(http.MethodGet, s.Wrap(h.GetAnatomy)))
	r.Handle("/api/v1/anatomy/", only(http.MethodPost, s.Wrap(func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		region, ok := tail(req.URL.Path, "/api/v1/anatomy/")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.ReviewRegion(w, req, sess, region)
	})))

	// patterns
	r.Handle("/api/v1/patterns/match", only(http.MethodPost, h.MatchPatterns))
	r.Handle("/api/v1/patterns/differential", only(http.MethodGet, h.Differential))
	r.Handle("/api/v1/patterns/analyze", only(http.MethodPost, s.Wrap(h.AnalyzePattern)))

	// cases
	r.Handle("/api/v1/cases", only(http.MethodGet, s.Wrap(h.ListCases)))
	r.Handle("/api/v1/cases/", s.Wrap(func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/cases/")
		switch {
		case rest == "progress":
			only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) { h.CaseProgress(w, req, sess) })(w, req)
		case rest == "custom":
			only(http.MethodPost, func(w http.ResponseWriter, req *http.Request) { h.AddCustomCase(w, req, sess) })(w, req)
		case strings.HasSuffix(rest, "/attempt"):
			id, ok := tail(strings.TrimSuffix(rest, "/attempt"), "")
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			only(http.MethodPost, func(w http.ResponseWriter, req *http.Request) { h.AttemptCase(w, req, sess, id) })(w, req)
		default:
			id, ok := tail(rest, "")
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) { h.GetCase(w, req, sess, id) })(w, req)
		}
	}))

	// tools
	r.Handle("/api/v1/measure/ctr", only(http.MethodPost, s.Wrap(h.MeasureCTR)))
	r.Handle("/api/v1/measure/distance", only(http.MethodPost, h.MeasureDistance))
	r.Handle("/api/v1/images/analyze", only(http.MethodPost, h.AnalyzeImage))

	// report
	r.Handle("/api/v1/report", only(http.MethodGet, s.Wrap(h.GetReport)))
	r.Handle("/api/v1/report/impression", only(http.MethodPost, s.Wrap(h.SetImpression)))
	r.Handle("/api/v1/report/export", only(http.MethodGet, s.Wrap(h.ExportReport)))
}

// RegisterPageRoutes 六个教学模块 + 工具页
func (r *Router) RegisterPageRoutes(p *PageHandler) {
	s := p.sessions

	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		http.Redirect(w, req, "/technical", http.StatusFound)
	})
	r.Handle("/technical", s.Wrap(p.Technical))
	r.Handle("/anatomy", s.Wrap(p.Anatomy))
	r.Handle("/patterns", s.Wrap(p.Patterns))
	r.Handle("/cases", s.Wrap(p.Cases))
	r.Handle("/cases/", s.Wrap(func(w http.ResponseWriter, req *http.Request, sess *domain.Session) {
		id, ok := tail(req.URL.Path, "/cases/")
		if !ok {
			http.NotFound(w, req)
			return
		}
		p.Case(w, req, sess, id)
	}))
	r.Handle("/report", s.Wrap(p.Report))
	r.Handle("/knowledge", only(http.MethodGet, p.Knowledge))
	r.Handle("/tools", s.Wrap(p.Tools))
	r.Handle("/reset", only(http.MethodPost, s.Wrap(p.Reset)))
}
