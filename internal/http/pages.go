package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/pattern"
	"cxr-learning/internal/quality"
	"cxr-learning/internal/render"
	"cxr-learning/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

type navItem struct {
	Path  string
	Title string
}

var navItems = []navItem{
	{"/technical", "Technical Quality"},
	{"/anatomy", "Systematic Review"},
	{"/patterns", "Pattern Recognition"},
	{"/cases", "Case Studies"},
	{"/report", "Generate Report"},
	{"/knowledge", "Knowledge Base"},
	{"/tools", "Tools"},
}

var pageNames = []string{"technical", "anatomy", "patterns", "cases", "case", "report", "knowledge", "tools"}

// pageData 所有页面共用的外层数据
type pageData struct {
	Title   string
	Active  string
	Nav     []navItem
	Flash   string
	Error   string
	Session string
	Data    any
}

// PageHandler 服务端渲染的 HTML 页面
type PageHandler struct {
	svc       *service.Services
	kb        *knowledge.Base
	sessions  *SessionManager
	md        *render.Converter
	pages     map[string]*template.Template
	maxUpload int64
	logger    *zap.Logger
}

func NewPageHandler(svc *service.Services, kb *knowledge.Base, sessions *SessionManager, maxUpload int64, logger *zap.Logger) (*PageHandler, error) {
	funcs := template.FuncMap{
		"join":    strings.Join,
		"has":     contains,
		"field":   func(m map[string]string, k string) string { return m[k] },
		"regions": func() []domain.Region { return domain.RegionOrder },
		"rcolor":  func(r domain.OverallRating) string { return r.Color() },
		"profuse": func() []int { return []int{0, 1, 2, 3} },
		"status":  attemptStatus,
		// 预览图由服务端生成的 PNG data URI
		"preview": func(s string) template.URL { return template.URL(s) },
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &PageHandler{
		svc:       svc,
		kb:        kb,
		sessions:  sessions,
		md:        render.NewConverter(),
		pages:     pages,
		maxUpload: maxUpload,
		logger:    logger,
	}, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (p *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, d pageData) {
	d.Nav = navItems
	if d.Active == "" {
		d.Active = "/" + name
	}
	if d.Flash == "" {
		d.Flash = r.URL.Query().Get("saved")
	}
	if id := w.Header().Get(SessionHeader); id != "" {
		d.Session = id
	}
	var buf bytes.Buffer
	if err := p.pages[name].Execute(&buf, d); err != nil {
		p.logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// saveAndRedirect POST 后保存会话再 303 跳转（PRG）
func (p *PageHandler) saveAndRedirect(w http.ResponseWriter, r *http.Request, sess *domain.Session, target, flash string) {
	if err := p.sessions.Save(r.Context(), sess); err != nil {
		p.logger.Error("Failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
		http.Error(w, "failed to save session", http.StatusServiceUnavailable)
		return
	}
	if flash != "" {
		target += "?saved=" + url.QueryEscape(flash)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func attemptStatus(attempts map[string]domain.CaseAttempt, id string) string {
	a, ok := attempts[id]
	switch {
	case !ok:
		return "Not started"
	case a.Submitted:
		return "Submitted"
	default:
		return "In progress"
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

type technicalPage struct {
	Forms   []service.SectionForm
	Summary quality.Overall
	Report  string
}

// Technical /technical
func (p *PageHandler) Technical(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var errMsg string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		section := r.PostForm.Get("section")
		sec, err := domain.ParseSection(section)
		if err != nil {
			errMsg = err.Error()
			break
		}
		answers := map[string]string{domain.FieldFindings: r.PostForm.Get(domain.FieldFindings)}
		for _, f := range p.kb.Form(sec) {
			if f.Checkbox {
				if r.PostForm.Get(f.Field) != "" {
					answers[f.Field] = "on"
				}
				continue
			}
			answers[f.Field] = r.PostForm.Get(f.Field)
		}
		if _, err := p.svc.Quality.Record(r.Context(), sess, section, answers); err != nil {
			errMsg = err.Error()
			break
		}
		p.saveAndRedirect(w, r, sess, "/technical", sec.Title()+" assessment saved")
		return
	default:
		methodNotAllowed(w)
		return
	}
	p.render(w, r, "technical", pageData{
		Title: "Technical Quality Assessment",
		Error: errMsg,
		Data: technicalPage{
			Forms:   p.svc.Quality.Forms(sess),
			Summary: p.svc.Quality.Summary(sess),
			Report:  p.svc.Report.Technical(sess),
		},
	})
}

type anatomyPage struct {
	Regions  []service.RegionForm
	Findings string
}

// Anatomy /anatomy
func (p *PageHandler) Anatomy(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var errMsg string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		region := r.PostForm.Get("region")
		req := service.ReviewRequest{
			Findings: r.PostForm.Get("findings"),
			Checked:  r.PostForm["checked"],
			Choices:  map[string]string{},
		}
		for key, vals := range r.PostForm {
			if field, ok := strings.CutPrefix(key, "choice_"); ok && len(vals) > 0 {
				req.Choices[field] = vals[0]
			}
		}
		if _, err := p.svc.Anatomy.Review(r.Context(), sess, region, req); err != nil {
			errMsg = err.Error()
			break
		}
		p.saveAndRedirect(w, r, sess, "/anatomy", domain.Region(region).Title()+" review saved")
		return
	default:
		methodNotAllowed(w)
		return
	}
	p.render(w, r, "anatomy", pageData{
		Title: "Systematic Anatomic Review",
		Error: errMsg,
		Data: anatomyPage{
			Regions:  p.svc.Anatomy.Regions(sess),
			Findings: p.svc.Anatomy.Findings(sess),
		},
	})
}

type patternsPage struct {
	Features      []string
	Distributions []string
	Observed      []string
	Distribution  string
	Scores        []pattern.Score
	DxPattern     string
	DxDistrib     string
	Differentials []string
	KB            *knowledge.Base
	Last          *domain.PatternSelection
	LastHTML      template.HTML
}

// Patterns /patterns：匹配与鉴别诊断查询为 GET（纯计算），家族分析为 POST（写入会话）
func (p *PageHandler) Patterns(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var errMsg string
	var last *pattern.Analysis
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		sel := pattern.Selection{
			Shape:           r.PostForm.Get("shape"),
			Size:            r.PostForm.Get("size"),
			Profusion:       parseInt(r.PostForm.Get("profusion"), 0),
			Distributions:   r.PostForm["distributions"],
			Pattern:         r.PostForm.Get("pattern"),
			AirBronchograms: r.PostForm.Get("air_bronchograms") != "",
			LineType:        r.PostForm.Get("line_type"),
			Features:        r.PostForm["features"],
		}
		a, err := p.svc.Pattern.Analyze(r.Context(), sess, r.PostForm.Get("family"), sel)
		if err != nil {
			errMsg = err.Error()
			break
		}
		last = &a
		if err := p.sessions.Save(r.Context(), sess); err != nil {
			p.logger.Error("Failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
			errMsg = "failed to save session"
		}
	default:
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	data := patternsPage{
		Features:      p.svc.Pattern.Features(),
		Distributions: p.svc.Pattern.Distributions(),
		Observed:      q["features"],
		Distribution:  q.Get("distribution"),
		DxPattern:     q.Get("dx_pattern"),
		DxDistrib:     q.Get("dx_distribution"),
		KB:            p.kb,
		Last:          sess.Pattern,
	}
	if len(data.Observed) > 0 || data.Distribution != "" {
		data.Scores = p.svc.Pattern.Match(data.Observed, data.Distribution)
	}
	if data.DxPattern != "" {
		data.Differentials = p.svc.Pattern.Differential(data.DxPattern, data.DxDistrib)
	}
	if last != nil {
		html, err := p.md.HTML(render.AnalysisMarkdown(*last))
		if err == nil {
			data.LastHTML = html
		}
	}
	p.render(w, r, "patterns", pageData{Title: "Pattern Recognition", Error: errMsg, Data: data})
}

type casesPage struct {
	Cases        []domain.CaseRecord
	Difficulty   string
	Category     string
	Difficulties []string
	Categories   []string
	Progress     casestudy.Progress
	Attempts     map[string]domain.CaseAttempt
}

// Cases /cases 列表 + 自定义病例
func (p *PageHandler) Cases(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var errMsg string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		f := r.PostForm
		in := casestudy.CustomCaseInput{
			Title:                   f.Get("title"),
			Difficulty:              f.Get("difficulty"),
			PatientHistory:          f.Get("patient_history"),
			ClinicalContext:         f.Get("clinical_context"),
			ImageDescription:        f.Get("image_description"),
			Findings:                map[string]string{},
			KeyFindings:             []string{f.Get("key_findings")},
			Diagnosis:               f.Get("diagnosis"),
			TeachingPoints:          []string{f.Get("teaching_points")},
			DifferentialsConsidered: []string{f.Get("differentials_considered")},
			References:              []string{f.Get("references")},
		}
		for _, region := range domain.RegionOrder {
			if v := strings.TrimSpace(f.Get("finding_" + string(region))); v != "" {
				in.Findings[string(region)] = v
			}
		}
		c, err := p.svc.Cases.AddCustom(r.Context(), sess, in)
		if err != nil {
			errMsg = err.Error()
			break
		}
		p.saveAndRedirect(w, r, sess, "/cases/"+c.ID, "Custom case added")
		return
	default:
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	difficulty := q.Get("difficulty")
	if difficulty == "" {
		difficulty = casestudy.AllDifficulties
	}
	category := q.Get("category")
	if category == "" {
		category = casestudy.AllCategories
	}
	p.render(w, r, "cases", pageData{
		Title: "Case Studies",
		Error: errMsg,
		Data: casesPage{
			Cases:        p.svc.Cases.List(sess, difficulty, category),
			Difficulty:   difficulty,
			Category:     category,
			Difficulties: []string{casestudy.AllDifficulties, string(domain.DifficultyBeginner), string(domain.DifficultyIntermediate), string(domain.DifficultyAdvanced)},
			Categories:   append([]string{casestudy.AllCategories}, p.kb.CategoryNames()[1:]...),
			Progress:     p.svc.Cases.Progress(sess),
			Attempts:     sess.Cases,
		},
	})
}

type casePage struct {
	View    service.CaseView
	Content template.HTML
	Checked map[string]bool
}

// Case /cases/{id}：提交之前不显示诊断
func (p *PageHandler) Case(w http.ResponseWriter, r *http.Request, sess *domain.Session, id string) {
	var errMsg string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		in := casestudy.AttemptInput{
			Observations: r.PostForm.Get("observations"),
			Checked:      r.PostForm["checked"],
			Diagnosis:    r.PostForm.Get("diagnosis"),
			Submit:       r.PostForm.Get("action") == "submit",
		}
		if _, err := p.svc.Cases.Attempt(r.Context(), sess, id, in); err != nil {
			errMsg = err.Error()
			break
		}
		flash := "Progress saved"
		if in.Submit {
			flash = "Analysis submitted"
		}
		p.saveAndRedirect(w, r, sess, "/cases/"+id, flash)
		return
	default:
		methodNotAllowed(w)
		return
	}

	view, err := p.svc.Cases.Get(sess, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	content, err := p.md.HTML(render.CaseMarkdown(view.Case, view.Attempt.Submitted))
	if err != nil {
		p.logger.Error("Failed to render case", zap.String("case_id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	p.render(w, r, "case", pageData{
		Title:  view.Case.Title,
		Active: "/cases",
		Error:  errMsg,
		Data:   casePage{View: view, Content: content, Checked: view.Attempt.Checklist},
	})
}

type reportPage struct {
	Text       string
	Summary    quality.Overall
	Impression string
}

// Report /report
func (p *PageHandler) Report(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		p.svc.Report.SetImpression(r.Context(), sess, r.PostForm.Get("impression"))
		p.saveAndRedirect(w, r, sess, "/report", "Impression saved")
		return
	default:
		methodNotAllowed(w)
		return
	}
	p.render(w, r, "report", pageData{
		Title: "Generate Report",
		Data: reportPage{
			Text:       p.svc.Report.Text(sess),
			Summary:    p.svc.Quality.Summary(sess),
			Impression: sess.Impression,
		},
	})
}

// Knowledge /knowledge
func (p *PageHandler) Knowledge(w http.ResponseWriter, r *http.Request) {
	content, err := p.md.HTML(render.KnowledgeMarkdown(p.kb))
	if err != nil {
		p.logger.Error("Failed to render knowledge base", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	p.render(w, r, "knowledge", pageData{Title: "Knowledge Base", Data: content})
}

type toolsPage struct {
	CTR      *domain.CTRMeasurement
	Analysis *service.ImageAnalysis
}

// Tools /tools：CTR 写入会话；影像分析结果直接展示不保存
func (p *PageHandler) Tools(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var errMsg string
	data := toolsPage{}
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			req, err := readImageRequest(w, r, p.maxUpload)
			if err != nil {
				errMsg = err.Error()
				break
			}
			req.Equalize = r.FormValue("equalize") != ""
			req.Invert = r.FormValue("invert") != ""
			req.Edges = r.FormValue("edges") != ""
			req.Compare = r.FormValue("compare") != ""
			req.Overlay = r.FormValue("overlay")
			req.Adjustments = radiographAdjustments(r)
			out, err := p.svc.Image.Analyze(r.Context(), req)
			if err != nil {
				errMsg = imageErrorMessage(err)
				break
			}
			data.Analysis = out
			break
		}
		if err := r.ParseForm(); err != nil {
			errMsg = "invalid form"
			break
		}
		p.svc.Measure.CTR(r.Context(), sess, parseFloat(r.PostForm.Get("cardiac_width"), 0), parseFloat(r.PostForm.Get("thoracic_width"), 0))
		p.saveAndRedirect(w, r, sess, "/tools", "CTR measured")
		return
	default:
		methodNotAllowed(w)
		return
	}
	data.CTR = sess.CTR
	p.render(w, r, "tools", pageData{Title: "Tools", Error: errMsg, Data: data})
}

// Reset POST /reset 丢弃会话
func (p *PageHandler) Reset(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	if _, err := p.sessions.Reset(r.Context(), w, sess); err != nil {
		p.logger.Error("Failed to reset session", zap.String("session_id", sess.ID), zap.Error(err))
		http.Error(w, "failed to reset session", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, "/technical?saved="+url.QueryEscape("Session reset"), http.StatusSeeOther)
}
