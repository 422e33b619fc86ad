package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/measure"
	"cxr-learning/internal/pattern"
	"cxr-learning/internal/quality"
	"cxr-learning/internal/service"
)

// APIHandler /api/v1 JSON 接口
type APIHandler struct {
	svc       *service.Services
	kb        *knowledge.Base
	sessions  *SessionManager
	maxUpload int64
	logger    *zap.Logger
}

func NewAPIHandler(svc *service.Services, kb *knowledge.Base, sessions *SessionManager, maxUpload int64, logger *zap.Logger) *APIHandler {
	return &APIHandler{svc: svc, kb: kb, sessions: sessions, maxUpload: maxUpload, logger: logger}
}

// commit 保存会话；失败时已写出 Fail 响应
func (h *APIHandler) commit(w http.ResponseWriter, r *http.Request, sess *domain.Session) bool {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to save session"))
		return false
	}
	return true
}

// SessionInfo 会话概要
type SessionInfo struct {
	ID          string           `json:"session_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Assessed    []domain.Section `json:"assessed"`
	Regions     int              `json:"regions_reviewed"`
	Attempts    int              `json:"case_attempts"`
	CustomCases int              `json:"custom_cases"`
}

func sessionInfo(sess *domain.Session) SessionInfo {
	return SessionInfo{
		ID:          sess.ID,
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
		Assessed:    sess.Technical.Assessed(),
		Regions:     len(sess.Anatomy),
		Attempts:    len(sess.Cases),
		CustomCases: len(sess.CustomCases),
	}
}

// GET /api/v1/session
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	writeJSON(w, http.StatusOK, Ok(sessionInfo(sess)))
}

// DELETE /api/v1/session
func (h *APIHandler) ResetSession(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	fresh, err := h.sessions.Reset(r.Context(), w, sess)
	if err != nil {
		h.logger.Error("Failed to reset session", zap.String("session_id", sess.ID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to reset session"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(sessionInfo(fresh)))
}

// GET /api/v1/knowledge
func (h *APIHandler) GetKnowledge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.kb))
}

// TechnicalResponse 表单 + 汇总
type TechnicalResponse struct {
	Forms   []service.SectionForm `json:"forms"`
	Summary quality.Overall       `json:"summary"`
	Report  string                `json:"report"`
}

// GET /api/v1/technical
func (h *APIHandler) GetTechnical(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	writeJSON(w, http.StatusOK, Ok(TechnicalResponse{
		Forms:   h.svc.Quality.Forms(sess),
		Summary: h.svc.Quality.Summary(sess),
		Report:  h.svc.Report.Technical(sess),
	}))
}

// POST /api/v1/technical/{section}
// body: {"rotation": "...", "findings": "..."}
func (h *APIHandler) RecordTechnical(w http.ResponseWriter, r *http.Request, sess *domain.Session, section string) {
	answers := map[string]string{}
	if err := readBodyJSON(r, maxJSONBody, &answers); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.svc.Quality.Record(r.Context(), sess, section, answers)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// GET /api/v1/anatomy
func (h *APIHandler) GetAnatomy(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"regions":  h.svc.Anatomy.Regions(sess),
		"findings": h.svc.Anatomy.Findings(sess),
	}))
}

// POST /api/v1/anatomy/{region}
func (h *APIHandler) ReviewRegion(w http.ResponseWriter, r *http.Request, sess *domain.Session, region string) {
	var req service.ReviewRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	review, err := h.svc.Anatomy.Review(r.Context(), sess, region, req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(review))
}

// MatchRequest 模式匹配输入
type MatchRequest struct {
	Features     []string `json:"features"`
	Distribution string   `json:"distribution"`
}

// POST /api/v1/patterns/match
func (h *APIHandler) MatchPatterns(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.svc.Pattern.Match(req.Features, req.Distribution)))
}

// DifferentialResponse 鉴别诊断查询结果
type DifferentialResponse struct {
	Pattern       string   `json:"pattern"`
	Distribution  string   `json:"distribution"`
	Differentials []string `json:"differentials"`
}

// GET /api/v1/patterns/differential?pattern=reticular&distribution=basal
func (h *APIHandler) Differential(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, d := q.Get("pattern"), q.Get("distribution")
	writeJSON(w, http.StatusOK, Ok(DifferentialResponse{
		Pattern:       p,
		Distribution:  d,
		Differentials: h.svc.Pattern.Differential(p, d),
	}))
}

// AnalyzeRequest 模式家族分析输入
type AnalyzeRequest struct {
	Family    string            `json:"family"`
	Selection pattern.Selection `json:"selection"`
}

// POST /api/v1/patterns/analyze
func (h *APIHandler) AnalyzePattern(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req AnalyzeRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	a, err := h.svc.Pattern.Analyze(r.Context(), sess, req.Family, req.Selection)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// CaseListResponse 病例列表
type CaseListResponse struct {
	Items      []domain.CaseRecord `json:"items"`
	Total      int                 `json:"total"`
	Categories []string            `json:"categories"`
}

// GET /api/v1/cases?difficulty=beginner&category=Pleural%20Disease
func (h *APIHandler) ListCases(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	q := r.URL.Query()
	items := h.svc.Cases.List(sess, q.Get("difficulty"), q.Get("category"))
	writeJSON(w, http.StatusOK, Ok(CaseListResponse{Items: items, Total: len(items), Categories: h.kb.CategoryNames()}))
}

// GET /api/v1/cases/{id}
func (h *APIHandler) GetCase(w http.ResponseWriter, r *http.Request, sess *domain.Session, id string) {
	view, err := h.svc.Cases.Get(sess, id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// POST /api/v1/cases/{id}/attempt
func (h *APIHandler) AttemptCase(w http.ResponseWriter, r *http.Request, sess *domain.Session, id string) {
	var in casestudy.AttemptInput
	if err := readBodyJSON(r, maxJSONBody, &in); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	a, err := h.svc.Cases.Attempt(r.Context(), sess, id, in)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// GET /api/v1/cases/progress
func (h *APIHandler) CaseProgress(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Cases.Progress(sess)))
}

// POST /api/v1/cases/custom
func (h *APIHandler) AddCustomCase(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var in casestudy.CustomCaseInput
	if err := readBodyJSON(r, maxJSONBody, &in); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	c, err := h.svc.Cases.AddCustom(r.Context(), sess, in)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

// CTRRequest 心胸比输入（像素或厘米，单位一致即可）
type CTRRequest struct {
	CardiacWidth  float64 `json:"cardiac_width"`
	ThoracicWidth float64 `json:"thoracic_width"`
}

// POST /api/v1/measure/ctr
func (h *APIHandler) MeasureCTR(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req CTRRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	m := h.svc.Measure.CTR(r.Context(), sess, req.CardiacWidth, req.ThoracicWidth)
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(m))
}

// DistanceRequest 两点距离
type DistanceRequest struct {
	P1          measure.Point `json:"p1"`
	P2          measure.Point `json:"p2"`
	PixelsPerCm float64       `json:"pixels_per_cm"`
}

// POST /api/v1/measure/distance
func (h *APIHandler) MeasureDistance(w http.ResponseWriter, r *http.Request) {
	var req DistanceRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.svc.Measure.Distance(req.P1, req.P2, req.PixelsPerCm)))
}

// POST /api/v1/images/analyze (multipart: file + 可选 options JSON)
func (h *APIHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	req, err := readImageRequest(w, r, h.maxUpload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	out, err := h.svc.Image.Analyze(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(imageErrorMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

type uploadError string

func (e uploadError) Error() string { return string(e) }

// readImageRequest 解析上传；错误信息可直接展示给用户
func readImageRequest(w http.ResponseWriter, r *http.Request, maxUpload int64) (service.ImageRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return service.ImageRequest{}, uploadError(imageErrorMessage(err))
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return service.ImageRequest{}, uploadError("No image uploaded")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return service.ImageRequest{}, uploadError(imageErrorMessage(err))
	}

	req := service.ImageRequest{}
	if opts := r.FormValue("options"); opts != "" {
		if err := json.Unmarshal([]byte(opts), &req); err != nil {
			return service.ImageRequest{}, uploadError("Invalid image options")
		}
	}
	req.Filename = hdr.Filename
	req.Data = data
	return req, nil
}

// GET /api/v1/report (text/plain)
func (h *APIHandler) GetReport(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, h.svc.Report.Text(sess))
}

// ImpressionRequest 印象
type ImpressionRequest struct {
	Impression string `json:"impression"`
}

// POST /api/v1/report/impression
func (h *APIHandler) SetImpression(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	var req ImpressionRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	h.svc.Report.SetImpression(r.Context(), sess, req.Impression)
	if !h.commit(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(sess.Impression))
}

// GET /api/v1/report/export (xlsx)
func (h *APIHandler) ExportReport(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	b, err := h.svc.Report.Workbook(r.Context(), sess)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to export report"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cxr-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
