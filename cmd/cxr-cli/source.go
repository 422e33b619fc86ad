package main

import (
	"errors"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/client"
	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/measure"
	"cxr-learning/internal/pattern"
)

var errNeedsServer = errors.New("this command needs a running server (--server or CXR_SERVER)")

// source 离线（知识库）与在线（API）两种实现
type source interface {
	Knowledge() (*knowledge.Base, error)
	Cases(difficulty, category string) ([]domain.CaseRecord, error)
	Case(id string) (domain.CaseRecord, error)
	CTR(cardiacWidth, thoracicWidth float64) (domain.CTRMeasurement, error)
	Match(features []string, distribution string) ([]pattern.Score, error)
	Differential(p, distribution string) ([]string, error)
	SetImpression(text string) error
	Report() (string, error)
	ExportReport() ([]byte, error)
}

type localSource struct {
	kb      *knowledge.Base
	library *casestudy.Library
	matcher *pattern.Matcher
}

func newLocalSource(kb *knowledge.Base) *localSource {
	return &localSource{kb: kb, library: casestudy.NewLibrary(kb), matcher: pattern.NewMatcher(kb.Patterns)}
}

func (s *localSource) Knowledge() (*knowledge.Base, error) { return s.kb, nil }

func (s *localSource) Cases(difficulty, category string) ([]domain.CaseRecord, error) {
	return s.library.Filter(difficulty, category, nil), nil
}

func (s *localSource) Case(id string) (domain.CaseRecord, error) {
	return s.library.Get(id, nil)
}

func (s *localSource) CTR(cardiacWidth, thoracicWidth float64) (domain.CTRMeasurement, error) {
	return measure.CalculateCTR(cardiacWidth, thoracicWidth), nil
}

func (s *localSource) Match(features []string, distribution string) ([]pattern.Score, error) {
	return s.matcher.Ranked(features, distribution), nil
}

func (s *localSource) Differential(p, distribution string) ([]string, error) {
	return pattern.Differential(s.kb, p, distribution), nil
}

func (s *localSource) SetImpression(string) error    { return errNeedsServer }
func (s *localSource) Report() (string, error)       { return "", errNeedsServer }
func (s *localSource) ExportReport() ([]byte, error) { return nil, errNeedsServer }

type remoteSource struct {
	c *client.Client
}

func (s *remoteSource) Knowledge() (*knowledge.Base, error) { return s.c.Knowledge() }

func (s *remoteSource) Cases(difficulty, category string) ([]domain.CaseRecord, error) {
	out, err := s.c.Cases(difficulty, category)
	return out.Items, err
}

func (s *remoteSource) Case(id string) (domain.CaseRecord, error) {
	view, err := s.c.Case(id)
	return view.Case, err
}

func (s *remoteSource) CTR(cardiacWidth, thoracicWidth float64) (domain.CTRMeasurement, error) {
	return s.c.CTR(cardiacWidth, thoracicWidth)
}

func (s *remoteSource) Match(features []string, distribution string) ([]pattern.Score, error) {
	return s.c.Match(features, distribution)
}

func (s *remoteSource) Differential(p, distribution string) ([]string, error) {
	return s.c.Differential(p, distribution)
}

func (s *remoteSource) SetImpression(text string) error { return s.c.SetImpression(text) }
func (s *remoteSource) Report() (string, error)         { return s.c.Report() }
func (s *remoteSource) ExportReport() ([]byte, error)   { return s.c.ExportReport() }
