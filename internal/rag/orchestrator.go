package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medassist/medassist/internal/domain/knowledge"
	"github.com/medassist/medassist/internal/domain/patient"
	"github.com/medassist/medassist/internal/domain/queryhistory"
	"github.com/medassist/medassist/internal/llm"
)

// ErrEmptyQuery is the only error Answer returns: every other failure
// along the pipeline degrades to a poorer but non-empty answer.
var ErrEmptyQuery = errors.New("query is required")

const (
	ContextAll              = "all"
	ContextPatientData      = "patient_data"
	ContextMedicalKnowledge = "medical_knowledge"
	ContextGeneral          = "general"
)

var validContextTypes = map[string]bool{
	ContextAll:              true,
	ContextPatientData:      true,
	ContextMedicalKnowledge: true,
	ContextGeneral:          true,
}

// ValidContextType reports whether s names a known retrieval scope.
func ValidContextType(s string) bool { return validContextTypes[s] }

const (
	knowledgeLimit   = 5
	contextExcerpt   = 300
	sourceExcerpt    = 200
	sourceTitleLimit = 100

	fallbackConfidence = 0.7
	fallbackModel      = "fallback"
)

// namePattern pulls a capitalized name following "patient", "patient's"
// or "for". A heuristic: it misses lowercase names and titles, which is
// acceptable for a best-effort context enrichment.
var namePattern = regexp.MustCompile(`(?i)(?:patient|patient's|for)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)

// PatientDirectory is the patient lookup the orchestrator needs.
type PatientDirectory interface {
	FindByNameFragment(ctx context.Context, fragment string) ([]*patient.Patient, error)
}

// KnowledgeStore retrieves reference material. Search never fails; at
// worst it returns nothing.
type KnowledgeStore interface {
	Search(ctx context.Context, query string, limit int, category string) []*knowledge.Entry
}

// HistoryLog records completed transactions.
type HistoryLog interface {
	Append(ctx context.Context, e *queryhistory.Entry) error
	List(ctx context.Context, limit int, patientID *int64) ([]*queryhistory.Entry, error)
}

// GenerationBackend is the language-model surface the orchestrator uses.
type GenerationBackend interface {
	Query(ctx context.Context, q llm.MedicalQuery) (*llm.Response, error)
	StreamQuery(ctx context.Context, q llm.MedicalQuery) (*llm.Stream, error)
	Status() llm.Status
	PullModel(ctx context.Context, name string) bool
}

// Source is one retrieved knowledge excerpt attached to an answer.
type Source struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category,omitempty"`
	Source   *string `json:"source,omitempty"`
}

// PatientSummary is the patient context echoed back with an answer.
type PatientSummary struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}

// Result is the full outcome of one retrieval-augmented answer.
type Result struct {
	Query            string          `json:"query"`
	Response         string          `json:"response"`
	Confidence       float64         `json:"confidence"`
	Sources          []Source        `json:"sources"`
	PatientData      *PatientSummary `json:"patient_data"`
	TokensUsed       int             `json:"tokens_used"`
	ModelUsed        string          `json:"model_used"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// Orchestrator composes retrieval, generation and history logging into
// one answer pipeline.
type Orchestrator struct {
	patients  PatientDirectory
	knowledge KnowledgeStore
	history   HistoryLog
	backend   GenerationBackend
	log       zerolog.Logger
	now       func() time.Time
}

func NewOrchestrator(patients PatientDirectory, store KnowledgeStore, history HistoryLog, backend GenerationBackend, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		patients:  patients,
		knowledge: store,
		history:   history,
		backend:   backend,
		log:       log,
		now:       time.Now,
	}
}

// Answer runs the full pipeline: extract a patient reference, retrieve
// knowledge, assemble context, generate (or fall back), and log the
// transaction. It returns an error only for a blank query; retrieval,
// generation and history failures all degrade instead of propagating.
func (o *Orchestrator) Answer(ctx context.Context, query, contextType string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if contextType == "" {
		contextType = ContextAll
	}
	start := o.now()

	var p *patient.Patient
	if contextType == ContextPatientData || contextType == ContextAll {
		p = o.lookupPatient(ctx, query)
	}

	var retrieved []*knowledge.Entry
	if contextType == ContextMedicalKnowledge || contextType == ContextAll {
		retrieved = o.knowledge.Search(ctx, query, knowledgeLimit, "")
	}

	llmContext := buildContext(p, retrieved)
	text, confidence, tokens, model := o.generate(ctx, query, p, retrieved, llmContext)

	elapsed := o.now().Sub(start).Milliseconds()
	result := &Result{
		Query:            query,
		Response:         text,
		Confidence:       confidence,
		Sources:          summarizeSources(retrieved),
		TokensUsed:       tokens,
		ModelUsed:        model,
		ProcessingTimeMs: elapsed,
	}
	if p != nil {
		result.PatientData = &PatientSummary{
			ID:          p.ID,
			Name:        p.FullName(),
			Conditions:  p.Conditions,
			Medications: p.Medications,
		}
	}

	o.record(ctx, contextType, result, p, retrieved)
	return result, nil
}

// History returns recent answer transactions.
func (o *Orchestrator) History(ctx context.Context, limit int, patientID *int64) ([]*queryhistory.Entry, error) {
	return o.history.List(ctx, limit, patientID)
}

// BackendStatus exposes the generation backend state.
func (o *Orchestrator) BackendStatus() llm.Status {
	return o.backend.Status()
}

// PullModel asks the backend to fetch a named model. Best-effort; the
// bool reports whether the pull completed.
func (o *Orchestrator) PullModel(ctx context.Context, name string) bool {
	return o.backend.PullModel(ctx, name)
}

// Stream opens a live generation stream for the query, bypassing
// retrieval context. Unlike Answer it propagates backend errors.
func (o *Orchestrator) Stream(ctx context.Context, query string) (*llm.Stream, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return o.backend.StreamQuery(ctx, llm.MedicalQuery{Text: query, TaskType: llm.TaskGeneral})
}

func (o *Orchestrator) lookupPatient(ctx context.Context, query string) *patient.Patient {
	m := namePattern.FindStringSubmatch(query)
	if m == nil {
		return nil
	}
	matches, err := o.patients.FindByNameFragment(ctx, m[1])
	if err != nil {
		o.log.Warn().Err(err).Str("name", m[1]).Msg("patient lookup failed during answer assembly")
		return nil
	}
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// generate asks the backend when it is ready, and degrades to the
// deterministic retrieval-only answer when it is not or when the call
// fails.
func (o *Orchestrator) generate(ctx context.Context, query string, p *patient.Patient, retrieved []*knowledge.Entry, llmContext string) (text string, confidence float64, tokens int, model string) {
	if o.backend.Status().Ready {
		resp, err := o.backend.Query(ctx, buildBackendQuery(query, p, llmContext))
		if err == nil {
			return resp.Text, resp.Confidence, resp.TokensUsed, resp.ModelUsed
		}
		o.log.Warn().Err(err).Msg("generation backend call failed, using retrieval-only answer")
	}
	return fallbackAnswer(p, retrieved), fallbackConfidence, 0, fallbackModel
}

func buildBackendQuery(query string, p *patient.Patient, llmContext string) llm.MedicalQuery {
	text := query
	if llmContext != "" {
		text = llmContext + "\n\nUser Question: " + query
	}

	qc := llm.QueryContext{MedicalHistory: llmContext}
	if qc.MedicalHistory == "" {
		qc.MedicalHistory = "general_query"
	}
	if p != nil {
		data := map[string]interface{}{
			"age":         p.AgeAt(time.Now()),
			"gender":      p.Gender,
			"medications": p.Medications,
		}
		if p.Notes != nil {
			data["medical_history"] = *p.Notes
		}
		qc.PatientData = data
	}
	return llm.MedicalQuery{Text: text, TaskType: llm.TaskGeneral, Context: qc}
}

// buildContext renders the retrieved material into the prose block fed
// to the generation backend.
func buildContext(p *patient.Patient, retrieved []*knowledge.Entry) string {
	var b strings.Builder
	if p != nil {
		b.WriteString("Patient Information:\n")
		fmt.Fprintf(&b, "Name: %s\n", p.FullName())
		fmt.Fprintf(&b, "DOB: %s\n", p.DOB.Format("2006-01-02"))
		fmt.Fprintf(&b, "Gender: %s\n", p.Gender)
		if len(p.Conditions) > 0 {
			fmt.Fprintf(&b, "Conditions: %s\n", strings.Join(p.Conditions, ", "))
		}
		if len(p.Medications) > 0 {
			fmt.Fprintf(&b, "Medications: %s\n", strings.Join(p.Medications, ", "))
		}
		if p.Notes != nil && *p.Notes != "" {
			fmt.Fprintf(&b, "Notes: %s\n", *p.Notes)
		}
		b.WriteString("\n")
	}

	if len(retrieved) > 0 {
		b.WriteString("Relevant Medical Knowledge:\n")
		for i, src := range retrieved {
			fmt.Fprintf(&b, "\n[Source %d] %s\n", i+1, src.Title)
			fmt.Fprintf(&b, "%s...\n", excerpt(src.Content, contextExcerpt))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// fallbackAnswer is the deterministic answer assembled from retrieval
// alone, used whenever generation is unavailable.
func fallbackAnswer(p *patient.Patient, retrieved []*knowledge.Entry) string {
	var b strings.Builder
	b.WriteString("Based on the available information:\n\n")

	if p != nil {
		fmt.Fprintf(&b, "For patient %s:\n", p.FullName())
	}

	if len(retrieved) > 0 {
		fmt.Fprintf(&b, "I found %d relevant source(s) in the medical knowledge base:\n\n", len(retrieved))
		for i, src := range retrieved {
			fmt.Fprintf(&b, "%d. %s\n", i+1, src.Title)
			fmt.Fprintf(&b, "   %s...\n\n", excerpt(src.Content, sourceExcerpt))
		}
		b.WriteString("Please consult with a healthcare professional for personalized medical advice.\n")
	} else {
		b.WriteString("I couldn't find specific information in the knowledge base for this query. ")
		b.WriteString("Please consult with a healthcare professional for accurate medical advice.\n")
	}

	b.WriteString("\nNote: This is a basic response. For more detailed analysis, please ensure the AI service is available.")
	return b.String()
}

func summarizeSources(retrieved []*knowledge.Entry) []Source {
	out := make([]Source, 0, len(retrieved))
	for _, e := range retrieved {
		out = append(out, Source{
			Title:    e.Title,
			Content:  excerpt(e.Content, sourceExcerpt),
			Category: e.Category,
			Source:   e.Source,
		})
	}
	return out
}

// record appends the transaction to history. Failure is logged and
// swallowed: the answer has already been produced and logging must not
// take it down.
func (o *Orchestrator) record(ctx context.Context, contextType string, r *Result, p *patient.Patient, retrieved []*knowledge.Entry) {
	titles := make([]string, 0, len(retrieved))
	for _, e := range retrieved {
		title := e.Title
		if title == "" {
			title = excerpt(e.Content, sourceTitleLimit)
		}
		titles = append(titles, title)
	}

	entry := &queryhistory.Entry{
		Query:            r.Query,
		Response:         r.Response,
		ContextType:      contextType,
		Confidence:       &r.Confidence,
		Sources:          titles,
		QueryType:        strptr("rag"),
		TokensUsed:       &r.TokensUsed,
		ProcessingTimeMs: &r.ProcessingTimeMs,
	}
	if p != nil {
		entry.PatientID = &p.ID
	}

	if err := o.history.Append(ctx, entry); err != nil {
		o.log.Warn().Err(err).Msg("failed to record query history")
	}
}

// excerpt truncates to at most n runes without splitting a character.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func strptr(s string) *string { return &s }
