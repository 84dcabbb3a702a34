// Package services – Pipeline
//
// This file implements Pipeline, the application-level component that turns
// one inbound message into a triage Result: language detection, then intent,
// sentiment and entity analysis in parallel, then the conversation context
// update, reply selection and event publication.
//
// Failure contract: only input errors are returned. Any panic, and the
// request deadline expiring, produce the fixed bilingual apology Result with
// a nil error. Storage and event failures are logged and never surface.
//
// Observability: Process is OpenTelemetry-instrumented and reports
// Prometheus counters from internal/metrics.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/iris-triage/internal/conversation"
	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/entity"
	"github.com/tbourn/iris-triage/internal/events"
	"github.com/tbourn/iris-triage/internal/intent"
	"github.com/tbourn/iris-triage/internal/language"
	"github.com/tbourn/iris-triage/internal/metrics"
	"github.com/tbourn/iris-triage/internal/response"
	"github.com/tbourn/iris-triage/internal/sentiment"
	"github.com/tbourn/iris-triage/internal/utils"
)

// FailureReply is the reply carried by the error Result.
const FailureReply = "ขออภัยครับ เกิดข้อผิดพลาด / Sorry, an error occurred"

// Analyzer contracts consumed by the pipeline.
type (
	LanguageDetector interface {
		Detect(text string) language.Result
	}
	IntentClassifier interface {
		Classify(text, lang string) intent.Result
	}
	SentimentScorer interface {
		Score(text, lang string) sentiment.Result
	}
	EntityExtractor interface {
		Extract(text string) []domain.Entity
	}
	// ContextStore is the part of conversation.Store used by the pipeline.
	ContextStore interface {
		UpdateContext(ctx context.Context, t conversation.Turn) (*domain.ConversationContext, error)
		GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	}
)

// Request is one inbound message.
type Request struct {
	Text        string
	UserID      string
	SessionID   string // empty starts a new session
	Platform    string // empty means domain.DefaultPlatform
	DisplayName string
}

// Result is the outcome of one pipeline run.
type Result struct {
	MessageID           string                      `json:"message_id,omitempty"`
	SessionID           string                      `json:"session_id,omitempty"`
	Intent              string                      `json:"intent"`
	IntentConfidence    float64                     `json:"intent_confidence"`
	Sentiment           string                      `json:"sentiment"`
	SentimentScore      float64                     `json:"sentiment_score"`
	SentimentConfidence float64                     `json:"sentiment_confidence"`
	Language            string                      `json:"language"`
	LanguageConfidence  float64                     `json:"language_confidence"`
	Alternatives        []language.Alternative      `json:"alternatives"`
	DetectionMethod     string                      `json:"detection_method,omitempty"`
	CulturalContext     string                      `json:"cultural_context,omitempty"`
	Entities            []domain.Entity             `json:"entities"`
	ResponseText        string                      `json:"response_text"`
	ProcessingTimeMs    float64                     `json:"processing_time_ms"`
	LowConfidence       bool                        `json:"low_confidence"`
	Context             *domain.ConversationContext `json:"context_snapshot,omitempty"`
}

// Pipeline coordinates the analyzers, the context store and the reply
// selector. Zero-valued optional fields take defaults; Store and Selector
// are required.
type Pipeline struct {
	Detector   LanguageDetector
	Classifier IntentClassifier
	Scorer     SentimentScorer
	Extractor  EntityExtractor
	Store      ContextStore
	Selector   response.Selector
	Publisher  events.Publisher

	// Thresholds below which a result is flagged LowConfidence.
	IntentThreshold    float64
	SentimentThreshold float64

	// Optional guards
	MaxInputRunes  int
	RequestTimeout time.Duration

	now func() time.Time
}

// NewPipeline returns a Pipeline with the built-in analyzers, no event
// publication and the default thresholds.
func NewPipeline(store ContextStore, sel response.Selector) *Pipeline {
	return &Pipeline{
		Detector:           language.NewDetector(),
		Classifier:         intent.NewClassifier(),
		Scorer:             sentiment.NewScorer(sentiment.NewVader()),
		Extractor:          entity.NewExtractor(),
		Store:              store,
		Selector:           sel,
		Publisher:          events.Nop{},
		IntentThreshold:    0.85,
		SentimentThreshold: 0.80,
		MaxInputRunes:      4000,
		RequestTimeout:     30 * time.Second,
	}
}

var tracer = otel.Tracer("services/Pipeline")

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Validate applies the input checks of Process without running it.
func (p *Pipeline) Validate(req Request) (text string, err error) {
	if strings.TrimSpace(req.UserID) == "" {
		return "", ErrMissingUser
	}
	text = utils.NormalizeText(req.Text)
	if text == "" {
		return "", ErrEmptyInput
	}
	if p.MaxInputRunes > 0 && utils.RuneLen(text) > p.MaxInputRunes {
		return "", ErrInputTooLong
	}
	if req.Platform != "" && !domain.ValidPlatform(req.Platform) {
		return "", ErrUnknownPlatform
	}
	return text, nil
}

// Process runs one message through the pipeline. Only input errors are
// returned; every other failure yields the apology Result.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	start := p.clock()
	text, err := p.Validate(req)
	if err != nil {
		return nil, err
	}
	req.Text = text
	req.UserID = strings.TrimSpace(req.UserID)
	if req.SessionID == "" {
		req.SessionID = conversation.NewSessionID(req.UserID, start)
	}
	if req.Platform == "" {
		req.Platform = domain.DefaultPlatform
	}

	ctx, span := tracer.Start(ctx, "Process", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("session.id", req.SessionID),
		attribute.String("platform", req.Platform),
	))
	defer span.End()

	if p.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.RequestTimeout)
		defer cancel()
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := p.run(ctx, req, start)
		done <- outcome{res: res, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		select {
		case o = <-done:
		default:
			o = outcome{err: fmt.Errorf("request abandoned: %w", ctx.Err())}
		}
	}

	if o.err != nil {
		reason := "panic"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		span.RecordError(o.err)
		span.SetStatus(codes.Error, reason)
		metrics.PipelineFailures.WithLabelValues(reason).Inc()
		metrics.ProcessingDuration.WithLabelValues("failure").Observe(p.clock().Sub(start).Seconds())
		log.Error().Err(o.err).Str("user_id", req.UserID).Str("session_id", req.SessionID).
			Str("reason", reason).Msg("pipeline failed; returning apology")
		return p.failure(req.SessionID, start), nil
	}

	span.SetAttributes(
		attribute.String("intent", o.res.Intent),
		attribute.String("language", o.res.Language),
	)
	metrics.MessagesProcessed.WithLabelValues(o.res.Intent, o.res.Language).Inc()
	metrics.ProcessingDuration.WithLabelValues("success").Observe(o.res.ProcessingTimeMs / 1000)
	return o.res, nil
}

// run does the work of Process. Panics raised in the analyzer goroutines are
// returned as errors; panics on this goroutine are recovered by Process.
func (p *Pipeline) run(ctx context.Context, req Request, start time.Time) (*Result, error) {
	det := p.detector().Detect(req.Text)
	if det.Method == language.MethodFallback {
		metrics.Degraded.WithLabelValues("language").Inc()
	}
	lang := det.Language

	var (
		ir   intent.Result
		sr   sentiment.Result
		ents []domain.Entity
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(safely("intent", func() { ir = p.classifier().Classify(req.Text, lang) }))
	g.Go(safely("sentiment", func() { sr = p.scorer().Score(req.Text, lang) }))
	g.Go(safely("entities", func() { ents = p.extractor().Extract(req.Text) }))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ents == nil {
		ents = []domain.Entity{}
	}
	if lang != domain.LangThai && sr.Method == sentiment.MethodKeyword {
		metrics.Degraded.WithLabelValues("sentiment").Inc()
	}

	hints := response.Hints{Name: req.DisplayName, Text: req.Text}
	replyLang := lang
	if profile, err := p.Store.GetUserProfile(ctx, req.UserID); err == nil {
		if hints.Name == "" {
			hints.Name = profile.Name
		}
		if replyLang == domain.LangUnknown {
			replyLang = profile.PreferredLanguage
		}
	}
	reply := p.Selector.Select(ir.Intent, replyLang, hints)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messageID := uuid.NewString()
	snapshot, err := p.Store.UpdateContext(ctx, conversation.Turn{
		UserID:           req.UserID,
		SessionID:        req.SessionID,
		MessageID:        messageID,
		Text:             req.Text,
		Platform:         req.Platform,
		DisplayName:      req.DisplayName,
		Language:         lang,
		Intent:           ir.Intent,
		IntentConfidence: ir.Confidence,
		Sentiment:        sr.Sentiment,
		SentimentScore:   sr.Score,
		Entities:         ents,
		Response:         reply,
		Timestamp:        start,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		MessageID:           messageID,
		SessionID:           req.SessionID,
		Intent:              ir.Intent,
		IntentConfidence:    ir.Confidence,
		Sentiment:           sr.Sentiment,
		SentimentScore:      sr.Score,
		SentimentConfidence: sr.Confidence,
		Language:            lang,
		LanguageConfidence:  det.Confidence,
		Alternatives:        alternatives(det.Alternatives),
		DetectionMethod:     det.Method,
		CulturalContext:     det.CulturalContext,
		Entities:            ents,
		ResponseText:        reply,
		LowConfidence:       ir.Confidence < p.IntentThreshold || sr.Confidence < p.SentimentThreshold,
		Context:             snapshot,
		ProcessingTimeMs:    elapsedMs(start, p.clock()),
	}

	p.publish(ctx, req, res)
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, req Request, res *Result) {
	if p.Publisher == nil || ctx.Err() != nil {
		return
	}
	ev := events.TriageEvent{
		MessageID:      res.MessageID,
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Platform:       req.Platform,
		Language:       res.Language,
		Intent:         res.Intent,
		Confidence:     res.IntentConfidence,
		Sentiment:      res.Sentiment,
		SentimentScore: res.SentimentScore,
		Timestamp:      p.clock().UTC(),
	}
	if res.Context != nil {
		ev.UnresolvedIssues = res.Context.UnresolvedIssues
		ev.RecommendedActions = res.Context.Insights.RecommendedActions
	}

	if err := p.Publisher.PublishProcessed(ctx, ev); err != nil {
		metrics.EventPublishFailures.WithLabelValues(events.SubjectProcessed).Inc()
		log.Warn().Err(err).Str("message_id", res.MessageID).Msg("publishing processed event failed")
	}
	if !needsEscalation(res.Context) {
		return
	}
	metrics.Escalations.Inc()
	if err := p.Publisher.PublishEscalation(ctx, ev); err != nil {
		metrics.EventPublishFailures.WithLabelValues(events.SubjectEscalation).Inc()
		log.Warn().Err(err).Str("message_id", res.MessageID).Msg("publishing escalation event failed")
	}
}

// needsEscalation reports whether a human should take over. Insights are
// computed before the current turn is recorded as an issue, so a turn that
// opens the first issue is checked against the issue list directly.
func needsEscalation(c *domain.ConversationContext) bool {
	if c == nil {
		return false
	}
	for _, a := range c.Insights.RecommendedActions {
		if a == conversation.ActionEscalate {
			return true
		}
	}
	for _, issue := range c.UnresolvedIssues {
		if issue == c.CurrentIntent {
			return true
		}
	}
	return false
}

func (p *Pipeline) failure(sessionID string, start time.Time) *Result {
	return &Result{
		SessionID:        sessionID,
		Intent:           domain.IntentError,
		IntentConfidence: 0,
		Sentiment:        domain.SentimentNeutral,
		SentimentScore:   0.5,
		Language:         domain.LangUnknown,
		Alternatives:     []language.Alternative{},
		Entities:         []domain.Entity{},
		ResponseText:     FailureReply,
		ProcessingTimeMs: elapsedMs(start, p.clock()),
	}
}

func alternatives(in []language.Alternative) []language.Alternative {
	if in == nil {
		return []language.Alternative{}
	}
	return in
}

func safely(name string, fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s analyzer panicked: %v", name, r)
			}
		}()
		fn()
		return nil
	}
}

func elapsedMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000
}

func (p *Pipeline) detector() LanguageDetector {
	if p.Detector == nil {
		return language.NewDetector()
	}
	return p.Detector
}

func (p *Pipeline) classifier() IntentClassifier {
	if p.Classifier == nil {
		return intent.NewClassifier()
	}
	return p.Classifier
}

func (p *Pipeline) scorer() SentimentScorer {
	if p.Scorer == nil {
		return sentiment.NewScorer(sentiment.NewVader())
	}
	return p.Scorer
}

func (p *Pipeline) extractor() EntityExtractor {
	if p.Extractor == nil {
		return entity.NewExtractor()
	}
	return p.Extractor
}
