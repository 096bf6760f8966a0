// Package generate orchestrates document generation: fetch the case record
// and template bytes, fill or assemble, persist the output, and report fill
// statistics.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"scriba/internal/audit"
	"scriba/internal/mapping"
	"scriba/internal/masterdata"
	"scriba/internal/pdffill"
	"scriba/internal/platform/metrics"
	"scriba/internal/platform/middleware"
	dErrors "scriba/pkg/domain-errors"
)

// RecordProvider fetches the master record for a case.
type RecordProvider interface {
	Get(ctx context.Context, caseID string) (masterdata.Record, error)
}

// TemplateSource fetches template bytes by filename.
type TemplateSource interface {
	Download(ctx context.Context, filename string) ([]byte, error)
}

// BlobStore persists generated documents.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) error
}

// URLSigner issues time-limited retrieval URLs for stored documents.
type URLSigner interface {
	SignedURL(path string, ttl time.Duration) (string, error)
}

// Assembler builds the combined Power-of-Attorney bundle.
type Assembler interface {
	Assemble(ctx context.Context, rec masterdata.Record) ([]byte, pdffill.Result, int, error)
	Preview(ctx context.Context, rec masterdata.Record) ([]pdffill.FieldPreview, pdffill.Result, int, error)
}

// Stats is the caller-facing summary of one generation.
type Stats struct {
	Filled   int `json:"filled"`
	Total    int `json:"total"`
	FillRate int `json:"fill_rate"`
	Pages    int `json:"pages"`
}

// Result is a successful generation: where the document lives and how full
// it is.
type Result struct {
	URL   string
	Path  string
	Stats Stats
}

// PreviewResult classifies every declared field without producing output.
type PreviewResult struct {
	Fields []pdffill.FieldPreview
	Stats  Stats
}

// Service runs the generation pipeline. Each request is a short-lived,
// stateless unit of work; the only shared state is immutable configuration.
type Service struct {
	records   RecordProvider
	templates TemplateSource
	blobs     BlobStore
	signer    URLSigner
	filler    *pdffill.Filler
	engine    pdffill.Engine
	assembler Assembler

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
	urlTTL  time.Duration
	timeout time.Duration
	tracer  trace.Tracer

	// Concurrent identical requests coalesce onto one pipeline run. Purely an
	// optimization: results are identical either way.
	group singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithURLTTL(ttl time.Duration) Option {
	return func(s *Service) { s.urlTTL = ttl }
}

// WithTimeout bounds one shared pipeline run.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New constructs a Service.
func New(
	records RecordProvider,
	templates TemplateSource,
	blobs BlobStore,
	signer URLSigner,
	engine pdffill.Engine,
	filler *pdffill.Filler,
	assembler Assembler,
	opts ...Option,
) *Service {
	s := &Service{
		records:   records,
		templates: templates,
		blobs:     blobs,
		signer:    signer,
		engine:    engine,
		filler:    filler,
		assembler: assembler,
		logger:    slog.Default(),
		urlTTL:    15 * time.Minute,
		timeout:   30 * time.Second,
		tracer:    otel.Tracer("scriba/generate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate fills the requested template for the case and persists the result.
// A missing record is not an error: a case may request a document before any
// data entry, yielding a blank-but-valid document.
func (s *Service) Generate(ctx context.Context, caseID, templateType string, flatten bool) (*Result, error) {
	desc, err := mapping.Lookup(templateType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	key := caseID + "|" + string(desc.Kind) + "|" + strconv.FormatBool(flatten)
	v, err, _ := s.group.Do(key, func() (any, error) {
		// The run is shared by every coalesced caller, so it must not inherit
		// any single caller's cancellation; a suppressed caller whose own
		// request is still alive would otherwise fail with it. The service's
		// own timeout bounds the detached run instead.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.generate(runCtx, caseID, desc, flatten)
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	var fillRate int
	if res, ok := v.(*Result); ok && res != nil {
		fillRate = res.Stats.FillRate
	}
	s.metrics.ObserveGeneration(string(desc.Kind), outcome, time.Since(start), fillRate)

	if err != nil {
		return nil, err
	}
	res := v.(*Result)
	s.emit(ctx, audit.ActionGenerated, caseID, desc.Kind, outcome, res.Stats)
	return res, nil
}

func (s *Service) generate(ctx context.Context, caseID string, desc *mapping.Descriptor, flatten bool) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "generate",
		trace.WithAttributes(
			attribute.String("case_id", caseID),
			attribute.String("template", string(desc.Kind)),
			attribute.Bool("flatten", flatten),
		))
	defer span.End()

	rec := s.fetchRecord(ctx, caseID)

	var (
		doc   []byte
		res   pdffill.Result
		pages int
		err   error
	)
	if desc.Kind == mapping.KindPOACombined {
		doc, res, pages, err = s.assembler.Assemble(ctx, rec)
	} else {
		doc, res, pages, err = s.fillSingle(ctx, desc, rec)
	}
	if err != nil {
		return nil, err
	}

	if flatten {
		doc, err = s.engine.Lock(ctx, doc)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "lock document", err)
		}
	}

	path := fmt.Sprintf("cases/%s/documents/%s-%s.pdf", caseID, desc.Kind, uuid.NewString())
	if err := s.blobs.Upload(ctx, path, doc); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "store document", err)
	}

	url, err := s.signer.SignedURL(path, s.urlTTL)
	if err != nil {
		return nil, err
	}

	stats := Stats{Filled: res.Filled, Total: res.Total, FillRate: res.FillRate(), Pages: pages}
	s.logger.InfoContext(ctx, "document generated",
		"request_id", middleware.GetRequestID(ctx),
		"case_id", caseID,
		"template", desc.Kind,
		"pages", pages,
		"fill_rate", stats.FillRate,
	)
	return &Result{URL: url, Path: path, Stats: stats}, nil
}

func (s *Service) fillSingle(ctx context.Context, desc *mapping.Descriptor, rec masterdata.Record) ([]byte, pdffill.Result, int, error) {
	tpl, err := s.templates.Download(ctx, desc.Filename)
	if err != nil {
		return nil, pdffill.Result{}, 0, err
	}
	doc, res, err := s.filler.Fill(ctx, tpl, desc, rec)
	if err != nil {
		return nil, pdffill.Result{}, 0, dErrors.Wrap(dErrors.CodeInternal, "fill "+string(desc.Kind), err)
	}
	return doc, res, 1, nil
}

// Preview classifies every declared field using the identical resolution path
// as Generate, without producing or persisting a document.
func (s *Service) Preview(ctx context.Context, caseID, templateType string) (*PreviewResult, error) {
	desc, err := mapping.Lookup(templateType)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "preview",
		trace.WithAttributes(
			attribute.String("case_id", caseID),
			attribute.String("template", string(desc.Kind)),
		))
	defer span.End()

	rec := s.fetchRecord(ctx, caseID)

	var (
		fields []pdffill.FieldPreview
		res    pdffill.Result
		pages  int
	)
	if desc.Kind == mapping.KindPOACombined {
		fields, res, pages, err = s.assembler.Preview(ctx, rec)
	} else {
		var tpl []byte
		tpl, err = s.templates.Download(ctx, desc.Filename)
		if err == nil {
			fields, res, err = s.filler.Preview(ctx, tpl, desc, rec)
			pages = 1
		}
	}
	if err != nil {
		return nil, err
	}

	stats := Stats{Filled: res.Filled, Total: res.Total, FillRate: res.FillRate(), Pages: pages}
	s.emit(ctx, audit.ActionPreviewed, caseID, desc.Kind, "success", stats)
	return &PreviewResult{Fields: fields, Stats: stats}, nil
}

// fetchRecord downgrades a missing record to an empty one; anything the
// provider fails on otherwise is also downgraded, logged, and reported via
// fill statistics rather than failing the request.
func (s *Service) fetchRecord(ctx context.Context, caseID string) masterdata.Record {
	rec, err := s.records.Get(ctx, caseID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "record fetch failed, proceeding with empty record",
				"case_id", caseID,
				"error", err.Error(),
			)
		}
		return masterdata.Record{}
	}
	return rec
}

// emit publishes an audit event fail-open: a broken audit pipeline must never
// fail a generation that already succeeded.
func (s *Service) emit(ctx context.Context, action audit.Action, caseID string, kind mapping.Kind, outcome string, stats Stats) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		CaseID:    caseID,
		Template:  string(kind),
		RequestID: middleware.GetRequestID(ctx),
		Outcome:   outcome,
		FillRate:  stats.FillRate,
		Pages:     stats.Pages,
		Timestamp: time.Now(),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"case_id", caseID,
			"action", action,
			"error", err.Error(),
		)
	}
}
