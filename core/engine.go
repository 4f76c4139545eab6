package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/huangsam/devflow/core/classify"
	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/schema"
)

// DefaultFamilies returns every metric family in report order.
func DefaultFamilies() []Family {
	return []Family{CycleTime{}, Flow{}, Collaboration{}, Quality{}, CodeCharacteristics{}, Advanced{}}
}

// SelectFamilies keeps the families whose names are listed. An empty list keeps all.
func SelectFamilies(families []Family, names []schema.FamilyName) []Family {
	if len(names) == 0 {
		return families
	}
	var out []Family
	for _, f := range families {
		if slices.Contains(names, f.Name()) {
			out = append(out, f)
		}
	}
	return out
}

// Engine computes developer reports. It holds no per-run state and may be
// shared by concurrent callers.
type Engine struct {
	Source     contract.DataSource
	Classifier *classify.Classifier
	Metrics    contract.MetricsConfig
	Families   []Family
	Log        logrus.FieldLogger
	Workers    int
	Location   *time.Location
	Now        func() time.Time
}

// NewEngine builds an engine from a validated configuration.
func NewEngine(src contract.DataSource, cfg *contract.Config, log logrus.FieldLogger) (*Engine, error) {
	c, err := classify.New(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = contract.Log
	}
	return &Engine{
		Source:     src,
		Classifier: c,
		Metrics:    cfg.Metrics.Clone(),
		Families:   SelectFamilies(DefaultFamilies(), cfg.Families),
		Log:        log,
		Workers:    cfg.Workers,
		Now:        time.Now,
	}, nil
}

// outcome is the result-or-error of one family branch.
type outcome struct {
	name   schema.FamilyName
	result schema.FamilyResult
	err    error
}

// runFamily computes one family, turning a panic into an error.
func runFamily(ctx context.Context, f Family, in *Input) (o outcome) {
	o.name = f.Name()
	defer func() {
		if r := recover(); r != nil {
			o.result, o.err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	o.result, o.err = f.Compute(ctx, in)
	if o.err == nil && o.result == nil {
		o.err = fmt.Errorf("%s returned no result", o.name)
	}
	return o
}

// ComputeReport computes every configured family for one subject and window.
// A failing family is recorded in the report's Errors and leaves its field nil.
// The returned error is a validation error, a *contract.NotFoundError for an
// unknown subject, or the context error after cancellation.
func (e *Engine) ComputeReport(ctx context.Context, subjectID int64, end time.Time, days int) (*schema.DeveloperReport, error) {
	window, err := NewWindow(subjectID, end, days)
	if err != nil {
		return nil, err
	}
	classifier := e.Classifier
	if classifier == nil {
		classifier = classify.Default()
	}
	log := e.Log
	if log == nil {
		log = contract.Log
	}
	log = log.WithField("subject", subjectID)

	subject, err := e.Source.GetUserByID(ctx, subjectID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if contract.IsNotFound(err) {
			return nil, &contract.NotFoundError{Kind: "user", ID: fmt.Sprint(subjectID), Err: err}
		}
		return nil, fmt.Errorf("lookup subject %d: %w", subjectID, err)
	}
	if subject == nil {
		return nil, &contract.NotFoundError{Kind: "user", ID: fmt.Sprint(subjectID), Err: contract.ErrNotFound}
	}

	projects, err := e.Source.GetUserContributedProjects(ctx, subjectID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(err).WithField("resource", "projects").Warn("fetch failed, counting zero projects")
		projects = nil
	}

	in := &Input{
		Subject:    *subject,
		Window:     window,
		Projects:   projects,
		Source:     e.Source,
		Classifier: classifier,
		Metrics:    e.Metrics,
		Log:        log,
		Workers:    e.Workers,
		Location:   e.Location,
	}

	outcomes := make([]outcome, len(e.Families))
	var wg sync.WaitGroup
	for i, f := range e.Families {
		wg.Go(func() {
			// each branch writes only its own slot
			outcomes[i] = runFamily(ctx, f, in)
		})
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	report := &schema.DeveloperReport{
		SchemaVersion: schema.ReportSchemaVersion,
		RunID:         uuid.NewString(),
		Subject:       *subject,
		Window:        window,
		GeneratedAt:   now(),
		ProjectCount:  len(projects),
		Errors:        make(map[schema.FamilyName]string),
	}
	for _, o := range outcomes {
		if o.err != nil {
			log.WithError(o.err).WithField("family", o.name).Warn("metric family failed")
			report.Errors[o.name] = o.err.Error()
			continue
		}
		report.SetResult(o.result)
	}
	report.Audit = BuildAudit(report, e.Metrics.MinSamples)
	return report, nil
}
