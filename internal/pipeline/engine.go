// Package pipeline orchestrates script-to-audio generation: enhance,
// parse, resolve voices, batch, synthesize, assemble, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/podforge/podforge-core/internal/audio"
	"github.com/podforge/podforge-core/internal/batch"
	"github.com/podforge/podforge-core/internal/config"
	"github.com/podforge/podforge-core/internal/enhance"
	"github.com/podforge/podforge-core/internal/protocol"
	"github.com/podforge/podforge-core/internal/script"
	"github.com/podforge/podforge-core/internal/store"
	"github.com/podforge/podforge-core/internal/synth"
	"github.com/podforge/podforge-core/internal/voices"
)

// ErrEmptyScript rejects jobs whose script has no content.
var ErrEmptyScript = errors.New("script is empty")

// ErrScriptTooLarge rejects jobs whose script exceeds the configured
// byte limit.
var ErrScriptTooLarge = errors.New("script exceeds size limit")

// Job is one generation request. Roles, when non-nil, replaces the
// configured role table for this job only. StatusFn, when set,
// receives stage transitions as they happen.
type Job struct {
	TaskID   string
	Script   string
	Roles    *config.RolesConfig
	StatusFn func(stage string, batchIndex, batchCount int)
}

// Engine runs generation jobs end to end. Batches are synthesized
// strictly in order with a pacing delay between vendor rounds; within a
// batch, single-speaker backends voice utterances in parallel. A
// failed batch fails the whole job and no partial audio is persisted.
type Engine struct {
	cfg     config.Config
	backend synth.Backend
	enh     enhance.Generator
	store   *store.Store
	log     *slog.Logger

	jobsTotal    metric.Int64Counter
	jobsFailed   metric.Int64Counter
	batchesTotal metric.Int64Counter
	jobSeconds   metric.Float64Histogram
}

// New builds an engine. enh may be nil when enhancement is disabled.
func New(cfg config.Config, backend synth.Backend, enh enhance.Generator, st *store.Store, log *slog.Logger) *Engine {
	e := &Engine{
		cfg:     cfg,
		backend: backend,
		enh:     enh,
		store:   st,
		log:     log.With(slog.String("component", "pipeline")),
	}

	meter := otel.Meter("github.com/podforge/podforge-core/runtime")
	e.jobsTotal, _ = meter.Int64Counter("podforge.jobs.total",
		metric.WithDescription("Generation jobs started"))
	e.jobsFailed, _ = meter.Int64Counter("podforge.jobs.failed",
		metric.WithDescription("Generation jobs that ended in error"))
	e.batchesTotal, _ = meter.Int64Counter("podforge.batches.total",
		metric.WithDescription("Synthesis batches sent to the backend"))
	e.jobSeconds, _ = meter.Float64Histogram("podforge.job.duration_seconds",
		metric.WithDescription("End-to-end job duration"))
	return e
}

func (e *Engine) retryPolicy() synth.RetryPolicy {
	return synth.RetryPolicy{
		MaxAttempts: e.cfg.Pipeline.RetryMaxAttempts,
		BaseDelay:   time.Duration(e.cfg.Pipeline.RetryBaseDelayMS) * time.Millisecond,
	}
}

// Run executes one job and returns the persisted artifact.
func (e *Engine) Run(ctx context.Context, job Job) (store.Artifact, error) {
	start := time.Now()
	caps := e.backend.Capabilities()
	e.jobsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", caps.Name)))

	art, err := e.run(ctx, job, caps)
	e.jobSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("engine", caps.Name)))
	if err != nil {
		e.jobsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", caps.Name)))
		return store.Artifact{}, err
	}
	return art, nil
}

func (e *Engine) run(ctx context.Context, job Job, caps synth.Capabilities) (store.Artifact, error) {
	text := strings.TrimSpace(job.Script)
	if text == "" {
		return store.Artifact{}, ErrEmptyScript
	}
	if len(job.Script) > e.cfg.Pipeline.MaxScriptBytes {
		return store.Artifact{}, fmt.Errorf("%w: %d bytes, limit %d",
			ErrScriptTooLarge, len(job.Script), e.cfg.Pipeline.MaxScriptBytes)
	}

	taskID := job.TaskID
	if taskID == "" {
		taskID = e.store.NewTaskID()
	}
	status := func(stage string, batchIdx, batchCount int) {
		if job.StatusFn != nil {
			job.StatusFn(stage, batchIdx, batchCount)
		}
	}
	log := e.log.With(slog.String("task_id", taskID))

	if e.enh != nil {
		status(protocol.StageEnhancing, 0, 0)
		enhanced, err := e.enh.Enhance(ctx, text)
		if err != nil {
			log.Warn("script enhancement failed, using raw script", slogError(err))
		} else {
			text = enhanced
		}
	}

	status(protocol.StageParsing, 0, 0)
	utterances := script.Parse(text)
	if len(utterances) == 0 {
		return store.Artifact{}, ErrEmptyScript
	}

	roles := e.cfg.Roles
	if job.Roles != nil {
		roles = *job.Roles
	}
	mapping, err := voices.Resolve(utterances, roles, e.maxSpeakers(caps))
	if err != nil {
		return store.Artifact{}, fmt.Errorf("resolve voices: %w", err)
	}

	estimate := func(u script.Utterance) time.Duration {
		return batch.Estimate(u.Text, e.cfg.Pipeline.WordsPerMinute)
	}
	batches := batch.Split(utterances,
		time.Duration(e.cfg.Pipeline.MaxBatchSeconds)*time.Second, estimate)

	log.Info("job accepted",
		slog.Int("utterances", len(utterances)),
		slog.Int("speakers", mapping.Len()),
		slog.Int("batches", len(batches)),
		slog.String("engine", caps.Name))

	// One token per inter-batch delay keeps vendor rounds paced without
	// penalizing the first batch.
	limiter := rate.NewLimiter(
		rate.Every(time.Duration(e.cfg.Pipeline.InterBatchDelayMS)*time.Millisecond), 1)

	results := make([]synth.Result, len(batches))
	for i, b := range batches {
		if err := limiter.Wait(ctx); err != nil {
			return store.Artifact{}, err
		}
		status(protocol.StageSynthesizing, i, len(batches))

		res, err := e.synthesizeBatch(ctx, caps, mapping, i, b)
		if err != nil {
			return store.Artifact{}, err
		}
		results[i] = res
		e.batchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", caps.Name)))
		log.Debug("batch synthesized",
			slog.Int("batch", i),
			slog.String("size", humanize.Bytes(uint64(len(res.Audio)))))
	}

	status(protocol.StageAssembling, 0, len(batches))
	assembler := audio.NewAssembler(caps.SampleRate, caps.Channels)
	combined, err := assembler.Assemble(results)
	if err != nil {
		return store.Artifact{}, err
	}
	if caps.Format == synth.FormatPCM {
		if err := audio.ValidateWAV(combined, caps.SampleRate, caps.Channels); err != nil {
			return store.Artifact{}, fmt.Errorf("assembled artifact: %w", err)
		}
	}

	status(protocol.StagePersisting, 0, len(batches))
	art, err := e.store.Save(ctx, store.Artifact{
		TaskID: taskID,
		Script: text,
		Engine: caps.Name,
		Format: e.cfg.Engine.Format,
		Audio:  combined,
	})
	if err != nil {
		return store.Artifact{}, err
	}

	log.Info("job complete",
		slog.String("path", art.AudioPath),
		slog.String("size", humanize.Bytes(uint64(len(combined)))),
		slog.Duration("elapsed", time.Since(art.CreatedAt)))
	return art, nil
}

// maxSpeakers is the tighter of the backend cap and the configured cap.
func (e *Engine) maxSpeakers(caps synth.Capabilities) int {
	limit := 0
	if caps.MultiSpeaker && caps.MaxSpeakers > 0 {
		limit = caps.MaxSpeakers
	}
	if c := e.cfg.Engine.MaxSpeakers; c > 0 && (limit == 0 || c < limit) {
		limit = c
	}
	return limit
}

func (e *Engine) synthesizeBatch(ctx context.Context, caps synth.Capabilities, mapping *voices.Mapping, batchIndex int, items []script.Utterance) (synth.Result, error) {
	if caps.MultiSpeaker {
		return synth.WithRetry(ctx, e.retryPolicy(), batchIndex, func(ctx context.Context) (synth.Result, error) {
			callCtx, cancel := e.callContext(ctx)
			defer cancel()
			return e.backend.SynthesizeBatch(callCtx, synth.BatchRequest{
				Utterances: items,
				Speakers:   mapping.Ordered(),
			})
		})
	}
	return e.synthesizeUtterances(ctx, mapping, batchIndex, items)
}

// synthesizeUtterances voices a batch one utterance per vendor call,
// in parallel, then joins the results in utterance order.
func (e *Engine) synthesizeUtterances(ctx context.Context, mapping *voices.Mapping, batchIndex int, items []script.Utterance) (synth.Result, error) {
	parts := make([]synth.Result, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, u := range items {
		sv, ok := mapping.Lookup(u.Speaker)
		if !ok {
			return synth.Result{}, fmt.Errorf("batch %d: speaker %q missing from voice mapping", batchIndex, u.Speaker)
		}
		wg.Add(1)
		go func(i int, u script.Utterance, sv voices.SpeakerVoice) {
			defer wg.Done()
			parts[i], errs[i] = synth.WithRetry(ctx, e.retryPolicy(), batchIndex, func(ctx context.Context) (synth.Result, error) {
				callCtx, cancel := e.callContext(ctx)
				defer cancel()
				return e.backend.SynthesizeUtterance(callCtx, synth.UtteranceRequest{
					Text:         u.Text,
					VoiceID:      sv.VoiceID,
					Style:        sv.Style,
					OutputFormat: e.cfg.Engine.Format,
				})
			})
		}(i, u, sv)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return synth.Result{}, err
		}
	}

	total := 0
	for _, p := range parts {
		total += len(p.Audio)
	}
	joined := make([]byte, 0, total)
	for _, p := range parts {
		joined = append(joined, p.Audio...)
	}
	return synth.Result{Audio: joined, Format: parts[0].Format}, nil
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(e.cfg.Pipeline.CallTimeoutMS)*time.Millisecond)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
