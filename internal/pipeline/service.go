package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/podforge/podforge-core/internal/bus"
	"github.com/podforge/podforge-core/internal/config"
	"github.com/podforge/podforge-core/internal/protocol"
)

// Service subscribes to job requests on the bus and drives the engine.
type Service struct {
	engine *Engine
	bus    *bus.Client
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewService(parent context.Context, engine *Engine, busClient *bus.Client, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		engine: engine,
		bus:    busClient,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "job-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectJobRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.JobRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode job request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(req)
	}()
}

func (s *Service) runJob(req protocol.JobRequest) {
	taskID := req.TaskID
	if taskID == "" {
		taskID = s.engine.store.NewTaskID()
	}

	s.publishStatus(protocol.JobStatus{TaskID: taskID, Stage: protocol.StageAccepted})

	job := Job{
		TaskID: taskID,
		Script: req.Script,
		Roles:  s.mergeRoles(req.Roles),
		StatusFn: func(stage string, batchIdx, batchCount int) {
			s.publishStatus(protocol.JobStatus{
				TaskID:     taskID,
				Stage:      stage,
				Batch:      batchIdx,
				BatchCount: batchCount,
			})
		},
	}

	caps := s.engine.backend.Capabilities()
	art, err := s.engine.Run(s.ctx, job)
	if err != nil {
		s.logger.Warn("job failed",
			slog.String("task_id", taskID), slogError(err))
		s.publishStatus(protocol.JobStatus{TaskID: taskID, Stage: protocol.StageFailed, Error: err.Error()})
		s.publishResult(protocol.JobResult{
			Message: "generation failed",
			TaskID:  taskID,
			Engine:  caps.Name,
			Error:   err.Error(),
		})
		return
	}

	s.publishStatus(protocol.JobStatus{TaskID: taskID, Stage: protocol.StageDone})
	s.publishResult(protocol.JobResult{
		Message:   "generation complete",
		TaskID:    art.TaskID,
		Script:    art.Script,
		AudioPath: art.AudioPath,
		Engine:    art.Engine,
		Format:    art.Format,
	})
}

// mergeRoles applies per-job role overrides over the configured table.
// Returns nil when the request carries no overrides.
func (s *Service) mergeRoles(overrides []protocol.RoleOverride) *config.RolesConfig {
	if len(overrides) == 0 {
		return nil
	}
	roles := s.engine.cfg.Roles
	for _, o := range overrides {
		rc := config.RoleConfig{Name: o.Name, Voice: o.Voice, Style: o.Style}
		switch strings.ToLower(o.Role) {
		case "host":
			if rc.Name == "" {
				rc.Name = roles.Host.Name
			}
			roles.Host = rc
		case "guest":
			if rc.Name == "" {
				rc.Name = roles.Guest.Name
			}
			roles.Guest = rc
		case "narrator":
			if rc.Name == "" {
				rc.Name = roles.Narrator.Name
			}
			roles.Narrator = rc
		default:
			roles.Extras = append(roles.Extras, rc)
		}
	}
	return &roles
}

func (s *Service) publishStatus(st protocol.JobStatus) {
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn("failed to marshal job status", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectJobStatus, data); err != nil {
		s.logger.Warn("failed to publish job status", slogError(err))
	}
}

func (s *Service) publishResult(res protocol.JobResult) {
	data, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("failed to marshal job result", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectJobDone, data); err != nil {
		s.logger.Warn("failed to publish job result", slogError(err))
	}
}
