// Package protocol defines the bus message contracts between podforge
// clients and the generation service.
package protocol

// Subjects used on the message bus.
const (
	SubjectJobRequest = "podcast.job.request"
	SubjectJobStatus  = "podcast.job.status"
	SubjectJobDone    = "podcast.job.done"
)

// Pipeline stages reported over SubjectJobStatus.
const (
	StageAccepted     = "accepted"
	StageEnhancing    = "enhancing"
	StageParsing      = "parsing"
	StageSynthesizing = "synthesizing"
	StageAssembling   = "assembling"
	StagePersisting   = "persisting"
	StageDone         = "done"
	StageFailed       = "failed"
)

// RoleOverride lets a single job replace a configured role voice.
type RoleOverride struct {
	Role  string `json:"role"` // host, guest, narrator
	Name  string `json:"name,omitempty"`
	Voice string `json:"voice"`
	Style string `json:"style,omitempty"`
}

// JobRequest asks the service to turn a dialogue script into audio.
// Engine and Format default to the server configuration when empty.
type JobRequest struct {
	TaskID string         `json:"task_id,omitempty"`
	Script string         `json:"script"`
	Roles  []RoleOverride `json:"roles,omitempty"`
}

// JobStatus is a progress update for a running job.
type JobStatus struct {
	TaskID     string `json:"task_id"`
	Stage      string `json:"stage"`
	Batch      int    `json:"batch,omitempty"`
	BatchCount int    `json:"batch_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JobResult reports a finished job on SubjectJobDone. On failure Error
// is set and AudioPath is empty; partial audio is never reported.
type JobResult struct {
	Message   string `json:"message"`
	TaskID    string `json:"task_id"`
	Script    string `json:"script,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
	Engine    string `json:"engine"`
	Format    string `json:"format,omitempty"`
	Error     string `json:"error,omitempty"`
}
