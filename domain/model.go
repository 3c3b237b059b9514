package domain

import "time"

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

type FrameRole string

const (
	SingleFrame FrameRole = "single"
	FirstFrame  FrameRole = "first-frame"
	LastFrame   FrameRole = "last-frame"
)

// ReferenceFrame is a conditioning image supplied with a scene. Data may be a
// remote URL, a data URI or raw base64; the scene processor normalizes all
// three to bytes before any provider call.
type ReferenceFrame struct {
	Role FrameRole `json:"role"`
	Data string    `json:"data"`
}

// Scene is one independently generated unit of the final video. Immutable once
// a job starts; the orchestrator only ever reads it, which is what makes a
// later retry safe without the caller resending anything.
type Scene struct {
	Index           int              `json:"index"`
	Title           string           `json:"title"`
	Prompt          string           `json:"prompt"`
	Frames          []ReferenceFrame `json:"frames,omitempty"`
	Narration       string           `json:"narration,omitempty"`
	DurationSeconds float64          `json:"duration_seconds,omitempty"`
}

// GenerationSettings is the per-job settings bag. Extra is handed to the
// chosen provider without interpretation.
type GenerationSettings struct {
	Provider    string                 `json:"provider"`
	VoiceID     string                 `json:"voice_id,omitempty"`
	MusicPrompt string                 `json:"music_prompt,omitempty"`
	WithMusic   bool                   `json:"with_music,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

type SceneResult struct {
	Index        int    `json:"index"`
	Title        string `json:"title"`
	Success      bool   `json:"success"`
	VideoURL     string `json:"video_url,omitempty"`
	NarrationURL string `json:"narration_url,omitempty"`
	MusicURL     string `json:"music_url,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Job is the mutable process-lifetime record behind one generation request.
// Results accumulate in completion order, not index order. Scenes and Settings
// are retained so a single scene can be re-run later.
type Job struct {
	ID           string
	Status       JobStatus
	Total        int
	Completed    int
	Results      []SceneResult
	Scenes       []Scene
	Settings     GenerationSettings
	CurrentScene int
	CurrentTitle string
	Error        string
	StartedAt    time.Time
	CompletedAt  time.Time
}

func (j *Job) IsDone() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// JobStatusView is the stable public shape served to polling clients.
type JobStatusView struct {
	JobID        string        `json:"job_id"`
	Status       JobStatus     `json:"status"`
	Total        int           `json:"total"`
	Completed    int           `json:"completed"`
	CurrentScene int           `json:"current_scene"`
	CurrentTitle string        `json:"current_title"`
	Results      []SceneResult `json:"results"`
	Error        string        `json:"error,omitempty"`
}
