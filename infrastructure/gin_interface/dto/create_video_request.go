package dto

import "generate-love-video/domain"

type SceneRequest struct {
	Title           string                  `json:"title"`
	Prompt          string                  `json:"prompt" binding:"required"`
	Frames          []domain.ReferenceFrame `json:"frames"`
	Narration       string                  `json:"narration"`
	DurationSeconds float64                 `json:"duration_seconds"`
}

type CreateVideoRequest struct {
	Scenes      []SceneRequest         `json:"scenes" binding:"required,min=1,dive"`
	Provider    string                 `json:"provider"`
	VoiceID     string                 `json:"voice_id"`
	MusicPrompt string                 `json:"music_prompt"`
	WithMusic   bool                   `json:"with_music"`
	Extra       map[string]interface{} `json:"extra"`
}

type CreateVideoResponse struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

type RetrySceneResponse struct {
	Accepted bool `json:"accepted"`
}
