package controllers

import (
	"encoding/json"
	"errors"
	"generate-love-video/application/ports/inbound"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/domain"
	"generate-love-video/infrastructure/gin_interface/dto"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type VideoJobsController interface {
	CreateVideo(c *gin.Context)
	GetStatus(c *gin.Context)
	RetryScene(c *gin.Context)
	StreamEvents(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type videoJobsController struct {
	logger       outbound.LoggerPort
	orchestrator inbound.JobOrchestratorPort
	statusPort   inbound.JobStatusPort
	workerPool   outbound.TaskDispatcher
}

func NewVideoJobsController(
	logger outbound.LoggerPort,
	orchestrator inbound.JobOrchestratorPort,
	statusPort inbound.JobStatusPort,
	workerPool outbound.TaskDispatcher,
) VideoJobsController {
	return &videoJobsController{
		logger:       logger,
		orchestrator: orchestrator,
		statusPort:   statusPort,
		workerPool:   workerPool,
	}
}

func (v *videoJobsController) CreateVideo(c *gin.Context) {
	var createVideoRequest dto.CreateVideoRequest
	if err := c.ShouldBindJSON(&createVideoRequest); err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
		return
	}

	scenes := make([]domain.Scene, 0, len(createVideoRequest.Scenes))
	for i, scene := range createVideoRequest.Scenes {
		scenes = append(scenes, domain.Scene{
			Index:           i,
			Title:           scene.Title,
			Prompt:          scene.Prompt,
			Frames:          scene.Frames,
			Narration:       scene.Narration,
			DurationSeconds: scene.DurationSeconds,
		})
	}

	res, err := v.orchestrator.StartJob(c, inbound.StartJobParams{
		Scenes: scenes,
		Settings: domain.GenerationSettings{
			Provider:    createVideoRequest.Provider,
			VoiceID:     createVideoRequest.VoiceID,
			MusicPrompt: createVideoRequest.MusicPrompt,
			WithMusic:   createVideoRequest.WithMusic,
			Extra:       createVideoRequest.Extra,
		},
	})
	if err != nil {
		if errors.Is(err, inbound.ErrNoScenesProvided) {
			c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
			return
		}
		v.logger.Error(err, "failed to start video job")
		c.AbortWithStatusJSON(500, gin.H{"error": "failed to start job"})
		return
	}

	c.JSON(200, dto.CreateVideoResponse{
		JobID: res.JobID,
		Total: res.Total,
	})
}

func (v *videoJobsController) GetStatus(c *gin.Context) {
	view, ok := v.statusPort.GetStatus(c.Param("jobId"))
	if !ok {
		c.AbortWithStatusJSON(404, gin.H{"error": "job not found"})
		return
	}
	c.JSON(200, view)
}

func (v *videoJobsController) RetryScene(c *gin.Context) {
	ordinal, err := strconv.Atoi(c.Param("ordinal"))
	if err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": "scene ordinal must be an integer"})
		return
	}

	err = v.orchestrator.RetryScene(c, c.Param("jobId"), ordinal)
	switch {
	case errors.Is(err, inbound.ErrJobNotFound):
		c.AbortWithStatusJSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, inbound.ErrSceneOutOfRange):
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
	case err != nil:
		v.logger.Error(err, "failed to schedule scene retry")
		c.AbortWithStatusJSON(500, gin.H{"error": "failed to schedule retry"})
	default:
		c.JSON(200, dto.RetrySceneResponse{Accepted: true})
	}
}

// StreamEvents pushes the job status view over SSE once a second until the
// job reaches a terminal status or the client goes away.
func (v *videoJobsController) StreamEvents(c *gin.Context) {
	jobID := c.Param("jobId")
	if _, ok := v.statusPort.GetStatus(jobID); !ok {
		c.AbortWithStatusJSON(404, gin.H{"error": "job not found"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	clientGone := c.Request.Context().Done()
	done := make(chan struct{})

	err := v.workerPool.Submit(func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				view, ok := v.statusPort.GetStatus(jobID)
				if !ok {
					return
				}
				payload, err := json.Marshal(view)
				if err != nil {
					v.logger.Error(err, "failed to marshal status event")
					return
				}
				if _, err := c.Writer.WriteString("data: " + string(payload) + "\n\n"); err != nil {
					return
				}
				c.Writer.Flush()
				if view.Status != domain.JobProcessing {
					return
				}
			case <-clientGone:
				return
			}
		}
	})
	if err != nil {
		c.AbortWithStatusJSON(500, gin.H{"error": err.Error()})
		return
	}

	<-done
}

func (v *videoJobsController) RegisterRoutes(g *gin.Engine) {
	g.POST("/api/v1/videos", v.CreateVideo)
	g.GET("/api/v1/videos/:jobId/status", v.GetStatus)
	g.POST("/api/v1/videos/:jobId/scenes/:ordinal/retry", v.RetryScene)
	g.GET("/api/v1/videos/:jobId/events", v.StreamEvents)
}
