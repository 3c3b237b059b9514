package main

import (
	"context"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/application/services"
	"generate-love-video/config"
	"generate-love-video/http_utils"
	"generate-love-video/infrastructure/adapters"
	"generate-love-video/infrastructure/gin_interface/controllers"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	workerConfig := config.GetWorkerConfig()
	retryConfig := config.GetRetryConfig()

	sdWebuiConfig, err := config.GetSdWebuiConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get sd webui config")
	}

	comfyConfig, err := config.GetComfyConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get comfy config")
	}

	klingConfig, err := config.GetKlingConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get kling config")
	}

	dalleConfig, err := config.GetDaLLeConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dalle config")
	}

	elevenLabsConfig, err := config.GetElevenLabsConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

	musicConfig, err := config.GetMusicConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get music config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}

	zeroLogger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(workerConfig.PoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	s3Client := s3.New(sess)
	dynamoClient := dynamodb.New(sess)

	contentFetcher := adapters.NewContentFetcher(zeroLogger, retryConfig.HTTPTimeout)

	retry := http_utils.RetryConfig{
		MaxRetries: retryConfig.MaxRetries,
		BaseDelay:  retryConfig.BaseDelay,
	}

	generators := map[string]outbound.SceneGeneratorPort{
		"sd-webui": adapters.NewSdWebuiProvider(contentFetcher, sdWebuiConfig, retry, zeroLogger),
		"comfy":    adapters.NewComfyPoolProvider(contentFetcher, comfyConfig, retry, zeroLogger),
		"kling":    adapters.NewKlingVideoProvider(contentFetcher, klingConfig, retry, zeroLogger),
		"dalle":    adapters.NewDalleImageProvider(contentFetcher, dalleConfig, retry, zeroLogger),
	}

	defaultProvider := os.Getenv("DEFAULT_PROVIDER")
	if defaultProvider == "" {
		defaultProvider = "comfy"
	}
	if _, ok := generators[defaultProvider]; !ok {
		log.Fatal().Str("provider", defaultProvider).Msg("DEFAULT_PROVIDER does not name a configured provider")
	}

	narrationGenerator := adapters.NewElevenLabsNarrationGenerator(contentFetcher, elevenLabsConfig, retry)
	musicGenerator := adapters.NewReplicateMusicGenerator(contentFetcher, musicConfig, retry, zeroLogger)

	mediaStore := adapters.NewS3MediaStore(s3Client, s3Config)
	sceneCache := adapters.NewDynamoSceneCache(zeroLogger, dynamoClient, dynamoConfig)
	jobRegistry := adapters.NewMemoryJobRegistry(zeroLogger)

	videoMerger := adapters.NewFFmpegVideoMerger(zeroLogger)
	frameExtractor := adapters.NewFFmpegFrameExtractor(zeroLogger)
	artifactLocator := adapters.NewArtifactLocator()
	metrics := adapters.NewPrometheusMetrics()

	sceneProcessor := services.NewSceneProcessor(zeroLogger, workerPool, generators, defaultProvider,
		narrationGenerator, musicGenerator, mediaStore, videoMerger, frameExtractor,
		artifactLocator, contentFetcher, metrics)

	orchestrator := services.NewJobOrchestrator(zeroLogger, workerPool, sceneProcessor,
		jobRegistry, sceneCache, metrics, workerConfig)

	statusReporter := services.NewJobStatusReporter(jobRegistry)

	orchestrator.StartRetentionSweep(context.Background())

	videoJobsController := controllers.NewVideoJobsController(zeroLogger, orchestrator, statusReporter, workerPool)

	router := gin.Default()

	if err = router.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	videoJobsController.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err = router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
