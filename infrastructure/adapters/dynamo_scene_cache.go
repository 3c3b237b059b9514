package adapters

import (
	"context"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/domain"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

type dynamoSceneItem struct {
	JobId        string `dynamodbav:"job_id"`
	SceneIndex   int    `dynamodbav:"scene_index"`
	Title        string `dynamodbav:"title"`
	Success      bool   `dynamodbav:"success"`
	VideoUrl     string `dynamodbav:"video_url"`
	NarrationUrl string `dynamodbav:"narration_url"`
	MusicUrl     string `dynamodbav:"music_url"`
	ErrorMessage string `dynamodbav:"error_message"`
	TTL          int64  `dynamodbav:"ttl"`
}

// dynamoSceneCache mirrors settled scene results into a TTL'd table so a
// frontend can still show per-scene outcomes after the in-memory job record
// has been swept.
type dynamoSceneCache struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoSceneCache(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB,
	dynamoConfig *config.DynamoConfig) outbound.SceneCachePort {
	return &dynamoSceneCache{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (c *dynamoSceneCache) Save(ctx context.Context, jobID string, result domain.SceneResult) error {
	item := dynamoSceneItem{
		JobId:        jobID,
		SceneIndex:   result.Index,
		Title:        result.Title,
		Success:      result.Success,
		VideoUrl:     result.VideoURL,
		NarrationUrl: result.NarrationURL,
		MusicUrl:     result.MusicURL,
		ErrorMessage: result.Error,
		TTL:          time.Now().Add(time.Duration(c.dynamoConfig.TtlMinutes) * time.Minute).Unix(),
	}

	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to marshal scene item", map[string]interface{}{
			"job_id": jobID,
			"scene":  result.Index,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(c.dynamoConfig.TableName),
	}

	_, err = c.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to save scene item", map[string]interface{}{
			"job_id": jobID,
			"scene":  result.Index,
		})
		return err
	}

	return nil
}
