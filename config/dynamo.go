package config

import (
	"fmt"
	"os"
)

type DynamoConfig struct {
	TableName  string
	TtlMinutes int
}

func GetDynamoConfig() (*DynamoConfig, error) {
	tableName := os.Getenv("DYNAMO_TABLE_NAME")
	if tableName == "" {
		return nil, fmt.Errorf("DYNAMO_TABLE_NAME must be set")
	}

	return &DynamoConfig{
		TableName:  tableName,
		TtlMinutes: intFromEnv("DYNAMO_TTL_MINUTES", 60),
	}, nil
}
