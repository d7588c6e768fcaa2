package remotecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoCache.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// record is the DynamoDB item layout. expires_at is the table's TTL attribute.
type record struct {
	Key       string `dynamodbav:"cache_key"`
	Payload   string `dynamodbav:"payload"`
	FetchedAt int64  `dynamodbav:"fetched_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// DynamoCache shares listings across Lambda instances through a DynamoDB table.
type DynamoCache struct {
	client    DynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoCache creates a DynamoCache writing entries that live for ttl.
func NewDynamoCache(client DynamoAPI, tableName string, ttl time.Duration) *DynamoCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoCache{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

// Get reads key. DynamoDB removes expired items lazily, so expiry is checked here too.
func (c *DynamoCache) Get(ctx context.Context, key string) (*Entry, bool) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		logging.WithContext(ctx).Warn("remote cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if out.Item == nil {
		return nil, false
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		logging.WithContext(ctx).Warn("remote cache item malformed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if c.now().Unix() >= rec.ExpiresAt {
		return nil, false
	}

	var items []model.Item
	if err := json.Unmarshal([]byte(rec.Payload), &items); err != nil {
		logging.WithContext(ctx).Warn("remote cache payload malformed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &Entry{Items: items, FetchedAt: time.UnixMilli(rec.FetchedAt)}, true
}

// Set writes e under key. Failures are logged and dropped.
func (c *DynamoCache) Set(ctx context.Context, key string, e Entry) {
	payload, err := json.Marshal(e.Items)
	if err != nil {
		logging.WithContext(ctx).Warn("remote cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	item, err := attributevalue.MarshalMap(record{
		Key:       key,
		Payload:   string(payload),
		FetchedAt: e.FetchedAt.UnixMilli(),
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	})
	if err != nil {
		logging.WithContext(ctx).Warn("remote cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		logging.WithContext(ctx).Warn("remote cache write failed", zap.String("key", key), zap.Error(err))
	}
}
