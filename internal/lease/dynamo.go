package lease

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyPrefix keeps lease items apart from cache items sharing the table.
const KeyPrefix = "lease:"

// DynamoAPI is the subset of *dynamodb.Client used by DynamoManager.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoManager stores leases in a DynamoDB table keyed by cache_key with
// expires_at as its TTL attribute.
type DynamoManager struct {
	client    DynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoManager creates a DynamoManager granting leases that live for ttl.
func NewDynamoManager(client DynamoAPI, tableName string, ttl time.Duration) *DynamoManager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoManager{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (m *DynamoManager) Acquire(ctx context.Context, key, owner string) (*Lease, error) {
	now := m.now().Unix()
	l := Lease{
		Key:       KeyPrefix + key,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttl.Seconds()),
	}

	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lease: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(m.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(cache_key) OR expires_at < :now OR lease_owner = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("failed to acquire lease: %w", err)
	}

	l.Key = key
	return &l, nil
}

// Release is a no-op when the lease already passed to another owner.
func (m *DynamoManager) Release(ctx context.Context, key, owner string) error {
	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: KeyPrefix + key},
		},
		ConditionExpression: aws.String("lease_owner = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
