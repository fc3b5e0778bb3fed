package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diary-backend/application/ports"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DistributedLock hands out named leases using DynamoDB conditional writes.
// An expired lease can be taken over; the TTL attribute lets DynamoDB reap it.
type DistributedLock struct {
	client    Client
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// lockRecord represents a lock record in DynamoDB
type lockRecord struct {
	PK        string `dynamodbav:"PK"` // LOCK#<name>
	SK        string `dynamodbav:"SK"` // LOCK
	LockID    string `dynamodbav:"LockID"`
	Owner     string `dynamodbav:"Owner"`
	ExpiresAt string `dynamodbav:"ExpiresAt"` // RFC3339, compared as a string
	TTL       int64  `dynamodbav:"TTL"`
}

func NewDistributedLock(client Client, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

func lockKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "LOCK#" + name},
		"SK": &types.AttributeValueMemberS{Value: "LOCK"},
	}
}

// Acquire takes the lease for name, or fails with a conflict error while another owner holds it.
func (dl *DistributedLock) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (ports.Lock, error) {
	now := dl.now().UTC()
	expiresAt := now.Add(ttl)
	record := lockRecord{
		PK:        "LOCK#" + name,
		SK:        "LOCK",
		LockID:    fmt.Sprintf("%s_%d", owner, now.UnixNano()),
		Owner:     owner,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		TTL:       expiresAt.Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal lock").WithCause(err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			dl.logger.Debug("Lock already held",
				zap.String("name", name),
				zap.String("owner", owner),
			)
			return nil, pkgerrors.NewConflictError("lock already held").WithDetail("name", name)
		}
		return nil, pkgerrors.NewDatabaseError("acquire lock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("name", name),
		zap.String("lockID", record.LockID),
		zap.Duration("ttl", ttl),
	)
	return &dynamoLock{dl: dl, name: name, lockID: record.LockID, owner: owner}, nil
}

func (dl *DistributedLock) release(ctx context.Context, name, lockID, owner string) error {
	_, err := dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(dl.tableName),
		Key:                 lockKey(name),
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			// Expired and taken over, or already released.
			dl.logger.Warn("Lock no longer owned",
				zap.String("name", name),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return pkgerrors.NewDatabaseError("release lock", err)
	}
	return nil
}

type dynamoLock struct {
	dl     *DistributedLock
	name   string
	lockID string
	owner  string
}

func (l *dynamoLock) Release(ctx context.Context) error {
	return l.dl.release(ctx, l.name, l.lockID, l.owner)
}
