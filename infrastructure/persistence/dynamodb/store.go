package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"diary-backend/application/ports"
	"diary-backend/infrastructure/persistence/subscription"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxTransactItems is DynamoDB's limit per TransactWriteItems call.
const maxTransactItems = 100

// Client is the subset of *dynamodb.Client used by this package.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// documentItem is the DynamoDB item structure for a document.
// One partition per collection; Seq records first insertion for ordering.
type documentItem struct {
	PK     string                 `dynamodbav:"PK"`
	SK     string                 `dynamodbav:"SK"`
	Seq    int64                  `dynamodbav:"Seq"`
	Fields map[string]interface{} `dynamodbav:"Fields"`
}

// Store implements ports.DocumentStore on a single DynamoDB table.
// Subscriptions poll the collection and emit a snapshot when it changes.
type Store struct {
	client       Client
	tableName    string
	pollInterval time.Duration
	logger       *zap.Logger
	hub          *subscription.Hub
	now          func() time.Time
}

// NewStore creates a new DynamoDB document store
func NewStore(client Client, tableName string, pollInterval time.Duration, logger *zap.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Store{
		client:       client,
		tableName:    tableName,
		pollInterval: pollInterval,
		logger:       logger,
		hub:          subscription.NewHub(),
		now:          time.Now,
	}
}

func partitionKey(coll ports.CollectionRef) string {
	if coll.MapID == "" {
		return fmt.Sprintf("USER#%s#%s", coll.UserID, coll.Name)
	}
	return fmt.Sprintf("USER#%s#MAP#%s#%s", coll.UserID, coll.MapID, coll.Name)
}

func itemKey(ref ports.DocumentRef) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: partitionKey(ref.Collection)},
		"SK": &types.AttributeValueMemberS{Value: ref.ID},
	}
}

func (s *Store) Create(ctx context.Context, coll ports.CollectionRef, id string, fields ports.Fields) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	expr, err := setExpression(fields, s.now().UnixNano())
	if err != nil {
		return "", err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       itemKey(coll.Doc(id)),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return "", pkgerrors.NewDatabaseError("create", err)
	}

	s.logger.Debug("Document created",
		zap.String("collection", coll.Path()),
		zap.String("id", id),
	)
	return id, nil
}

func (s *Store) Get(ctx context.Context, ref ports.DocumentRef) (ports.Document, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            itemKey(ref),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ports.Document{}, pkgerrors.NewDatabaseError("get", err)
	}
	if result.Item == nil {
		return ports.Document{}, pkgerrors.NewNotFoundError("document").WithDetail("path", ref.Path())
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return ports.Document{}, pkgerrors.NewDatabaseError("unmarshal", err)
	}
	return ports.Document{ID: item.SK, Fields: ports.Fields(item.Fields)}, nil
}

func (s *Store) Update(ctx context.Context, ref ports.DocumentRef, fields ports.Fields) error {
	expr, err := updateExpression(fields)
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       itemKey(ref),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewNotFoundError("document").WithDetail("path", ref.Path())
		}
		return pkgerrors.NewDatabaseError("update", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, ref ports.DocumentRef) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(ref),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete", err)
	}
	return nil
}

// ErrBatchTooLarge is the cause of the error returned for batches that do not
// fit in a single transaction.
var ErrBatchTooLarge = errors.New("batch exceeds the transaction item limit")

// Batch writes ops in one TransactWriteItems call. A batch larger than
// maxTransactItems is rejected before anything is written.
func (s *Store) Batch(ctx context.Context, ops []ports.BatchOp) error {
	if len(ops) > maxTransactItems {
		return pkgerrors.NewValidationError("batch is too large for one transaction").
			WithDetail("operations", len(ops)).
			WithDetail("limit", maxTransactItems).
			WithCause(ErrBatchTooLarge)
	}
	items, err := s.transactItems(ops)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		s.logger.Error("Transaction failed", zap.Int("items", len(items)), zap.Error(err))
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			return pkgerrors.NewConflictError("batch write was canceled").WithCause(err)
		}
		return pkgerrors.NewDatabaseError("batch", err)
	}
	return nil
}

func (s *Store) transactItems(ops []ports.BatchOp) ([]types.TransactWriteItem, error) {
	seq := s.now().UnixNano()
	items := make([]types.TransactWriteItem, 0, len(ops))

	for i, op := range ops {
		switch op.Kind {
		case ports.BatchSet:
			expr, err := setExpression(op.Fields, seq+int64(i))
			if err != nil {
				return nil, err
			}
			items = append(items, types.TransactWriteItem{Update: &types.Update{
				TableName:                 aws.String(s.tableName),
				Key:                       itemKey(op.Ref),
				UpdateExpression:          expr.Update(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})
		case ports.BatchUpdate:
			expr, err := updateExpression(op.Fields)
			if err != nil {
				return nil, err
			}
			items = append(items, types.TransactWriteItem{Update: &types.Update{
				TableName:                 aws.String(s.tableName),
				Key:                       itemKey(op.Ref),
				UpdateExpression:          expr.Update(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			}})
		case ports.BatchDelete:
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       itemKey(op.Ref),
			}})
		default:
			return nil, pkgerrors.NewValidationError("unknown batch operation").WithDetail("kind", string(op.Kind))
		}
	}
	return items, nil
}

// setExpression replaces Fields and keeps the first-insertion Seq.
func setExpression(fields ports.Fields, seq int64) (expression.Expression, error) {
	if fields == nil {
		fields = ports.Fields{}
	}
	update := expression.Set(expression.Name("Fields"), expression.Value(map[string]interface{}(fields))).
		Set(expression.Name("Seq"), expression.IfNotExists(expression.Name("Seq"), expression.Value(seq)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return expression.Expression{}, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}
	return expr, nil
}

// updateExpression sets each field under Fields; dotted keys become nested paths.
func updateExpression(fields ports.Fields) (expression.Expression, error) {
	if len(fields) == 0 {
		return expression.Expression{}, pkgerrors.NewValidationError("update requires at least one field")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var update expression.UpdateBuilder
	for _, k := range keys {
		update = update.Set(expression.Name("Fields."+k), expression.Value(fields[k]))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return expression.Expression{}, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}
	return expr, nil
}

func (s *Store) Fetch(ctx context.Context, coll ports.CollectionRef) ([]ports.Document, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(partitionKey(coll)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build expression").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	}

	var items []documentItem
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("fetch", err)
		}
		var page []documentItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, pkgerrors.NewDatabaseError("unmarshal", err)
		}
		items = append(items, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return toDocuments(items), nil
}

// toDocuments orders items by first insertion, then id.
func toDocuments(items []documentItem) []ports.Document {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Seq != items[j].Seq {
			return items[i].Seq < items[j].Seq
		}
		return items[i].SK < items[j].SK
	})
	docs := make([]ports.Document, len(items))
	for i, item := range items {
		docs[i] = ports.Document{ID: item.SK, Fields: ports.Fields(item.Fields)}
	}
	return docs
}

// Subscribe polls the collection every poll interval and emits a snapshot
// whenever its content differs from the last one sent.
func (s *Store) Subscribe(ctx context.Context, coll ports.CollectionRef) (ports.Subscription, error) {
	initial, err := s.Fetch(ctx, coll)
	if err != nil {
		return nil, err
	}

	feed := s.hub.Subscribe(ctx, coll, initial)
	go s.poll(ctx, coll, feed, initial)
	return feed, nil
}

func (s *Store) poll(ctx context.Context, coll ports.CollectionRef, feed *subscription.Feed, last []ports.Document) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-feed.Done():
			return
		case <-ticker.C:
			docs, err := s.Fetch(ctx, coll)
			if err != nil {
				s.logger.Warn("Subscription poll failed",
					zap.String("collection", coll.Path()),
					zap.Error(err),
				)
				continue
			}
			if reflect.DeepEqual(docs, last) {
				continue
			}
			last = docs
			feed.Send(ports.Snapshot{Collection: coll, Documents: docs})
		}
	}
}

// Close stops every polling subscription.
func (s *Store) Close() error {
	s.hub.Close()
	return nil
}
