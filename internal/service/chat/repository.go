package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"projukti-support-backend/internal/database"
	"projukti-support-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("chat repository: not found")

type Repository interface {
	GetThread(ctx context.Context, userID string) (model.ThreadItem, error)
	PutThread(ctx context.Context, thread model.ThreadItem) error
	ListThreads(ctx context.Context) ([]model.ThreadItem, error)
	PutMessage(ctx context.Context, message model.ChatMessageItem) error
	ListMessages(ctx context.Context, userID string, limit int) ([]model.ChatMessageItem, error)
	MarkMessageRead(ctx context.Context, pk string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetThread(ctx context.Context, userID string) (model.ThreadItem, error) {
	var thread model.ThreadItem
	err := r.db.Client.GetItem(
		ctx,
		model.ChatThreadsTable,
		map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
		&thread,
	)
	if err != nil {
		if isNotFound(err) {
			return model.ThreadItem{}, ErrNotFound
		}
		return model.ThreadItem{}, err
	}
	return thread, nil
}

func (r *DynamoRepository) PutThread(ctx context.Context, thread model.ThreadItem) error {
	return r.db.Client.PutItem(ctx, model.ChatThreadsTable, thread)
}

func (r *DynamoRepository) ListThreads(ctx context.Context) ([]model.ThreadItem, error) {
	items, err := r.db.Client.ScanAll(ctx, model.ChatThreadsTable)
	if err != nil {
		return nil, err
	}

	threads := make([]model.ThreadItem, 0, len(items))
	for _, item := range items {
		var thread model.ThreadItem
		if err := attributevalue.UnmarshalMap(item, &thread); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastActivity > threads[j].LastActivity
	})

	return threads, nil
}

func (r *DynamoRepository) PutMessage(ctx context.Context, message model.ChatMessageItem) error {
	return r.db.Client.PutItem(ctx, model.ChatMessagesTable, message)
}

func (r *DynamoRepository) ListMessages(ctx context.Context, userID string, limit int) ([]model.ChatMessageItem, error) {
	items, err := r.db.Client.ScanAllWithFilter(
		ctx,
		model.ChatMessagesTable,
		"userId = :userId",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	messages := make([]model.ChatMessageItem, 0, len(items))
	for _, item := range items {
		var message model.ChatMessageItem
		if err := attributevalue.UnmarshalMap(item, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	sort.Slice(messages, func(i, j int) bool {
		ti := parseTime(messages[i].CreatedAt)
		tj := parseTime(messages[j].CreatedAt)
		return ti.Before(tj)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages, nil
}

func (r *DynamoRepository) MarkMessageRead(ctx context.Context, pk string) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.ChatMessagesTable,
		map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
		},
		"SET #readByAdmin = :readByAdmin",
		map[string]types.AttributeValue{
			":readByAdmin": &types.AttributeValueMemberBOOL{Value: true},
		},
		map[string]string{
			"#readByAdmin": "readByAdmin",
		},
		nil,
	)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
