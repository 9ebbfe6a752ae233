package ticket

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

var ErrNotFound = errors.New("ticket repository: not found")

type Repository interface {
	PutDraft(ctx context.Context, draft model.DraftItem) error
	GetDraft(ctx context.Context, draftID string) (model.DraftItem, error)
	DeleteDraft(ctx context.Context, draftID string) error
	ListDraftsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]model.DraftItem, error)
	PutTicket(ctx context.Context, ticket model.TicketItem) error
	GetTicket(ctx context.Context, ticketID string) (model.TicketItem, error)
	ListTickets(ctx context.Context, limit int) ([]model.TicketItem, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, status model.TicketStatus, updatedAt string) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) PutDraft(ctx context.Context, draft model.DraftItem) error {
	return r.db.Client.PutItem(ctx, model.SupportDraftsTable, draft)
}

func (r *DynamoRepository) GetDraft(ctx context.Context, draftID string) (model.DraftItem, error) {
	var draft model.DraftItem
	err := r.db.Client.GetItem(
		ctx,
		model.SupportDraftsTable,
		map[string]types.AttributeValue{
			"draftId": &types.AttributeValueMemberS{Value: draftID},
		},
		&draft,
	)
	if err != nil {
		if isNotFound(err) {
			return model.DraftItem{}, ErrNotFound
		}
		return model.DraftItem{}, err
	}
	return draft, nil
}

func (r *DynamoRepository) DeleteDraft(ctx context.Context, draftID string) error {
	return r.db.Client.DeleteItem(
		ctx,
		model.SupportDraftsTable,
		map[string]types.AttributeValue{
			"draftId": &types.AttributeValueMemberS{Value: draftID},
		},
	)
}

func (r *DynamoRepository) ListDraftsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]model.DraftItem, error) {
	items, err := r.db.Client.ScanAllWithFilter(
		ctx,
		model.SupportDraftsTable,
		"#updatedAt < :cutoff",
		map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339)},
		},
		map[string]string{
			"#updatedAt": "updatedAt",
		},
	)
	if err != nil {
		return nil, err
	}

	drafts := make([]model.DraftItem, 0, len(items))
	for _, item := range items {
		var draft model.DraftItem
		if err := attributevalue.UnmarshalMap(item, &draft); err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func (r *DynamoRepository) PutTicket(ctx context.Context, ticket model.TicketItem) error {
	return r.db.Client.PutItem(ctx, model.SupportTicketsTable, ticket)
}

func (r *DynamoRepository) GetTicket(ctx context.Context, ticketID string) (model.TicketItem, error) {
	var ticket model.TicketItem
	err := r.db.Client.GetItem(
		ctx,
		model.SupportTicketsTable,
		map[string]types.AttributeValue{
			"ticketId": &types.AttributeValueMemberS{Value: ticketID},
		},
		&ticket,
	)
	if err != nil {
		if isNotFound(err) {
			return model.TicketItem{}, ErrNotFound
		}
		return model.TicketItem{}, err
	}
	return ticket, nil
}

func (r *DynamoRepository) ListTickets(ctx context.Context, limit int) ([]model.TicketItem, error) {
	items, err := r.db.Client.ScanAll(ctx, model.SupportTicketsTable)
	if err != nil {
		return nil, err
	}

	tickets := make([]model.TicketItem, 0, len(items))
	for _, item := range items {
		var ticket model.TicketItem
		if err := attributevalue.UnmarshalMap(item, &ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt > tickets[j].CreatedAt
	})

	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}

	return tickets, nil
}

func (r *DynamoRepository) UpdateTicketStatus(ctx context.Context, ticketID string, status model.TicketStatus, updatedAt string) error {
	err := r.db.Client.UpdateItem(
		ctx,
		model.SupportTicketsTable,
		map[string]types.AttributeValue{
			"ticketId": &types.AttributeValueMemberS{Value: ticketID},
		},
		"SET #status = :status, #updatedAt = :updatedAt",
		map[string]types.AttributeValue{
			":status":    &types.AttributeValueMemberS{Value: string(status)},
			":updatedAt": &types.AttributeValueMemberS{Value: updatedAt},
		},
		map[string]string{
			"#status":    "status",
			"#updatedAt": "updatedAt",
		},
		nil,
	)
	if err != nil && isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}
