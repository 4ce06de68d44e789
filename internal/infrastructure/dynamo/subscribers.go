package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-journal/internal/domain"
)

const (
	attrPhone    = "phone"
	attrMetadata = "metadata"
	attrMembers  = "members"

	// membersPhone is the reserved partition key of the item holding the
	// string set of every subscribed phone. It can never be a valid phone.
	membersPhone = "#members"

	maxUnprocessedRetries = 5
)

// SubscriberAPI is the subset of *dynamodb.Client used by SubscriberRepo.
type SubscriberAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// SubscriberRepo stores one item per subscriber keyed by phone, plus the
// membership item. Record and membership change in a single transaction.
type SubscriberRepo struct {
	client    SubscriberAPI
	tableName string
}

func NewSubscriberRepo(client SubscriberAPI, tableName string) *SubscriberRepo {
	return &SubscriberRepo{client: client, tableName: tableName}
}

func (r *SubscriberRepo) Exists(ctx context.Context, phone string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  strKey(attrPhone, phone),
		ProjectionExpression: aws.String(attrPhone),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (r *SubscriberRepo) Create(ctx context.Context, s *domain.Subscriber) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subscriber: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(phone)"),
			}},
			{Update: r.membersUpdate("ADD", s.Phone)},
		},
	})
	if conditionFailedAt(err, 0) {
		return fmt.Errorf("subscriber exists: %w", domain.ErrConflict)
	}
	return err
}

// Delete removes record and membership together. When the record is
// already gone the phone is still dropped from the membership set.
func (r *SubscriberRepo) Delete(ctx context.Context, phone string) (bool, error) {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           aws.String(r.tableName),
				Key:                 strKey(attrPhone, phone),
				ConditionExpression: aws.String("attribute_exists(phone)"),
			}},
			{Update: r.membersUpdate("DELETE", phone)},
		},
	})
	if conditionFailedAt(err, 0) {
		u := r.membersUpdate("DELETE", phone)
		_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 u.TableName,
			Key:                       u.Key,
			UpdateExpression:          u.UpdateExpression,
			ExpressionAttributeNames:  u.ExpressionAttributeNames,
			ExpressionAttributeValues: u.ExpressionAttributeValues,
		})
		return false, err
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *SubscriberRepo) Get(ctx context.Context, phone string) (*domain.Subscriber, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrPhone, phone),
	})
	if err != nil {
		return nil, err
	}
	s, ok := decodeSubscriber(out.Item)
	if !ok {
		return nil, fmt.Errorf("subscriber not found: %w", domain.ErrNotFound)
	}
	return s, nil
}

// List resolves the membership set with BatchGetItem. Members whose record
// is missing or incomplete are skipped.
func (r *SubscriberRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	phones, err := r.members(ctx)
	if err != nil {
		return nil, err
	}
	subs := make([]domain.Subscriber, 0, len(phones))
	for _, batch := range chunk(phones, maxBatchGet) {
		items, err := r.batchGet(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			s, ok := decodeSubscriber(item)
			if !ok {
				slog.Warn("skipping unreadable subscriber record", "item", item[attrPhone])
				continue
			}
			subs = append(subs, *s)
		}
	}
	if len(subs) < len(phones) {
		slog.Warn("membership set references missing records", "members", len(phones), "records", len(subs))
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].SubscribedAt.Equal(subs[j].SubscribedAt) {
			return subs[i].Phone < subs[j].Phone
		}
		return subs[i].SubscribedAt.Before(subs[j].SubscribedAt)
	})
	return subs, nil
}

func (r *SubscriberRepo) Count(ctx context.Context) (int64, error) {
	phones, err := r.members(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(phones)), nil
}

func (r *SubscriberRepo) IsMember(ctx context.Context, phone string) (bool, error) {
	phones, err := r.members(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range phones {
		if p == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *SubscriberRepo) members(ctx context.Context) ([]string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrPhone, membersPhone),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	ss, ok := out.Item[attrMembers].(*types.AttributeValueMemberSS)
	if !ok {
		return nil, nil
	}
	return ss.Value, nil
}

func (r *SubscriberRepo) batchGet(ctx context.Context, phones []string) ([]map[string]types.AttributeValue, error) {
	keys := make([]map[string]types.AttributeValue, len(phones))
	for i, p := range phones {
		keys[i] = strKey(attrPhone, p)
	}
	request := map[string]types.KeysAndAttributes{
		r.tableName: {Keys: keys},
	}
	var items []map[string]types.AttributeValue
	for attempt := 0; len(request) > 0; attempt++ {
		if attempt > maxUnprocessedRetries {
			return nil, fmt.Errorf("batch get subscribers: unprocessed keys after %d retries", maxUnprocessedRetries)
		}
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Responses[r.tableName]...)
		request = out.UnprocessedKeys
	}
	return items, nil
}

func (r *SubscriberRepo) membersUpdate(action, phone string) *types.Update {
	return &types.Update{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(attrPhone, membersPhone),
		UpdateExpression:         aws.String(action + " #m :p"),
		ExpressionAttributeNames: map[string]string{"#m": attrMembers},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": stringSet(phone),
		},
	}
}

// decodeSubscriber accepts an item only when id, phone, name and
// subscribed_at are all present and readable. Unreadable metadata decodes as empty.
func decodeSubscriber(item map[string]types.AttributeValue) (*domain.Subscriber, bool) {
	if item == nil {
		return nil, false
	}
	required := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if k != attrMetadata {
			required[k] = v
		}
	}
	var s domain.Subscriber
	if err := attributevalue.UnmarshalMap(required, &s); err != nil {
		return nil, false
	}
	if av, ok := item[attrMetadata]; ok {
		var md domain.SubscriberMetadata
		if err := attributevalue.Unmarshal(av, &md); err == nil {
			s.Metadata = md
		}
	}
	if s.ID == "" || s.Phone == "" || s.Name == "" || s.SubscribedAt.IsZero() {
		return nil, false
	}
	return &s, true
}
