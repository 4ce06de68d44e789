package dynamo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable is an in-memory single-table stand-in keyed by phone.
type fakeTable struct {
	items       map[string]map[string]types.AttributeValue
	batchCalls  int
	unprocessed int // keys to hold back on the first BatchGetItem call
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key[attrPhone].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.applySetUpdate(in.Key, *in.UpdateExpression, in.ExpressionAttributeValues)
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) BatchGetItem(_ context.Context, in *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	f.batchCalls++
	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, ka := range in.RequestItems {
		keys := ka.Keys
		if f.unprocessed > 0 && len(keys) > f.unprocessed {
			out.UnprocessedKeys = map[string]types.KeysAndAttributes{table: {Keys: keys[:f.unprocessed]}}
			keys = keys[f.unprocessed:]
			f.unprocessed = 0
		}
		for _, k := range keys {
			if item, ok := f.items[keyOf(k)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (f *fakeTable) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		reasons[i].Code = aws.String("None")
		switch {
		case ti.Put != nil:
			if _, exists := f.items[keyOf(ti.Put.Item)]; exists {
				reasons[i].Code, failed = aws.String("ConditionalCheckFailed"), true
			}
		case ti.Delete != nil:
			if _, exists := f.items[keyOf(ti.Delete.Key)]; !exists {
				reasons[i].Code, failed = aws.String("ConditionalCheckFailed"), true
			}
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}
	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[keyOf(ti.Put.Item)] = ti.Put.Item
		case ti.Delete != nil:
			delete(f.items, keyOf(ti.Delete.Key))
		case ti.Update != nil:
			f.applySetUpdate(ti.Update.Key, *ti.Update.UpdateExpression, ti.Update.ExpressionAttributeValues)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeTable) applySetUpdate(key map[string]types.AttributeValue, expr string, values map[string]types.AttributeValue) {
	k := keyOf(key)
	item := f.items[k]
	if item == nil {
		item = map[string]types.AttributeValue{attrPhone: &types.AttributeValueMemberS{Value: k}}
		f.items[k] = item
	}
	set := map[string]bool{}
	if ss, ok := item[attrMembers].(*types.AttributeValueMemberSS); ok {
		for _, v := range ss.Value {
			set[v] = true
		}
	}
	for _, v := range values[":p"].(*types.AttributeValueMemberSS).Value {
		set[v] = strings.HasPrefix(expr, "ADD")
	}
	var members []string
	for v, in := range set {
		if in {
			members = append(members, v)
		}
	}
	if len(members) == 0 {
		delete(item, attrMembers)
		return
	}
	item[attrMembers] = &types.AttributeValueMemberSS{Value: members}
}

func newSubscriber(phone, name string, at time.Time) *domain.Subscriber {
	return &domain.Subscriber{ID: "01J" + phone[1:], Phone: phone, Name: name, SubscribedAt: at}
}

func TestSubscriberRepo_CreateIsAtomicAndUnique(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	at := time.Date(2025, 12, 8, 9, 23, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newSubscriber("+14155551234", "Ada", at)))
	err := repo.Create(ctx, newSubscriber("+14155551234", "Ada again", at))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, "+14155551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, got.SubscribedAt.Equal(at))

	ok, err := repo.IsMember(ctx, "+14155551234")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubscriberRepo_Delete(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newSubscriber("+14155551234", "Ada", time.Now().UTC())))

	removed, err := repo.Delete(ctx, "+14155551234")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, "+14155551234")
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err := repo.Exists(ctx, "+14155551234")
	require.NoError(t, err)
	assert.False(t, exists)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubscriberRepo_DeleteCleansOrphanMembership(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	table.items[membersPhone] = map[string]types.AttributeValue{
		attrPhone:   &types.AttributeValueMemberS{Value: membersPhone},
		attrMembers: stringSet("+15550001111"),
	}

	removed, err := repo.Delete(ctx, "+15550001111")
	require.NoError(t, err)
	assert.False(t, removed)
	ok, err := repo.IsMember(ctx, "+15550001111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriberRepo_ListSkipsIncompleteAndSorts(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	base := time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newSubscriber("+14155550002", "Late", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newSubscriber("+14155550001", "Early", base)))
	// record without a name, plus a member with no record at all
	table.items["+15550003333"] = map[string]types.AttributeValue{
		attrPhone:       &types.AttributeValueMemberS{Value: "+15550003333"},
		"id":            &types.AttributeValueMemberS{Value: "x"},
		"subscribed_at": &types.AttributeValueMemberS{Value: base.Format(time.RFC3339)},
	}
	table.applySetUpdate(strKey(attrPhone, membersPhone), "ADD", map[string]types.AttributeValue{":p": stringSet("+15550003333", "+15550004444")})

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Early", subs[0].Name)
	assert.Equal(t, "Late", subs[1].Name)
}

func TestSubscriberRepo_ListRetriesUnprocessedKeys(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	for _, p := range []string{"+14155550001", "+14155550002", "+14155550003"} {
		require.NoError(t, repo.Create(ctx, newSubscriber(p, "Sub", time.Now().UTC())))
	}
	table.unprocessed = 1

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Equal(t, 2, table.batchCalls)
}

func TestSubscriberRepo_GetNotFound(t *testing.T) {
	repo := NewSubscriberRepo(newFakeTable(), "subscribers")
	_, err := repo.Get(context.Background(), "+14155551234")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSubscriberRepo_MalformedMetadataDefaultsToEmpty(t *testing.T) {
	table := newFakeTable()
	repo := NewSubscriberRepo(table, "subscribers")
	ctx := context.Background()
	sub := newSubscriber("+14155551234", "Ada", time.Date(2025, 12, 8, 9, 23, 0, 0, time.UTC))
	sub.Metadata = domain.SubscriberMetadata{Locale: "en-HK"}
	require.NoError(t, repo.Create(ctx, sub))
	table.items["+14155551234"][attrMetadata] = &types.AttributeValueMemberS{Value: "not a map"}

	got, err := repo.Get(ctx, "+14155551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, domain.SubscriberMetadata{}, got.Metadata)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "+14155551234", subs[0].Phone)
}

func TestDecodeSubscriber_KeepsReadableMetadata(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":            &types.AttributeValueMemberS{Value: "01J"},
		attrPhone:       &types.AttributeValueMemberS{Value: "+14155551234"},
		"name":          &types.AttributeValueMemberS{Value: "Ada"},
		"subscribed_at": &types.AttributeValueMemberS{Value: "2025-12-08T09:23:00Z"},
		attrMetadata: &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"locale": &types.AttributeValueMemberS{Value: "en-HK"},
		}},
	}

	s, ok := decodeSubscriber(item)
	require.True(t, ok)
	assert.Equal(t, "en-HK", s.Metadata.Locale)
}
