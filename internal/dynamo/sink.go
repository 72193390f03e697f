// Package dynamo mirrors renumbered order keys into a DynamoDB table.
//
// Each item is one row keyed by list (pk) and item id (sk) carrying its
// order key and latch. A Sink is a latchlist.RenumberSink, so it receives
// the changed items after every renumber and writes them in transactions
// of at most MaxTransactItems.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/roach88/latchlist/internal/latchlist"
)

// MaxTransactItems is the DynamoDB limit on items per TransactWriteItems.
const MaxTransactItems = 100

// TransactWriteAPI is the part of *dynamodb.Client a Sink uses.
type TransactWriteAPI interface {
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Record is the stored form of one item.
type Record struct {
	PK      string  `dynamodbav:"pk"`
	SK      string  `dynamodbav:"sk"`
	Ord     float64 `dynamodbav:"ord"`
	Latched int     `dynamodbav:"latched"`
}

// Sink writes renumbered items of one list to table.
type Sink[T any] struct {
	client TransactWriteAPI
	table  string
	list   string
}

// New returns a Sink writing through client.
func New[T any](client TransactWriteAPI, table, list string) *Sink[T] {
	return &Sink[T]{client: client, table: table, list: list}
}

// NewFromConfig builds a client from the default AWS configuration chain.
// A non-empty region overrides the configured one.
func NewFromConfig[T any](ctx context.Context, table, region, list string) (*Sink[T], error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New[T](dynamodb.NewFromConfig(cfg), table, list), nil
}

// Renumbered writes changed in chunks of MaxTransactItems. Chunks already
// written stay written if a later one fails.
func (s *Sink[T]) Renumbered(ctx context.Context, changed []latchlist.Item[T]) error {
	for start := 0; start < len(changed); start += MaxTransactItems {
		end := min(start+MaxTransactItems, len(changed))

		items, err := s.puts(changed[start:end])
		if err != nil {
			return err
		}
		_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err != nil {
			return fmt.Errorf("write items %d-%d of %d to %s: %w", start, end-1, len(changed), s.table, mapTransactionError(err))
		}
	}
	return nil
}

func (s *Sink[T]) puts(chunk []latchlist.Item[T]) ([]types.TransactWriteItem, error) {
	items := make([]types.TransactWriteItem, 0, len(chunk))
	for _, it := range chunk {
		av, err := attributevalue.MarshalMap(Record{
			PK:      s.list,
			SK:      it.ID,
			Ord:     it.Order,
			Latched: it.Latched,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal item %q: %w", it.ID, err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.table),
				Item:      av,
			},
		})
	}
	return items, nil
}

// mapTransactionError flattens cancellation reasons into the message.
func mapTransactionError(err error) error {
	var txErr *types.TransactionCanceledException
	if !errors.As(err, &txErr) {
		return err
	}
	var codes []string
	for i, reason := range txErr.CancellationReasons {
		if reason.Code != nil && *reason.Code != "None" {
			codes = append(codes, fmt.Sprintf("%d:%s", i, *reason.Code))
		}
	}
	if len(codes) == 0 {
		return err
	}
	return fmt.Errorf("transaction cancelled (%s): %w", strings.Join(codes, ", "), err)
}
