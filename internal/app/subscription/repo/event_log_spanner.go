package repo

import (
	"context"

	"cloud.google.com/go/spanner"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"google.golang.org/grpc/codes"
)

const processedEventTable = "processed_events"

var _ contracts.ProcessedEventLog = (*SpannerEventLog)(nil)

// SpannerEventLog records processed event ids in the processed_events table
type SpannerEventLog struct {
	client *spanner.Client
}

func NewSpannerEventLog(client *spanner.Client) *SpannerEventLog {
	return &SpannerEventLog{client: client}
}

func (l *SpannerEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := l.client.Single().ReadRow(ctx, processedEventTable, spanner.Key{eventID}, []string{"event_id"})
	switch {
	case err == nil:
		return true, nil
	case spanner.ErrCode(err) == codes.NotFound:
		return false, nil
	default:
		return false, err
	}
}

// Record inserts the id; a row left by an earlier delivery is kept as is
func (l *SpannerEventLog) Record(ctx context.Context, eventID string) error {
	_, err := l.client.Apply(ctx, []*spanner.Mutation{
		spanner.Insert(processedEventTable, []string{"event_id", "processed_at"}, []interface{}{eventID, spanner.CommitTimestamp}),
	})
	if spanner.ErrCode(err) == codes.AlreadyExists {
		return nil
	}
	return err
}
