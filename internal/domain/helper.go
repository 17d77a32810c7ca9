package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/squadbid/backend/internal/model"
	"github.com/squadbid/backend/pkg/pubsub"
	"github.com/squadbid/backend/pkg/xcontext"
)

// publishEvent serializes an engine event and hands it to the broker. Event
// delivery is best effort, a failure never rolls back auction state.
func publishEvent(ctx context.Context, publisher pubsub.Publisher, event model.AuctionEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal %s event: %v", event.Type, err)
		return
	}

	err = publisher.Publish(ctx, model.AuctionEventTopic, &pubsub.Pack{
		Key: []byte(event.AuctionID),
		Msg: b,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish %s event: %v", event.Type, err)
	}
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
