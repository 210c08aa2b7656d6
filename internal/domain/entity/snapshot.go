package entity

import "time"

// FeedSnapshot is one raw feed body as fetched, kept for later inspection
type FeedSnapshot struct {
	Hash        string    `bson:"hash"` // sha256 of Body - unique index
	DZID        string    `bson:"dzId"`
	FeedVersion string    `bson:"feedVersion"`
	StatusCode  int       `bson:"statusCode"`
	Body        []byte    `bson:"body"`
	RecordCount int       `bson:"recordCount"`
	FetchedAt   time.Time `bson:"fetchedAt"`
	LastSeenAt  time.Time `bson:"lastSeenAt"`
}
