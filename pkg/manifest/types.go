// Package manifest turns raw manifest feed records into departed loads.
//
// The feed has been served in two physical shapes over time: an HTML page with
// one element per load, and a JSON document with nested groups and slots. Each
// shape is a Strategy; both normalize to a Record, which the departure rules
// then classify.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"skybox-manifest/internal/domain/entity"
)

var (
	// ErrRejected marks a record that is valid but not actionable yet
	ErrRejected = errors.New("record rejected")
	// ErrMalformedRecord marks a record that matches no known shape
	ErrMalformedRecord = errors.New("malformed record")
	// ErrMalformedFeed marks a response body that cannot be split into records
	ErrMalformedFeed = errors.New("malformed feed")
)

// Reject reasons
const (
	ReasonInProgress   = "in_progress"
	ReasonZeroSequence = "zero_sequence"
	ReasonNoAircraft   = "no_aircraft"
	ReasonNoExternalID = "no_external_id"
)

// RejectError tells why a record was not accepted
type RejectError struct {
	ExternalID string
	Reason     string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("load %q rejected: %s", e.ExternalID, e.Reason)
}

func (e *RejectError) Unwrap() error {
	return ErrRejected
}

// Target identifies the feed being polled
type Target struct {
	BaseURL   string
	DZID      string
	UserAgent string
}

// RawRecord is one load as cut out of a feed response
type RawRecord struct {
	// Date is the operational day for the whole response, YYYY-MM-DD
	Date string
	Body []byte
}

// Record is a load normalized from either feed shape, before classification
type Record struct {
	ExternalID     string
	Status         string
	OpenSlots      *int
	Aircraft       string
	SequenceNumber int
	LoadMaster     *string
	Date           string
	Jumpers        []entity.Jumper
}

// Strategy is one physical shape of the manifest feed
type Strategy interface {
	// Version is the feed version flag this strategy serves
	Version() string
	// DataRequest builds the request for the data endpoint
	DataRequest(ctx context.Context, target Target, today string) (*http.Request, error)
	// Split cuts a data response into per-load records
	Split(body []byte, today string) ([]RawRecord, error)
	// Extract normalizes one record
	Extract(rec RawRecord) (*Record, error)
}

// ParsedLoad is an accepted record
type ParsedLoad struct {
	Load *entity.Load
	Rule string
}
