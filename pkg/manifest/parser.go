package manifest

import (
	"time"

	"skybox-manifest/internal/domain/entity"
)

// Parser extracts records with one feed strategy and classifies them
type Parser struct {
	strategy Strategy
	rules    []Rule
	now      func() time.Time
}

// NewParser creates a parser using the default departure rules
func NewParser(strategy Strategy) *Parser {
	return &Parser{
		strategy: strategy,
		rules:    DepartureRules,
		now:      time.Now,
	}
}

// Strategy returns the feed strategy in use
func (p *Parser) Strategy() Strategy {
	return p.strategy
}

// Parse returns the accepted load for a record. Records still loading, or
// carrying no usable identity, yield a *RejectError; records of unknown shape
// yield ErrMalformedRecord.
func (p *Parser) Parse(raw RawRecord) (*ParsedLoad, error) {
	rec, err := p.strategy.Extract(raw)
	if err != nil {
		return nil, err
	}

	if rec.ExternalID == "" {
		return nil, &RejectError{Reason: ReasonNoExternalID}
	}

	state, rule, ok := Classify(rec, p.rules)
	if !ok {
		return nil, &RejectError{ExternalID: rec.ExternalID, Reason: ReasonInProgress}
	}

	// A zero load number is a parse artifact, never a real load.
	if rec.SequenceNumber == 0 {
		return nil, &RejectError{ExternalID: rec.ExternalID, Reason: ReasonZeroSequence}
	}
	if rec.Aircraft == "" {
		return nil, &RejectError{ExternalID: rec.ExternalID, Reason: ReasonNoAircraft}
	}

	jumpers := rec.Jumpers
	if jumpers == nil {
		jumpers = []entity.Jumper{}
	}

	return &ParsedLoad{
		Load: &entity.Load{
			ExternalID:        rec.ExternalID,
			SequenceNumber:    rec.SequenceNumber,
			Aircraft:          rec.Aircraft,
			LoadMaster:        rec.LoadMaster,
			Date:              rec.Date,
			DepartedAt:        p.now().UTC(),
			ConfirmationState: state,
			Jumpers:           jumpers,
		},
		Rule: rule,
	}, nil
}
