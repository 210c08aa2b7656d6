package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"skybox-manifest/internal/domain/entity"
)

// JSONStrategy reads the structured manifest endpoint
type JSONStrategy struct{}

// NewJSONStrategy creates the structured feed strategy
func NewJSONStrategy() *JSONStrategy {
	return &JSONStrategy{}
}

// Version implements Strategy
func (s *JSONStrategy) Version() string {
	return "json"
}

// DataRequest posts the manifest query form the page itself sends
func (s *JSONStrategy) DataRequest(ctx context.Context, target Target, today string) (*http.Request, error) {
	form := url.Values{}
	form.Set("dz_id", target.DZID)
	form.Set("action", "getLoads")
	form.Set("date", today)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.BaseURL+"/jmp/loads", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", fmt.Sprintf("%s/jmp?dz_id=%s", target.BaseURL, url.QueryEscape(target.DZID)))
	return req, nil
}

type jsonFeed struct {
	Loads []json.RawMessage `json:"loads"`
}

// Split accepts either {"loads":[...]} or a bare array of loads
func (s *JSONStrategy) Split(body []byte, today string) ([]RawRecord, error) {
	trimmed := bytes.TrimSpace(body)

	var items []json.RawMessage
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
	case bytes.HasPrefix(trimmed, []byte("{")):
		var feed jsonFeed
		if err := json.Unmarshal(trimmed, &feed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		items = feed.Loads
	default:
		return nil, fmt.Errorf("%w: not a JSON document", ErrMalformedFeed)
	}

	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		records = append(records, RawRecord{Date: today, Body: item})
	}
	return records, nil
}

type jsonSlot struct {
	Name      flexString `json:"name"`
	Type      *string    `json:"type"`
	Formation *string    `json:"formation"`
	Rig       *string    `json:"rig"`
}

type jsonGroup struct {
	Name  *string    `json:"name"`
	Slots []jsonSlot `json:"slots"`
}

type jsonLoad struct {
	ID             flexString  `json:"id"`
	Name           string      `json:"name"`
	Status         flexString  `json:"status"`
	SlotsAvailable *flexString `json:"slots_available"`
	LoadMaster     *string     `json:"load_master"`
	Groups         []jsonGroup `json:"groups"`
	Slots          []jsonSlot  `json:"slots"`
}

// Extract implements Strategy
func (s *JSONStrategy) Extract(rec RawRecord) (*Record, error) {
	var load jsonLoad
	if err := json.Unmarshal(rec.Body, &load); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	aircraft, sequence := SplitLabel(load.Name)
	out := &Record{
		ExternalID:     strings.TrimSpace(string(load.ID)),
		Status:         strings.TrimSpace(string(load.Status)),
		Aircraft:       aircraft,
		SequenceNumber: sequence,
		Date:           rec.Date,
	}

	if load.SlotsAvailable != nil {
		if slots, ok := parseWholeNumber(string(*load.SlotsAvailable)); ok {
			out.OpenSlots = &slots
		}
	}
	if load.LoadMaster != nil {
		out.LoadMaster = optional(cleanText(*load.LoadMaster))
	}

	for _, group := range load.Groups {
		for _, slot := range group.Slots {
			if j, ok := slot.jumper(group.Name); ok {
				out.Jumpers = append(out.Jumpers, j)
			}
		}
	}
	for _, slot := range load.Slots {
		if j, ok := slot.jumper(nil); ok {
			out.Jumpers = append(out.Jumpers, j)
		}
	}

	return out, nil
}

func (s jsonSlot) jumper(group *string) (entity.Jumper, bool) {
	name := cleanText(string(s.Name))
	if name == "" {
		return entity.Jumper{}, false
	}
	return entity.Jumper{
		Name:      name,
		Type:      trimmed(s.Type),
		GroupName: trimmed(group),
		Formation: trimmed(s.Formation),
		Rig:       trimmed(s.Rig),
	}, true
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := cleanText(*s)
	return &v
}

// flexString accepts a JSON string or number; null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}
