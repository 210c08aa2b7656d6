package manifest

import (
	"math"
	"strconv"
	"strings"

	"skybox-manifest/internal/domain/entity"
)

// Rule maps a record predicate to a confirmation state
type Rule struct {
	Name    string
	Applies func(rec *Record) bool
	State   entity.ConfirmationState
}

// DepartureRules is evaluated in order; the first applying rule wins and a
// record no rule applies to is still loading.
var DepartureRules = []Rule{
	{Name: "status_departed", Applies: statusDeparted, State: entity.Confirmed},
	{Name: "status_non_positive", Applies: statusNonPositive, State: entity.Unconfirmed},
	{Name: "no_open_slots", Applies: noOpenSlots, State: entity.Unconfirmed},
}

// Classify returns the state of the first applying rule and its name, or
// ok=false when the load is still in progress.
func Classify(rec *Record, rules []Rule) (state entity.ConfirmationState, rule string, ok bool) {
	for _, r := range rules {
		if r.Applies(rec) {
			return r.State, r.Name, true
		}
	}
	return "", "", false
}

func statusDeparted(rec *Record) bool {
	return strings.EqualFold(strings.TrimSpace(rec.Status), "departed")
}

// An empty status must not read as zero.
func statusNonPositive(rec *Record) bool {
	status := strings.TrimSpace(rec.Status)
	if status == "" {
		return false
	}
	n, err := strconv.ParseFloat(status, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	return n <= 0
}

func noOpenSlots(rec *Record) bool {
	return rec.OpenSlots != nil && *rec.OpenSlots <= 0
}
