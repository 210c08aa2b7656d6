package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skybox-manifest/internal/domain/entity"
)

func intPtr(n int) *int { return &n }

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		wantOK    bool
		wantState entity.ConfirmationState
		wantRule  string
	}{
		{"departed", Record{Status: "departed"}, true, entity.Confirmed, "status_departed"},
		{"departed any case", Record{Status: "  DEPARTED "}, true, entity.Confirmed, "status_departed"},
		{"departed beats open slots", Record{Status: "Departed", OpenSlots: intPtr(3)}, true, entity.Confirmed, "status_departed"},
		{"zero status", Record{Status: "0"}, true, entity.Unconfirmed, "status_non_positive"},
		{"negative status", Record{Status: "-4"}, true, entity.Unconfirmed, "status_non_positive"},
		{"positive status", Record{Status: "12"}, false, "", ""},
		{"empty status no slots", Record{Status: ""}, false, "", ""},
		{"blank status no slots", Record{Status: "   "}, false, "", ""},
		{"empty status full load", Record{Status: "", OpenSlots: intPtr(0)}, true, entity.Unconfirmed, "no_open_slots"},
		{"minutes left full load", Record{Status: "5", OpenSlots: intPtr(-1)}, true, entity.Unconfirmed, "no_open_slots"},
		{"open slots remain", Record{Status: "5", OpenSlots: intPtr(2)}, false, "", ""},
		{"text status", Record{Status: "boarding"}, false, "", ""},
		{"NaN status", Record{Status: "NaN"}, false, "", ""},
		{"negative infinity status", Record{Status: "-Inf"}, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, rule, ok := Classify(&tt.rec, DepartureRules)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestClassifyCustomRuleAppends(t *testing.T) {
	rules := append(append([]Rule{}, DepartureRules...), Rule{
		Name:    "status_airborne",
		Applies: func(rec *Record) bool { return rec.Status == "airborne" },
		State:   entity.Unconfirmed,
	})

	state, rule, ok := Classify(&Record{Status: "airborne"}, rules)
	assert.True(t, ok)
	assert.Equal(t, entity.Unconfirmed, state)
	assert.Equal(t, "status_airborne", rule)
}
