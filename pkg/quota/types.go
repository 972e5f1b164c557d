package quota

import "time"

// Period is a named time span over which a maximum request count applies.
type Period string

const (
	// PeriodMinute limits requests over a rolling 60-second window.
	PeriodMinute Period = "minute"
	// PeriodHour limits requests over a rolling 1-hour window.
	PeriodHour Period = "hour"
	// PeriodDay limits requests since local midnight.
	PeriodDay Period = "day"
)

// periodDurations maps known periods to their window durations. Adding a
// new period here is all that is needed to extend the limit vocabulary.
var periodDurations = map[Period]time.Duration{
	PeriodMinute: time.Minute,
	PeriodHour:   time.Hour,
	PeriodDay:    24 * time.Hour,
}

// Duration returns the window duration for the period and whether the
// period is known.
func (p Period) Duration() (time.Duration, bool) {
	d, ok := periodDurations[p]
	return d, ok
}

// LimitSet maps quota periods to maximum request counts.
// A period absent from the set is unlimited.
type LimitSet map[Period]int

// ModelQuota is the static per (model, tier) configuration: a context-size
// hint and the request limits per period. Loaded once, never mutated.
type ModelQuota struct {
	// ContextWindow is the model's context size in tokens. Informational.
	ContextWindow int

	// Limits is the maximum request count per quota period.
	Limits LimitSet
}

// Table maps model name, then tier, to the quota configuration.
// Owned by configuration; read-only for the process lifetime.
type Table map[string]map[string]ModelQuota

// Lookup returns the quota for (model, tier) and whether one is configured.
func (t Table) Lookup(model, tier string) (ModelQuota, bool) {
	tiers, ok := t[model]
	if !ok {
		return ModelQuota{}, false
	}
	q, ok := tiers[tier]
	return q, ok
}

// ModelsForTier returns the model names that have a quota configured for
// the given tier, in unspecified order.
func (t Table) ModelsForTier(tier string) []string {
	var models []string
	for model, tiers := range t {
		if _, ok := tiers[tier]; ok {
			models = append(models, model)
		}
	}
	return models
}

// PeriodAvailability is a read-only snapshot of one quota period.
type PeriodAvailability struct {
	// Period is the quota period name.
	Period Period `json:"period"`

	// Used is the number of requests counted in the current window.
	Used int64 `json:"used"`

	// Limit is the maximum request count for the period.
	Limit int64 `json:"limit"`

	// Available is the remaining headroom (never negative).
	Available int64 `json:"available"`
}
