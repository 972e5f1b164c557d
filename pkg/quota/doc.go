// Package quota defines the static quota model for rate-limited credentials
// and the Tracker that enforces it.
//
// A quota is expressed as a LimitSet: a maximum request count per named
// Period (minute, hour, day). Quotas are configured per (model, tier) pair
// in a Table and are read-only for the process lifetime.
//
// A Tracker owns one time-window counter per period in its LimitSet and
// answers admission queries with AND semantics: a request is admissible only
// when every period still has headroom. Minute and hour periods use rolling
// windows; the day period uses a fixed window aligned to local midnight,
// matching how upstream providers account daily quotas.
package quota
