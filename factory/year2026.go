package factory

// presetSources holds the override tables shipped with the engine, keyed
// by year. Years absent here (and from the source store) fall back to
// the synthesized third-Friday rule.
var presetSources = map[int]string{
	2026: year2026JSON,
}

// PresetYears returns the years with a built-in override table.
func PresetYears() []int {
	years := make([]int, 0, len(presetSources))
	for y := range presetSources {
		years = append(years, y)
	}
	return years
}

// year2026JSON is the 2026 exchange calendar. Standard expirations
// follow the third-Friday rule except June, where the Juneteenth closure
// on Friday the 19th moves expiration to Thursday the 18th. VIX
// expirations follow the Wednesday-30-days-ahead cadence, with May
// landing on a Tuesday for the same June adjustment.
const year2026JSON = `{
  "year": 2026,
  "standard_expirations": [
    {"date": "2026-01-16"},
    {"date": "2026-02-20"},
    {"date": "2026-03-20"},
    {"date": "2026-04-17"},
    {"date": "2026-05-15"},
    {"date": "2026-06-18", "notes": "Thursday expiration; Juneteenth adjustment"},
    {"date": "2026-07-17"},
    {"date": "2026-08-21"},
    {"date": "2026-09-18"},
    {"date": "2026-10-16"},
    {"date": "2026-11-20"},
    {"date": "2026-12-18"}
  ],
  "vix_expirations": [
    {"date": "2026-01-21", "last_trading_day": "2026-01-20"},
    {"date": "2026-02-18", "last_trading_day": "2026-02-17"},
    {"date": "2026-03-18", "last_trading_day": "2026-03-17"},
    {"date": "2026-04-15", "last_trading_day": "2026-04-14"},
    {"date": "2026-05-19", "last_trading_day": "2026-05-18", "notes": "Tuesday expiration; follows June Juneteenth adjustment"},
    {"date": "2026-06-17", "last_trading_day": "2026-06-16"},
    {"date": "2026-07-22", "last_trading_day": "2026-07-21"},
    {"date": "2026-08-19", "last_trading_day": "2026-08-18"},
    {"date": "2026-09-16", "last_trading_day": "2026-09-15"},
    {"date": "2026-10-21", "last_trading_day": "2026-10-20"},
    {"date": "2026-11-18", "last_trading_day": "2026-11-17"},
    {"date": "2026-12-16", "last_trading_day": "2026-12-15"}
  ],
  "am_settled_last_trading_days": [
    {"date": "2026-01-15", "expiration_date": "2026-01-16"},
    {"date": "2026-02-19", "expiration_date": "2026-02-20"},
    {"date": "2026-03-19", "expiration_date": "2026-03-20"},
    {"date": "2026-04-16", "expiration_date": "2026-04-17"},
    {"date": "2026-05-14", "expiration_date": "2026-05-15"},
    {"date": "2026-06-17", "expiration_date": "2026-06-18", "notes": "Juneteenth adjustment"},
    {"date": "2026-07-16", "expiration_date": "2026-07-17"},
    {"date": "2026-08-20", "expiration_date": "2026-08-21"},
    {"date": "2026-09-17", "expiration_date": "2026-09-18"},
    {"date": "2026-10-15", "expiration_date": "2026-10-16"},
    {"date": "2026-11-19", "expiration_date": "2026-11-20"},
    {"date": "2026-12-17", "expiration_date": "2026-12-18"}
  ],
  "end_of_month_quarter": [
    {"date": "2026-03-31"},
    {"date": "2026-06-30"},
    {"date": "2026-09-30"},
    {"date": "2026-12-31"}
  ],
  "leaps_additions": [
    {"date": "2026-09-21", "leaps_year": 2029},
    {"date": "2026-10-19", "leaps_year": 2029},
    {"date": "2026-11-23", "leaps_year": 2029}
  ],
  "exchange_holidays": [
    {"date": "2026-01-01", "name": "New Year's Day", "day_of_week": "Thursday"},
    {"date": "2026-01-19", "name": "Martin Luther King Jr. Day", "day_of_week": "Monday"},
    {"date": "2026-02-16", "name": "Presidents' Day", "day_of_week": "Monday"},
    {"date": "2026-04-03", "name": "Good Friday", "day_of_week": "Friday"},
    {"date": "2026-05-25", "name": "Memorial Day", "day_of_week": "Monday"},
    {"date": "2026-06-19", "name": "Juneteenth", "day_of_week": "Friday"},
    {"date": "2026-07-03", "name": "Independence Day (Observed)", "day_of_week": "Friday"},
    {"date": "2026-09-07", "name": "Labor Day", "day_of_week": "Monday"},
    {"date": "2026-11-26", "name": "Thanksgiving Day", "day_of_week": "Thursday"},
    {"date": "2026-12-25", "name": "Christmas Day", "day_of_week": "Friday"}
  ],
  "frequencies": {
    "low": ["standard_expiration", "end_of_month_quarter"],
    "medium": ["standard_expiration", "end_of_month_quarter", "vix_expiration", "leaps_addition", "exchange_holiday"],
    "high": ["standard_expiration", "end_of_month_quarter", "vix_expiration", "leaps_addition", "exchange_holiday", "am_settled_last_trading_day"]
  }
}`
