package finance

import "time"

// exchangeLocation returns the exchange's IANA zone, falling back to a fixed
// zone built from the reported GMT offset if tzdata is missing.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("EXCH", gmtOffset)
}

// tradingDate maps a bar timestamp to its exchange-local calendar date at
// midnight UTC, so dates from different exchanges line up.
func tradingDate(ts int64, loc *time.Location) time.Time {
	t := time.Unix(ts, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
