package utils

import (
	"time"
)

const (
	// DayLayout is the layout of a snapshot's day bucket.
	DayLayout = "2006-01-02"
	// CrawlTimeLayout is the layout of a snapshot's time of day.
	CrawlTimeLayout = "15:04"
	// FileTimeLayout is CrawlTimeLayout made safe for file names.
	FileTimeLayout = "15-04"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Shanghai"

// LoadLocation resolves an IANA zone name. If the tz database is not
// available, "Asia/Shanghai" falls back to a fixed UTC+8 zone and anything
// else to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	if name == DefaultTimezone {
		return time.FixedZone("CST", 8*60*60)
	}
	return time.UTC
}

// Clock yields the current time in a fixed location.
// The zero value uses time.Now in UTC.
type Clock struct {
	Loc *time.Location
	// NowFunc overrides time.Now, for tests.
	NowFunc func() time.Time
}

// NewClock returns a clock for the named zone.
func NewClock(timezone string) Clock {
	return Clock{Loc: LoadLocation(timezone)}
}

// Now returns the current time in the clock's location.
func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFunc != nil {
		now = c.NowFunc
	}
	return now().In(c.location())
}

// DayBucket formats t as the snapshot day bucket.
func (c Clock) DayBucket(t time.Time) string {
	return t.In(c.location()).Format(DayLayout)
}

// CrawlTime formats t as the snapshot time of day.
func (c Clock) CrawlTime(t time.Time) string {
	return t.In(c.location()).Format(CrawlTimeLayout)
}

// ParseDay parses a day bucket in the clock's location.
func (c Clock) ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, c.location())
}

// FormatDateTime formats t as "2006-01-02 15:04:05 MST".
func (c Clock) FormatDateTime(t time.Time) string {
	return t.In(c.location()).Format("2006-01-02 15:04:05 MST")
}

func (c Clock) location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// FileSafeCrawlTime converts "15:04" to "15-04".
func FileSafeCrawlTime(crawlTime string) string {
	t, err := time.Parse(CrawlTimeLayout, crawlTime)
	if err != nil {
		return crawlTime
	}
	return t.Format(FileTimeLayout)
}
