package timezone

import (
	"strings"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Fortaleza")
	if err != nil {
		panic(err)
	}
}

// force the timezone the TRE publishes dates in because our servers
// are not guaranteed to run in Brazil, and date math based on
// <time.Time>.Year()/Month()/Day() shifts across midnight otherwise
func Now() time.Time {
	return time.Now().In(Location)
}

// BirthDateLayout is the textual day/month/year layout the record store
// and the TRE form both use.
const BirthDateLayout = "02/01/2006"

func ParseBirthDate(s string) (time.Time, error) {
	return time.ParseInLocation(BirthDateLayout, strings.TrimSpace(s), Location)
}

// Age returns the whole years elapsed between birth and now.
// Never negative, a birth date in the future counts as zero.
func Age(now, birth time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
