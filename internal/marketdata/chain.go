package marketdata

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/optsignals/internal/contracts"
)

// IST is the exchange time zone
var IST = time.FixedZone("IST", 5*60*60+30*60)

// marketClose is the expiry cut-off on expiry day (15:30 IST)
const (
	marketCloseHour   = 15
	marketCloseMinute = 30
	hoursPerYear      = 365 * 24
)

// ATMStrike rounds spot to the nearest strike. Halves go to the even
// multiple, the same way the dashboard's original backend rounded.
func ATMStrike(spot, interval float64) float64 {
	if interval <= 0 {
		return spot
	}
	return math.RoundToEven(spot/interval) * interval
}

// SelectStrikes returns [ATM, ATM-interval]: ITM for calls, OTM for puts
func SelectStrikes(spot, interval float64) []float64 {
	atm := ATMStrike(spot, interval)
	return []float64{atm, atm - interval}
}

// NextExpiry returns the next weekly expiry (Thursday). On a Thursday the
// following week's contract is used.
func NextExpiry(now time.Time) time.Time {
	local := now.In(IST)
	days := (int(time.Thursday) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := local.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), marketCloseHour, marketCloseMinute, 0, 0, IST)
}

// InstrumentName builds the exchange trading symbol, e.g. NFO:NIFTY24JAN1820000CE
func InstrumentName(segment, symbol string, expiry time.Time, strike float64, side contracts.OptionSide) string {
	code := strings.ToUpper(expiry.In(IST).Format("06Jan02"))
	return fmt.Sprintf("%s:%s%s%d%s", segment, symbol, code, int64(strike), side)
}

// YearsToExpiry converts the time left until expiry into years. Past
// expiries return 0, which the engine maps to its default horizon.
func YearsToExpiry(now, expiry time.Time) float64 {
	left := expiry.Sub(now)
	if left <= 0 {
		return 0
	}
	return left.Hours() / hoursPerYear
}
