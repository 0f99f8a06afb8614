// Package inventory classifies stocked implant lots by expiration outlook and
// checks them against recall lists.
package inventory

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultWarningDays is how close to expiry a lot must be to count as expiring soon.
const DefaultWarningDays = 30

// statusRank orders statuses from most to least urgent.
var statusRank = map[model.ExpirationStatus]int{
	model.ExpirationExpired:      0,
	model.ExpirationAtRisk:       1,
	model.ExpirationExpiringSoon: 2,
	model.ExpirationOK:           3,
}

// Statuses lists every expiration status, most urgent first.
var Statuses = []model.ExpirationStatus{
	model.ExpirationExpired,
	model.ExpirationAtRisk,
	model.ExpirationExpiringSoon,
	model.ExpirationOK,
}

// Assess classifies one lot as of the given date.
//
// A lot is expired once its expiration date is today or earlier. It is at risk
// when usage will not consume it before expiry: the units left over after
// ceil(ADU * days to expiry) are at risk, and with no recorded usage every
// unit is. Otherwise it is expiring soon inside the warning window, or OK.
func Assess(item model.InventoryItem, asOf time.Time, warningDays int) model.ExpirationAssessment {
	a := model.ExpirationAssessment{
		Item:         item,
		DaysToExpiry: model.CalendarDays(asOf, item.ExpirationDate),
		Status:       model.ExpirationOK,
		ValueAtRisk:  decimal.Zero,
	}

	if item.AvgDailyUsage > 0 {
		days := float64(item.OnHand) / item.AvgDailyUsage
		a.DaysToDeplete = &days
	}

	switch {
	case a.DaysToExpiry <= 0:
		a.Status = model.ExpirationExpired
		a.UnitsAtRisk = item.OnHand
	default:
		a.UnitsAtRisk = unitsAtRisk(item, a.DaysToExpiry)
		switch {
		case a.UnitsAtRisk > 0:
			a.Status = model.ExpirationAtRisk
		case a.DaysToExpiry <= warningDays:
			a.Status = model.ExpirationExpiringSoon
		}
	}

	a.ValueAtRisk = item.UnitCost.Mul(decimal.NewFromInt(int64(a.UnitsAtRisk)))
	return a
}

// AssessAll classifies every lot and orders the result most urgent first,
// then by soonest expiry, then by item and lot.
func AssessAll(items []model.InventoryItem, asOf time.Time, warningDays int) []model.ExpirationAssessment {
	assessments := make([]model.ExpirationAssessment, len(items))
	for i, item := range items {
		assessments[i] = Assess(item, asOf, warningDays)
	}

	sort.SliceStable(assessments, func(i, j int) bool {
		a, b := assessments[i], assessments[j]
		if statusRank[a.Status] != statusRank[b.Status] {
			return statusRank[a.Status] < statusRank[b.Status]
		}
		if a.DaysToExpiry != b.DaysToExpiry {
			return a.DaysToExpiry < b.DaysToExpiry
		}
		if a.Item.ItemID != b.Item.ItemID {
			return a.Item.ItemID < b.Item.ItemID
		}
		return a.Item.LotNumber < b.Item.LotNumber
	})

	return assessments
}

// StatusTotals aggregates assessments sharing a status.
type StatusTotals struct {
	ValueAtRisk decimal.Decimal
	Lots        int
	UnitsAtRisk int
}

// Summarize totals assessments per status. Every status is present.
func Summarize(assessments []model.ExpirationAssessment) map[model.ExpirationStatus]StatusTotals {
	totals := make(map[model.ExpirationStatus]StatusTotals, len(Statuses))
	for _, status := range Statuses {
		totals[status] = StatusTotals{ValueAtRisk: decimal.Zero}
	}

	for _, a := range assessments {
		t := totals[a.Status]
		t.Lots++
		t.UnitsAtRisk += a.UnitsAtRisk
		t.ValueAtRisk = t.ValueAtRisk.Add(a.ValueAtRisk)
		totals[a.Status] = t
	}

	return totals
}

func unitsAtRisk(item model.InventoryItem, daysToExpiry int) int {
	if item.OnHand <= 0 {
		return 0
	}
	if item.AvgDailyUsage <= 0 {
		return item.OnHand
	}

	consumed := math.Ceil(item.AvgDailyUsage * float64(daysToExpiry))
	if consumed >= float64(item.OnHand) {
		return 0
	}
	return item.OnHand - int(consumed)
}
