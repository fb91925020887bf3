// internal/decision/rules/asset.go
package rules

import (
	"strings"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

func vehicleType(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	vt := normalizeVehicleType(ctx.Questionnaire.Vehicle.Type)
	if vt == "" {
		return manual("vehicle type not declared", nil)
	}
	return funnel(th, vt,
		func(t thresholds.TierThresholds) bool { return containsFold(t.Asset.AllowedVehicleTypes, vt) },
		func(t thresholds.TierThresholds) interface{} { return t.Asset.AllowedVehicleTypes },
		"vehicle type")
}

func vehicleValue(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	value := ctx.Questionnaire.Vehicle.Value
	if !value.IsPositive() {
		return manual("vehicle value not declared", value.String())
	}
	return funnel(th, value.String(),
		func(t thresholds.TierThresholds) bool { return value.LessThanOrEqual(t.Asset.MaxVehicleValue) },
		func(t thresholds.TierThresholds) interface{} { return t.Asset.MaxVehicleValue.String() },
		"vehicle value")
}

func vehicleMileage(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	km := ctx.Questionnaire.Vehicle.MileageKm
	if km < 0 {
		return manual("vehicle mileage is negative", km)
	}
	return funnel(th, km,
		func(t thresholds.TierThresholds) bool { return km <= t.Asset.MaxMileageKm },
		func(t thresholds.TierThresholds) interface{} { return t.Asset.MaxMileageKm },
		"vehicle mileage")
}

func vehicleAge(ctx *models.EnrichedContext, th *thresholds.Set) models.RuleResult {
	months := ctx.Questionnaire.Vehicle.AgeMonths
	if months < 0 {
		return manual("vehicle age is negative", months)
	}
	return funnel(th, months,
		func(t thresholds.TierThresholds) bool { return months <= t.Asset.MaxVehicleAgeMonths },
		func(t thresholds.TierThresholds) interface{} { return t.Asset.MaxVehicleAgeMonths },
		"vehicle age in months")
}

func normalizeVehicleType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
