package group

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Rule keys understood by the engine. Unknown keys are kept as-is.
const (
	RuleWorkStart          = "work_start"
	RuleWorkEnd            = "work_end"
	RuleFlexibleMinutes    = "flexible_minutes"
	RuleCoreWorkStart      = "core_work_start"
	RuleCoreWorkEnd        = "core_work_end"
	RuleLocationRequired   = "location_required"
	RuleOvertimeMultiplier = "overtime_multiplier"
	RuleOfficeLatitude     = "office_latitude"
	RuleOfficeLongitude    = "office_longitude"
	RuleOfficeRadiusMeters = "office_radius_meters"
	RuleWorkDays           = "work_days" // ISO weekdays, 1=Monday ... 7=Sunday
)

var defaultWorkDays = []int{1, 2, 3, 4, 5}

// Rules is the opaque key-value configuration of a group.
type Rules map[string]any

func (r Rules) Clone() Rules {
	if r == nil {
		return Rules{}
	}
	return maps.Clone(r)
}

func (r Rules) String(key string) string {
	return cast.ToString(r[key])
}

// FlexibleMinutes returns nil when the rule is not configured.
func (r Rules) FlexibleMinutes() (*int, error) {
	v, ok := r[RuleFlexibleMinutes]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleFlexibleMinutes, err)
	}
	return &n, nil
}

func (r Rules) LocationRequired() bool {
	return cast.ToBool(r[RuleLocationRequired])
}

// OvertimeMultiplier defaults to 1 when not configured.
func (r Rules) OvertimeMultiplier() (decimal.Decimal, error) {
	v, ok := r[RuleOvertimeMultiplier]
	if !ok || v == nil {
		return decimal.NewFromInt(1), nil
	}
	d, err := decimal.NewFromString(cast.ToString(v))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", RuleOvertimeMultiplier, err)
	}
	return d, nil
}

// WorkDays returns the ISO weekdays (1=Monday ... 7=Sunday) the group works,
// Monday to Friday when not configured.
func (r Rules) WorkDays() ([]int, error) {
	v, ok := r[RuleWorkDays]
	if !ok || v == nil {
		return defaultWorkDays, nil
	}
	days, err := cast.ToIntSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleWorkDays, err)
	}
	return days, nil
}

// WorksOn reports whether date falls on one of the group's work days.
func (r Rules) WorksOn(date time.Time) (bool, error) {
	days, err := r.WorkDays()
	if err != nil {
		return false, err
	}
	iso := int(date.Weekday())
	if iso == 0 {
		iso = 7
	}
	return slices.Contains(days, iso), nil
}

// Geofence is the office area check-ins must come from.
type Geofence struct {
	Center       utils.Coordinates
	RadiusMeters float64
}

// Geofence returns nil when no office location is configured.
func (r Rules) Geofence() (*Geofence, error) {
	_, hasLat := r[RuleOfficeLatitude]
	_, hasLng := r[RuleOfficeLongitude]
	if !hasLat && !hasLng {
		return nil, nil
	}
	lat, err := cast.ToFloat64E(r[RuleOfficeLatitude])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleOfficeLatitude, err)
	}
	lng, err := cast.ToFloat64E(r[RuleOfficeLongitude])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleOfficeLongitude, err)
	}
	radius, err := cast.ToFloat64E(r[RuleOfficeRadiusMeters])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleOfficeRadiusMeters, err)
	}
	return &Geofence{
		Center:       utils.Coordinates{Latitude: lat, Longitude: lng},
		RadiusMeters: radius,
	}, nil
}

// Validate checks the typed rules the engine reads.
func (r Rules) Validate() error {
	var errs validator.ValidationErrors

	if flex, err := r.FlexibleMinutes(); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "rules." + RuleFlexibleMinutes,
			Message: "flexible_minutes must be a number",
		})
	} else if flex != nil && (*flex < 0 || *flex > 120) {
		errs = append(errs, validator.ValidationError{
			Field:   "rules." + RuleFlexibleMinutes,
			Message: "flexible_minutes must be between 0 and 120",
		})
	}

	for _, key := range []string{RuleWorkStart, RuleWorkEnd, RuleCoreWorkStart, RuleCoreWorkEnd} {
		if v, ok := r[key]; ok && !validator.IsValidClock(cast.ToString(v)) {
			errs = append(errs, validator.ValidationError{
				Field:   "rules." + key,
				Message: key + " must use HH:MM format",
			})
		}
	}

	if days, err := r.WorkDays(); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "rules." + RuleWorkDays,
			Message: "work_days must be a list of weekday numbers",
		})
	} else {
		for _, d := range days {
			if d < 1 || d > 7 {
				errs = append(errs, validator.ValidationError{
					Field:   "rules." + RuleWorkDays,
					Message: "work_days must contain values between 1 (Monday) and 7 (Sunday)",
				})
				break
			}
		}
	}

	if m, err := r.OvertimeMultiplier(); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "rules." + RuleOvertimeMultiplier,
			Message: "overtime_multiplier must be a decimal number",
		})
	} else if m.LessThan(decimal.NewFromInt(1)) {
		errs = append(errs, validator.ValidationError{
			Field:   "rules." + RuleOvertimeMultiplier,
			Message: "overtime_multiplier must be at least 1",
		})
	}

	if fence, err := r.Geofence(); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "rules.office",
			Message: "office_latitude, office_longitude and office_radius_meters must be numbers",
		})
	} else if fence != nil {
		if !validator.IsValidCoordinate(fence.Center.Latitude, fence.Center.Longitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "rules.office",
				Message: "office coordinates are out of range",
			})
		}
		if fence.RadiusMeters <= 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "rules." + RuleOfficeRadiusMeters,
				Message: "office_radius_meters must be positive",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
