package staging

import (
	"math"
	"strings"
)

const (
	TierPerfect   = "Perfect"
	TierExcellent = "Excellent"
	TierGood      = "Good"
	TierAverage   = "Average"
	TierPoor      = "Poor"
)

const (
	RegionGroupAmericas      = "Americas"
	RegionGroupEurope        = "Europe"
	RegionGroupAsia          = "Asia"
	RegionGroupOceania       = "Oceania"
	RegionGroupSoutheastAsia = "Southeast Asia"
	RegionGroupOther         = "Other"
)

var regionGroups = map[string]string{
	"NA":   RegionGroupAmericas,
	"LAN":  RegionGroupAmericas,
	"LAS":  RegionGroupAmericas,
	"BR":   RegionGroupAmericas,
	"EUW":  RegionGroupEurope,
	"EUNE": RegionGroupEurope,
	"TR":   RegionGroupEurope,
	"RU":   RegionGroupEurope,
	"KR":   RegionGroupAsia,
	"JP":   RegionGroupAsia,
	"OCE":  RegionGroupOceania,
	"SEA":  RegionGroupSoutheastAsia,
}

// Round rounds half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// KDA is kills+assists when the player never died, otherwise (kills+assists)/deaths to two places.
func KDA(kills, deaths, assists int) float64 {
	if deaths == 0 {
		return float64(kills + assists)
	}
	return Round(float64(kills+assists)/float64(deaths), 2)
}

// WinningTeamID checks team 1 first, so two true flags resolve to 1.
func WinningTeamID(team1Win, team2Win *bool) *int {
	switch {
	case team1Win != nil && *team1Win:
		return intPtr(1)
	case team2Win != nil && *team2Win:
		return intPtr(2)
	default:
		return nil
	}
}

func GameDurationMinutes(seconds int) float64 {
	return Round(float64(seconds)/60, 2)
}

// MajorPatch truncates a game version to its first two segments (14.1.523.1234 -> 14.1).
// Versions with fewer segments are returned as is.
func MajorPatch(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return version
}

func RegionGroup(region *string) string {
	if region == nil {
		return RegionGroupOther
	}
	if group, ok := regionGroups[*region]; ok {
		return group
	}
	return RegionGroupOther
}

// DamagePerGold is nil when either side is missing or no gold was earned.
func DamagePerGold(damage, gold *int) *float64 {
	if damage == nil || gold == nil || *gold <= 0 {
		return nil
	}
	return floatPtr(Round(float64(*damage)/float64(*gold), 4))
}

// PerMinute divides value by the game length in minutes, nil when either is missing or
// the game has no length.
func PerMinute(value, durationSeconds *int, places int) *float64 {
	if value == nil || durationSeconds == nil || *durationSeconds <= 0 {
		return nil
	}
	return floatPtr(Round(float64(*value)/(float64(*durationSeconds)/60), places))
}

func PerformanceTier(kills, deaths, assists int) string {
	if deaths == 0 {
		return TierPerfect
	}
	ratio := float64(kills+assists) / float64(deaths)
	switch {
	case ratio >= 3.0:
		return TierExcellent
	case ratio >= 2.0:
		return TierGood
	case ratio >= 1.0:
		return TierAverage
	default:
		return TierPoor
	}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
