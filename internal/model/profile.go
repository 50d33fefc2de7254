package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// RiskProfile classifies an investor's appetite for risk.
type RiskProfile string

const (
	RiskProfileConservative RiskProfile = "CONSERVATIVE"
	RiskProfileModerate     RiskProfile = "MODERATE"
	RiskProfileAggressive   RiskProfile = "AGGRESSIVE"
)

// RiskProfiles lists every profile in ascending appetite order.
var RiskProfiles = []RiskProfile{
	RiskProfileConservative,
	RiskProfileModerate,
	RiskProfileAggressive,
}

var profileAliases = map[string]RiskProfile{
	"conservative": RiskProfileConservative,
	"conservador":  RiskProfileConservative,
	"moderate":     RiskProfileModerate,
	"moderado":     RiskProfileModerate,
	"aggressive":   RiskProfileAggressive,
	"agressivo":    RiskProfileAggressive,
}

// ParseRiskProfile resolves a profile from its enum name or a Portuguese label.
func ParseRiskProfile(s string) (RiskProfile, error) {
	if p, ok := profileAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return "", eris.Errorf("model: unknown risk profile %q", s)
}

// Valid reports whether p is one of the known profiles.
func (p RiskProfile) Valid() bool {
	switch p {
	case RiskProfileConservative, RiskProfileModerate, RiskProfileAggressive:
		return true
	}
	return false
}

// Description returns a short human-readable summary of the profile.
func (p RiskProfile) Description() string {
	switch p {
	case RiskProfileConservative:
		return "Low turnover profile focused on liquidity"
	case RiskProfileModerate:
		return "Balance between liquidity and return"
	case RiskProfileAggressive:
		return "Seeks high return, accepts higher risk"
	}
	return ""
}
