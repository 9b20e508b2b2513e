package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Tier is a subscription level governing regional headcount.
type Tier string

const (
	TierFree     Tier = "free"
	TierBasic    Tier = "basic"
	TierEnhanced Tier = "enhanced"
	TierPremium  Tier = "premium"
)

// AllTiers lists every tier in display order (most restrictive first).
var AllTiers = []Tier{TierPremium, TierEnhanced, TierBasic, TierFree}

// ParseTier normalizes a tier name, rejecting unknown values.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTiers {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown subscription tier %q", s)
}

// Rank orders tiers for sorting; lower ranks are shown first.
func (t Tier) Rank() int {
	for i, known := range AllTiers {
		if t == known {
			return i
		}
	}
	return len(AllTiers)
}

// LimitScope is the location scope of a SubscriptionLimit row.
type LimitScope string

const (
	ScopeGlobal LimitScope = "global"
	ScopeRegion LimitScope = "region"
)

// GlobalLocation is the location_value used by global rows.
const GlobalLocation = ""

// SubscriptionLimit caps the number of occupants of a tier in a location.
// MaxCount nil means unlimited.
type SubscriptionLimit struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Scope         LimitScope `gorm:"type:varchar(16);not null;index:ux_subscription_limits_location,unique,priority:1" json:"scope" validate:"required,oneof=global region"`
	LocationValue string     `gorm:"type:varchar(64);not null;default:'';index:ux_subscription_limits_location,unique,priority:2" json:"location_value"`
	Tier          Tier       `gorm:"type:varchar(16);not null;index:ux_subscription_limits_location,unique,priority:3" json:"tier" validate:"required,oneof=free basic enhanced premium"`
	MaxCount      *int       `json:"max_count" validate:"omitempty,min=0"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the SubscriptionLimit model
func (SubscriptionLimit) TableName() string {
	return "subscription_limits"
}

func (l *SubscriptionLimit) Validate() error {
	v := validator.New()
	if err := v.Struct(l); err != nil {
		return err
	}
	if l.Scope == ScopeGlobal && l.LocationValue != GlobalLocation {
		return fmt.Errorf("global limits must not carry a location value")
	}
	if l.Scope == ScopeRegion && l.LocationValue == GlobalLocation {
		return fmt.Errorf("region limits require a location value")
	}
	return nil
}

// RegionLocation formats a region id as a location_value.
func RegionLocation(regionID uint) string {
	return fmt.Sprintf("%d", regionID)
}
