package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdImage struct {
	URL     string `bson:"url" json:"url" binding:"required"`
	AltText string `bson:"altText,omitempty" json:"altText,omitempty"`
	Width   int    `bson:"width,omitempty" json:"width,omitempty"`
	Height  int    `bson:"height,omitempty" json:"height,omitempty"`
}

type AdLink struct {
	URL    string `bson:"url" json:"url" binding:"required"`
	Target string `bson:"target,omitempty" json:"target,omitempty"`
	Rel    string `bson:"rel,omitempty" json:"rel,omitempty"`
}

type AdDimensions struct {
	Width      int  `bson:"width" json:"width"`
	Height     int  `bson:"height" json:"height"`
	Responsive bool `bson:"responsive" json:"responsive"`
}

type Demographics struct {
	AgeGroups []string `bson:"ageGroups,omitempty" json:"ageGroups,omitempty"`
	Interests []string `bson:"interests,omitempty" json:"interests,omitempty"`
}

type Targeting struct {
	Categories   []TargetCategory `bson:"categories,omitempty" json:"categories,omitempty"`
	Devices      []Device         `bson:"devices,omitempty" json:"devices,omitempty"`
	Locations    []string         `bson:"locations,omitempty" json:"locations,omitempty"`
	Demographics Demographics     `bson:"demographics" json:"demographics"`
}

// HourRange is a daily window in "HH:MM" form, start inclusive, end exclusive.
type HourRange struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

type Schedule struct {
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	EndDate   time.Time  `bson:"endDate" json:"endDate"`
	Timezone  string     `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Days      []string   `bson:"days,omitempty" json:"days,omitempty"`
	Hours     *HourRange `bson:"hours,omitempty" json:"hours,omitempty"`
}

type Budget struct {
	Type        BudgetType `bson:"type" json:"type"`
	Amount      float64    `bson:"amount" json:"amount"`
	Currency    string     `bson:"currency" json:"currency"`
	DailyLimit  float64    `bson:"dailyLimit,omitempty" json:"dailyLimit,omitempty"`
	TotalBudget float64    `bson:"totalBudget,omitempty" json:"totalBudget,omitempty"`
}

type AdAnalytics struct {
	Impressions int64     `bson:"impressions" json:"impressions"`
	Clicks      int64     `bson:"clicks" json:"clicks"`
	CTR         float64   `bson:"ctr" json:"ctr"`
	Spent       float64   `bson:"spent" json:"spent"`
	Conversions int64     `bson:"conversions" json:"conversions"`
	LastTracked time.Time `bson:"lastTracked" json:"lastTracked"`
}

type Advertiser struct {
	Name          string `bson:"name" json:"name" binding:"required"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Website       string `bson:"website,omitempty" json:"website,omitempty"`
	ContactPerson string `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
}

type Advertisement struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Image       AdImage             `bson:"image" json:"image"`
	Link        AdLink              `bson:"link" json:"link"`
	Position    AdPosition          `bson:"position" json:"position"`
	Dimensions  AdDimensions        `bson:"dimensions" json:"dimensions"`
	Targeting   Targeting           `bson:"targeting" json:"targeting"`
	Schedule    Schedule            `bson:"schedule" json:"schedule"`
	Budget      Budget              `bson:"budget" json:"budget"`
	Analytics   AdAnalytics         `bson:"analytics" json:"analytics"`
	Status      AdStatus            `bson:"status" json:"status"`
	Priority    int                 `bson:"priority" json:"priority"`
	Advertiser  Advertiser          `bson:"advertiser" json:"advertiser"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	ApprovedBy  *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsCurrentlyActive is the stored-flag check: status active and now inside
// the schedule window. Day and hour filters are applied by the selector.
func (a Advertisement) IsCurrentlyActive(now time.Time) bool {
	return a.Status == AdActive &&
		!now.Before(a.Schedule.StartDate) &&
		!now.After(a.Schedule.EndDate)
}

const (
	DefaultAdPriority = 5
	DefaultTimezone   = "Asia/Kolkata"
	DefaultCurrency   = "INR"
)

// ApplyDefaults fills the defaults a freshly created advertisement carries.
func (a *Advertisement) ApplyDefaults() {
	if a.Status == "" {
		a.Status = AdDraft
	}
	if a.Priority == 0 {
		a.Priority = DefaultAdPriority
	}
	if a.Schedule.Timezone == "" {
		a.Schedule.Timezone = DefaultTimezone
	}
	if a.Budget.Type == "" {
		a.Budget.Type = BudgetFixed
	}
	if a.Budget.Currency == "" {
		a.Budget.Currency = DefaultCurrency
	}
	if a.Link.Target == "" {
		a.Link.Target = "_blank"
	}
	if a.Link.Rel == "" {
		a.Link.Rel = "noopener noreferrer"
	}
}
