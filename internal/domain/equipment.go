package domain

import (
	"fmt"
	"time"
)

type EquipmentCategory string

const (
	EquipmentCategoryTractor    EquipmentCategory = "tractor"
	EquipmentCategoryHarvester  EquipmentCategory = "harvester"
	EquipmentCategorySeeder     EquipmentCategory = "seeder"
	EquipmentCategorySprayer    EquipmentCategory = "sprayer"
	EquipmentCategoryPlow       EquipmentCategory = "plow"
	EquipmentCategoryIrrigation EquipmentCategory = "irrigation"
	EquipmentCategoryDrone      EquipmentCategory = "drone"
	EquipmentCategoryOther      EquipmentCategory = "other"
)

func ParseEquipmentCategory(s string) (EquipmentCategory, error) {
	switch EquipmentCategory(s) {
	case EquipmentCategoryTractor, EquipmentCategoryHarvester, EquipmentCategorySeeder,
		EquipmentCategorySprayer, EquipmentCategoryPlow, EquipmentCategoryIrrigation,
		EquipmentCategoryDrone, EquipmentCategoryOther:
		return EquipmentCategory(s), nil
	}
	return "", fmt.Errorf("unknown equipment category %q", s)
}

type EquipmentStatus string

const (
	EquipmentStatusActive      EquipmentStatus = "active"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusInactive    EquipmentStatus = "inactive"
)

type DiscountType string

const (
	DiscountTypeSeasonal DiscountType = "seasonal"
	DiscountTypeDuration DiscountType = "duration"
	DiscountTypeRepeat   DiscountType = "repeat-customer"
)

// DiscountRule is a time-boxed percentage discount from the rate card.
// A rule applies when the evaluation time falls inside its window and the
// requested duration meets the minimum.
type DiscountRule struct {
	Type             DiscountType `json:"type"`
	Percentage       int32        `json:"percentage"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	MinRentalHours   int32        `json:"min_rental_hours"`
}

type Specifications struct {
	Horsepower int32   `json:"horsepower,omitempty"`
	FuelType   string  `json:"fuel_type,omitempty"`
	WidthM     float64 `json:"width_m,omitempty"`
	HeightM    float64 `json:"height_m,omitempty"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

type Equipment struct {
	ID          int32             `json:"id"`
	OwnerID     int32             `json:"owner_id"`
	Owner       *User             `json:"owner,omitempty"` // populated on detail fetches
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    EquipmentCategory `json:"category"`
	SubCategory string            `json:"sub_category,omitempty"`

	Manufacturer   string         `json:"manufacturer"`
	Model          string         `json:"model"`
	Year           int32          `json:"year,omitempty"`
	Specifications Specifications `json:"specifications"`

	// Rate card. Weekly rate is informational; pricing uses hourly/daily.
	RatePerHourCents   int32          `json:"rate_per_hour_cents"`
	RatePerDayCents    int32          `json:"rate_per_day_cents"`
	RatePerWeekCents   int32          `json:"rate_per_week_cents"`
	MinimumRentalHours int32          `json:"minimum_rental_hours"`
	DepositCents       int32          `json:"deposit_cents"`
	Discounts          []DiscountRule `json:"discounts,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   Address `json:"address"`

	IsAvailable bool `json:"is_available"`

	OperatorIncluded   bool  `json:"operator_included"`
	OperatorFeeCents   int32 `json:"operator_fee_cents"`
	OperatorFeeHourly  bool  `json:"operator_fee_hourly"`
	DeliveryAvailable  bool  `json:"delivery_available"`
	DeliveryFeeCents   int32 `json:"delivery_fee_cents"`

	// Derived rating aggregate. Invariant: RatingAverage equals the mean of
	// all review ratings and RatingCount equals the number of reviews.
	RatingAverage float64 `json:"rating_average"`
	RatingCount   int32   `json:"rating_count"`

	Status    EquipmentStatus `json:"status"`
	CreatedOn time.Time       `json:"created_on"`
	UpdatedOn time.Time       `json:"updated_on"`
}

// Review is an append-only equipment review. At most one per
// (equipment, renter) pair.
type Review struct {
	ID          int32     `json:"id"`
	EquipmentID int32     `json:"equipment_id"`
	RenterID    int32     `json:"renter_id"`
	Rating      int32     `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
}

// ScheduleEntry is one committed interval on an equipment's calendar,
// owned by a non-terminal booking.
type ScheduleEntry struct {
	ID          int32     `json:"id"`
	EquipmentID int32     `json:"equipment_id"`
	BookingID   int32     `json:"booking_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}
