package models

import (
	"fmt"
	"strings"

	"trendhub/internal/apperr"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryTShirts     Category = "t-shirts"
	CategoryShoes       Category = "shoes"
	CategoryJeans       Category = "jeans"
	CategoryDresses     Category = "dresses"
	CategoryAccessories Category = "accessories"
	CategoryBags        Category = "bags"
	CategoryJewelry     Category = "jewelry"
	CategoryWatches     Category = "watches"
	CategoryOther       Category = "other"

	// CategoryAll is only meaningful in advertisement targeting.
	CategoryAll Category = "all"
)

// Categories lists every product category in display order.
var Categories = []Category{
	CategoryTShirts,
	CategoryShoes,
	CategoryJeans,
	CategoryDresses,
	CategoryAccessories,
	CategoryBags,
	CategoryJewelry,
	CategoryWatches,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseCategory(value string) (Category, error) {
	c := Category(normalizeEnum(value))
	if !c.Valid() {
		return "", invalidEnum("category", value)
	}
	return c, nil
}

// TargetCategory accepts the product categories plus "all".
type TargetCategory Category

func (c *TargetCategory) UnmarshalText(text []byte) error {
	value := Category(normalizeEnum(string(text)))
	if value != CategoryAll && !value.Valid() {
		return invalidEnum("targeting category", string(text))
	}
	*c = TargetCategory(value)
	return nil
}

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductDraft    ProductStatus = "draft"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductInactive, ProductDraft:
		return true
	}
	return false
}

func (s *ProductStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseProductStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseProductStatus(value string) (ProductStatus, error) {
	s := ProductStatus(normalizeEnum(value))
	if !s.Valid() {
		return "", invalidEnum("product status", value)
	}
	return s, nil
}

type Availability string

const (
	InStock    Availability = "in-stock"
	OutOfStock Availability = "out-of-stock"
	Limited    Availability = "limited"
	PreOrder   Availability = "pre-order"
)

func (a Availability) Valid() bool {
	switch a {
	case InStock, OutOfStock, Limited, PreOrder:
		return true
	}
	return false
}

func (a *Availability) UnmarshalText(text []byte) error {
	parsed, err := ParseAvailability(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func ParseAvailability(value string) (Availability, error) {
	a := Availability(normalizeEnum(value))
	if !a.Valid() {
		return "", invalidEnum("availability", value)
	}
	return a, nil
}

// AdPosition is one of the fixed advertisement slots.
type AdPosition string

const (
	PositionHeaderTop     AdPosition = "header-top"
	PositionHeaderBottom  AdPosition = "header-bottom"
	PositionSidebarLeft   AdPosition = "sidebar-left"
	PositionSidebarRight  AdPosition = "sidebar-right"
	PositionContentTop    AdPosition = "content-top"
	PositionContentMiddle AdPosition = "content-middle"
	PositionContentBottom AdPosition = "content-bottom"
	PositionFooterTop     AdPosition = "footer-top"
	PositionFooterBottom  AdPosition = "footer-bottom"
	PositionPopup         AdPosition = "popup"
	PositionBanner        AdPosition = "banner"
)

var AdPositions = []AdPosition{
	PositionHeaderTop,
	PositionHeaderBottom,
	PositionSidebarLeft,
	PositionSidebarRight,
	PositionContentTop,
	PositionContentMiddle,
	PositionContentBottom,
	PositionFooterTop,
	PositionFooterBottom,
	PositionPopup,
	PositionBanner,
}

func (p AdPosition) Valid() bool {
	for _, known := range AdPositions {
		if p == known {
			return true
		}
	}
	return false
}

func (p *AdPosition) UnmarshalText(text []byte) error {
	parsed, err := ParseAdPosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func ParseAdPosition(value string) (AdPosition, error) {
	p := AdPosition(normalizeEnum(value))
	if !p.Valid() {
		return "", invalidEnum("position", value)
	}
	return p, nil
}

type AdStatus string

const (
	AdDraft     AdStatus = "draft"
	AdActive    AdStatus = "active"
	AdPaused    AdStatus = "paused"
	AdCompleted AdStatus = "completed"
	AdCancelled AdStatus = "cancelled"
)

func (s AdStatus) Valid() bool {
	switch s {
	case AdDraft, AdActive, AdPaused, AdCompleted, AdCancelled:
		return true
	}
	return false
}

func (s *AdStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseAdStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseAdStatus(value string) (AdStatus, error) {
	s := AdStatus(normalizeEnum(value))
	if !s.Valid() {
		return "", invalidEnum("ad status", value)
	}
	return s, nil
}

type BudgetType string

const (
	BudgetCPM   BudgetType = "cpm"
	BudgetCPC   BudgetType = "cpc"
	BudgetFixed BudgetType = "fixed"
)

func (b *BudgetType) UnmarshalText(text []byte) error {
	value := BudgetType(normalizeEnum(string(text)))
	switch value {
	case BudgetCPM, BudgetCPC, BudgetFixed:
		*b = value
		return nil
	}
	return invalidEnum("budget type", string(text))
}

type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
)

func (d Device) Valid() bool {
	switch d {
	case DeviceDesktop, DeviceTablet, DeviceMobile:
		return true
	}
	return false
}

func (d *Device) UnmarshalText(text []byte) error {
	parsed, err := ParseDevice(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func ParseDevice(value string) (Device, error) {
	d := Device(normalizeEnum(value))
	if !d.Valid() {
		return "", invalidEnum("device", value)
	}
	return d, nil
}

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "super-admin"
	RoleAdmin      AdminRole = "admin"
	RoleEditor     AdminRole = "editor"
)

func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

func (r *AdminRole) UnmarshalText(text []byte) error {
	parsed, err := ParseAdminRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseAdminRole(value string) (AdminRole, error) {
	r := AdminRole(normalizeEnum(value))
	if !r.Valid() {
		return "", invalidEnum("role", value)
	}
	return r, nil
}

type SiteStatus string

const (
	SiteActive      SiteStatus = "active"
	SiteInactive    SiteStatus = "inactive"
	SiteMaintenance SiteStatus = "maintenance"
)

func (s *SiteStatus) UnmarshalText(text []byte) error {
	value := SiteStatus(normalizeEnum(string(text)))
	switch value {
	case SiteActive, SiteInactive, SiteMaintenance:
		*s = value
		return nil
	}
	return invalidEnum("site status", string(text))
}

func normalizeEnum(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func invalidEnum(kind, value string) error {
	return fmt.Errorf("%w: unknown %s %q", apperr.ErrInvalidArgument, kind, value)
}
