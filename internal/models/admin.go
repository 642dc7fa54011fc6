package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CRUD struct {
	Create bool `bson:"create" json:"create"`
	Read   bool `bson:"read" json:"read"`
	Update bool `bson:"update" json:"update"`
	Delete bool `bson:"delete" json:"delete"`
}

// Permissions is the per-resource permission matrix of an admin.
type Permissions struct {
	Products CRUD `bson:"products" json:"products"`
	Ads      CRUD `bson:"ads" json:"ads"`
	Settings CRUD `bson:"settings" json:"settings"`
	Users    CRUD `bson:"users" json:"users"`
}

// Allows reports whether action ("create", "read", "update", "delete") is
// granted on resource ("products", "ads", "settings", "users").
func (p Permissions) Allows(resource, action string) bool {
	var set CRUD
	switch resource {
	case "products":
		set = p.Products
	case "ads":
		set = p.Ads
	case "settings":
		set = p.Settings
	case "users":
		set = p.Users
	default:
		return false
	}
	switch action {
	case "create":
		return set.Create
	case "read":
		return set.Read
	case "update":
		return set.Update
	case "delete":
		return set.Delete
	}
	return false
}

// DefaultPermissions returns the matrix a new admin of role starts with.
func DefaultPermissions(role AdminRole) Permissions {
	all := CRUD{Create: true, Read: true, Update: true, Delete: true}
	switch role {
	case RoleSuperAdmin:
		return Permissions{Products: all, Ads: all, Settings: all, Users: all}
	case RoleEditor:
		noDelete := CRUD{Create: true, Read: true, Update: true}
		return Permissions{Products: noDelete, Ads: noDelete}
	default:
		return Permissions{Products: all, Ads: all}
	}
}

const (
	AdminActive    = "active"
	AdminInactive  = "inactive"
	AdminSuspended = "suspended"
)

type Admin struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username      string             `bson:"username" json:"username"`
	Email         string             `bson:"email" json:"email"`
	PasswordHash  string             `bson:"password" json:"-"`
	FirstName     string             `bson:"firstName" json:"firstName"`
	LastName      string             `bson:"lastName" json:"lastName"`
	Role          AdminRole          `bson:"role" json:"role"`
	Permissions   Permissions        `bson:"permissions" json:"permissions"`
	Status        string             `bson:"status" json:"status"`
	LastLogin     *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LoginAttempts int                `bson:"loginAttempts" json:"-"`
	LockUntil     *time.Time         `bson:"lockUntil,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (a Admin) FullName() string {
	return a.FirstName + " " + a.LastName
}

// IsLocked is derived from lockUntil; it is never stored.
func (a Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// Can checks the permission matrix; super-admins are always allowed.
func (a Admin) Can(resource, action string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Permissions.Allows(resource, action)
}
