package entity

import "github.com/squadbid/backend/pkg/enum"

type GlobalRole string

var (
	RoleSuperAdmin = enum.New(GlobalRole("super_admin"))
	RoleAdmin      = enum.New(GlobalRole("admin"))
	RoleUser       = enum.New(GlobalRole("user"))
)

var GlobalAdminRoles = []GlobalRole{RoleSuperAdmin, RoleAdmin}

// User is an auction participant. Balance is only ever decremented at the
// moment a lot is sold to the user, never at bid time.
type User struct {
	Base

	Name string `gorm:"unique"`
	Role GlobalRole

	Balance  int64
	BidCount int
	LotsWon  int
	IsActive bool `gorm:"default:true"`
}
