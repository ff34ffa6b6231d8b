package users

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a staff member's clinic role
type Role string

const (
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleReceptionist  Role = "RECEPTIONIST"
	RoleDoctor        Role = "DOCTOR"
	RoleLabTechnician Role = "LAB_TECHNICIAN"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;default:'RECEPTIONIST'"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the name shown on staff dashboards
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// BeforeSave rejects roles the route guards do not know about. An empty role
// is left to the column default and to column-only updates.
func (u *User) BeforeSave(*gorm.DB) error {
	if u.Role != "" && !IsValidRole(string(u.Role)) {
		return fmt.Errorf("invalid staff role %q", u.Role)
	}
	return nil
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleSuperAdmin, RoleReceptionist, RoleDoctor, RoleLabTechnician:
		return true
	default:
		return false
	}
}

// StaffRoles may read the queue
func StaffRoles() []string {
	return []string{string(RoleSuperAdmin), string(RoleReceptionist), string(RoleDoctor), string(RoleLabTechnician)}
}

// ReceptionRoles may issue and cancel tickets
func ReceptionRoles() []string {
	return []string{string(RoleSuperAdmin), string(RoleReceptionist)}
}

// ClinicalRoles may call and complete patients
func ClinicalRoles() []string {
	return []string{string(RoleSuperAdmin), string(RoleDoctor)}
}

// Permissions lists the queue actions a role may take, for dashboards to toggle controls
func Permissions(role Role) []string {
	switch role {
	case RoleSuperAdmin:
		return []string{"queue:read", "queue:register", "queue:cancel", "queue:call", "queue:complete", "analytics:read"}
	case RoleReceptionist:
		return []string{"queue:read", "queue:register", "queue:cancel"}
	case RoleDoctor:
		return []string{"queue:read", "queue:call", "queue:complete", "analytics:read"}
	case RoleLabTechnician:
		return []string{"queue:read"}
	default:
		return []string{}
	}
}
