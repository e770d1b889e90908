package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleCajero        = "cajero"
	RoleSupervisor    = "supervisor"
	RoleAdministrador = "administrador"
)

// User stores system users with role-based access.
// Rol: "cajero" | "supervisor" | "administrador"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null"`
	// StoreID restricts the user to one store; nil = all stores
	StoreID   *uuid.UUID `gorm:"type:uuid"`
	Active    bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
