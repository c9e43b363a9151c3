package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string
type Specialization string

const (
	RoleCustomer Role = "customer"
	RoleMechanic Role = "mechanic"
	RoleAdmin    Role = "admin"

	SpecializationGeneral     Specialization = "general"
	SpecializationEngine      Specialization = "engine"
	SpecializationElectrical  Specialization = "electrical"
	SpecializationBrakes      Specialization = "brakes"
	SpecializationDiagnostics Specialization = "diagnostics"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username" validate:"required,min=3,max=150"`
	FirstName string             `json:"first_name" bson:"first_name"`
	LastName  string             `json:"last_name" bson:"last_name"`
	Email     string             `json:"email" bson:"email" validate:"omitempty,email"`
	Phone     string             `json:"phone" bson:"phone"`
	Role      Role               `json:"role" bson:"role" validate:"required"`
	Mechanic  *MechanicProfile   `json:"mechanic,omitempty" bson:"mechanic,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

type MechanicProfile struct {
	Specialization    Specialization `json:"specialization" bson:"specialization"`
	Skills            string         `json:"skills" bson:"skills"`
	YearsOfExperience int            `json:"years_of_experience" bson:"years_of_experience"`
	HourlyRate        float64        `json:"hourly_rate" bson:"hourly_rate"`
	Certifications    string         `json:"certifications" bson:"certifications"`
	IsApproved        bool           `json:"is_approved" bson:"is_approved"`
}

func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsMechanic() bool {
	return u.Role == RoleMechanic
}
