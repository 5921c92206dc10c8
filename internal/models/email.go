package models

import "time"

// RegistrationEmail is a mailbox requested for a staff member, with the
// devices that should be provisioned for it.
type RegistrationEmail struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullname,omitempty"`
	Position   string     `json:"position,omitempty"`
	Department string     `json:"department,omitempty"`
	IsPC       bool       `json:"is_pc"`
	IsMobile   bool       `json:"is_mobile"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// EmailFilter narrows a registration listing. Search matches the address,
// name, position, department and notes.
type EmailFilter struct {
	Search string
}
