package models

// Account roles. Officers provisioned by an admin get RoleGovernment.
const (
	RoleAdmin      = "admin"
	RoleGovernment = "government"
)
