package domain

import "time"

// AgentRole enumerates dashboard operator roles.
type AgentRole string

const (
	AgentRoleAgent      AgentRole = "AGENT"
	AgentRoleSupervisor AgentRole = "SUPERVISOR"
	AgentRoleAdmin      AgentRole = "ADMIN"
)

// Agent models a municipal agent or administrator handling requests.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	Service      string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
