package domain

// SubjectType differentiates citizen vs agent tokens.
type SubjectType string

const (
	SubjectTypeCitizen SubjectType = "CITIZEN"
	SubjectTypeAgent   SubjectType = "AGENT"
)
