package handler

type ContextKey string

var (
	OrgCtxKey   ContextKey = "organizationID"
	ShiftCtxKey ContextKey = "shift"
)
