package domain

// WorkerProfile is a read model owned by the user-management system. The engine
// never mutates it; it is queried per matching request.
type WorkerProfile struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationID"`
	FullName       string    `json:"fullName"`
	Skills         []string  `json:"skills"`
	Location       *Location `json:"location"`
	CommittedHours float64   `json:"committedHours"`
	TargetHours    float64   `json:"targetHours"`
}

func (w *WorkerProfile) HasSkill(skill string) bool {
	for _, s := range w.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
