package domain

type ConflictSeverity string

const (
	// ConflictHard: the candidate window intersects a committed shift.
	ConflictHard ConflictSeverity = "hard"
	// ConflictSoft: disjoint windows for different clients closer than the
	// minimum travel buffer.
	ConflictSoft ConflictSeverity = "soft"
)

type Conflict struct {
	Shift    *Shift           `json:"shift"`
	Severity ConflictSeverity `json:"severity"`
}

// ConflictReport is transient and never persisted.
type ConflictReport struct {
	Window    Window     `json:"window"`
	Conflicts []Conflict `json:"conflicts"`
}

func (r *ConflictReport) HasHard() bool {
	for _, c := range r.Conflicts {
		if c.Severity == ConflictHard {
			return true
		}
	}
	return false
}

func (r *ConflictReport) HasSoft() bool {
	for _, c := range r.Conflicts {
		if c.Severity == ConflictSoft {
			return true
		}
	}
	return false
}

func (r *ConflictReport) Clean() bool {
	return len(r.Conflicts) == 0
}
