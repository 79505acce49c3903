package domain

// MatchRationale carries the component scores behind a ranking so a caller can
// explain the ordering to a human scheduler.
type MatchRationale struct {
	SkillCoverage   float64 `json:"skillCoverage"`
	Proximity       float64 `json:"proximity"`
	WorkloadBalance float64 `json:"workloadBalance"`
	BufferClearance float64 `json:"bufferClearance"`
}

type Match struct {
	WorkerID  string         `json:"workerID"`
	Score     float64        `json:"score"`
	Rationale MatchRationale `json:"rationale"`
}

// ShiftRequirements describes an unfilled shift for the matching engine.
type ShiftRequirements struct {
	Window         Window    `json:"window"`
	RequiredSkills []string  `json:"requiredSkills"`
	Location       *Location `json:"location"`
}
