package scheduling

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shiftline/scheduler/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

type MatcherConfig struct {
	SkillWeight     float64
	ProximityWeight float64
	WorkloadWeight  float64
	BufferWeight    float64
	// TargetHours is the fallback per-period target when a profile carries none.
	TargetHours float64
	Concurrency int
}

// Matcher ranks eligible workers for an unfilled shift. Hard conflicts filter,
// soft conflicts penalize; everything else is a weighted score over skill
// coverage, proximity and workload balance. The ordering is deterministic:
// score descending, then worker id ascending.
type Matcher struct {
	profiles ProfileReader
	detector *Detector
	cfg      MatcherConfig
}

func NewMatcher(profiles ProfileReader, detector *Detector, cfg MatcherConfig) *Matcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.SkillWeight+cfg.ProximityWeight+cfg.WorkloadWeight+cfg.BufferWeight <= 0 {
		cfg.SkillWeight, cfg.ProximityWeight, cfg.WorkloadWeight, cfg.BufferWeight = 0.4, 0.3, 0.2, 0.1
	}
	return &Matcher{
		profiles: profiles,
		detector: detector,
		cfg:      cfg,
	}
}

// FindBestMatches returns up to limit ranked candidates. An empty result is
// not an error. Per-candidate conflict checks run concurrently; workers are
// independent serialization units.
func (m *Matcher) FindBestMatches(ctx context.Context, orgID string, req domain.ShiftRequirements, limit int) ([]domain.Match, error) {
	if !req.Window.Valid() {
		return nil, fmt.Errorf("%w: window start must be before window end", ErrInvalidRequest)
	}
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization is required", ErrInvalidRequest)
	}

	profiles, err := m.profiles.ListProfiles(ctx, orgID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domain.Match, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)

	for i, profile := range profiles {
		i, profile := i, profile
		g.Go(func() error {
			cand := Candidate{Window: req.Window, Location: req.Location}
			report, err := m.detector.CheckConflict(gctx, orgID, profile.ID, cand, "")
			if err != nil {
				return err
			}
			if report.HasHard() {
				// hard filter
				return nil
			}
			match := m.score(profile, req, report.HasSoft())
			candidates[i] = &match
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]domain.Match, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			matches = append(matches, *c)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].WorkerID < matches[j].WorkerID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Matcher) score(profile *domain.WorkerProfile, req domain.ShiftRequirements, softConflict bool) domain.Match {
	rationale := domain.MatchRationale{
		SkillCoverage:   skillCoverage(profile, req.RequiredSkills),
		Proximity:       proximity(profile.Location, req.Location),
		WorkloadBalance: m.workloadBalance(profile),
		BufferClearance: 1,
	}
	if softConflict {
		rationale.BufferClearance = 0
	}

	total := m.cfg.SkillWeight + m.cfg.ProximityWeight + m.cfg.WorkloadWeight + m.cfg.BufferWeight
	score := (m.cfg.SkillWeight*rationale.SkillCoverage +
		m.cfg.ProximityWeight*rationale.Proximity +
		m.cfg.WorkloadWeight*rationale.WorkloadBalance +
		m.cfg.BufferWeight*rationale.BufferClearance) / total

	return domain.Match{
		WorkerID:  profile.ID,
		Score:     score,
		Rationale: rationale,
	}
}

func skillCoverage(profile *domain.WorkerProfile, required []string) float64 {
	if len(required) == 0 {
		return 1
	}
	covered := 0
	for _, skill := range required {
		if profile.HasSkill(skill) {
			covered++
		}
	}
	return float64(covered) / float64(len(required))
}

// proximity decays with great-circle distance; unknown locations are neutral.
func proximity(a, b *domain.Location) float64 {
	if a == nil || b == nil {
		return 0.5
	}
	return 1 / (1 + haversineKm(*a, *b))
}

func (m *Matcher) workloadBalance(profile *domain.WorkerProfile) float64 {
	target := profile.TargetHours
	if target <= 0 {
		target = m.cfg.TargetHours
	}
	if target <= 0 {
		return 0.5
	}
	return 1 - math.Min(1, profile.CommittedHours/target)
}

const earthRadiusKm = 6371.0

func haversineKm(a, b domain.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
