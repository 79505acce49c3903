package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shiftline/scheduler/backend/internal/domain"
)

var skillPool = []string{
	"forklift", "first_aid", "barista", "security", "cleaning",
	"electrical", "plumbing", "cooking", "driving", "childcare",
	"nursing", "warehouse", "retail", "reception", "landscaping",
}

var firstNames = []string{
	"Alex", "Sam", "Jordan", "Taylor", "Morgan", "Casey", "Riley",
	"Jamie", "Avery", "Quinn", "Dana", "Robin", "Lee", "Kim", "Pat",
}

var lastNames = []string{
	"Smith", "Jones", "Brown", "Wilson", "Taylor", "Clark", "Hall",
	"Young", "King", "Wright", "Walker", "Green", "Baker", "Hill",
}

var timezones = []string{
	"Australia/Sydney", "Australia/Melbourne", "Europe/London",
	"America/New_York", "America/Chicago",
}

// city centers the random locations scatter around
var cityCenters = []domain.Location{
	{Latitude: -33.8688, Longitude: 151.2093},
	{Latitude: -37.8136, Longitude: 144.9631},
	{Latitude: 51.5074, Longitude: -0.1278},
}

func RandomTimezone() string {
	return timezones[rand.Intn(len(timezones))]
}

func RandomFullName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func RandomSkills(n int) []string {
	shuffled := append([]string{}, skillPool...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// RandomLocation jitters around a city center by roughly +-10km.
func RandomLocation() *domain.Location {
	center := cityCenters[rand.Intn(len(cityCenters))]
	return &domain.Location{
		Latitude:  center.Latitude + (rand.Float64()-0.5)*0.2,
		Longitude: center.Longitude + (rand.Float64()-0.5)*0.2,
	}
}

func RandomWorker(orgID string) *domain.WorkerProfile {
	return &domain.WorkerProfile{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		FullName:       RandomFullName(),
		Skills:         RandomSkills(rand.Intn(4) + 1),
		Location:       RandomLocation(),
		CommittedHours: float64(rand.Intn(45)),
		TargetHours:    float64(rand.Intn(20) + 25),
	}
}

// RandomTemplate builds a weekly roster with one morning and one evening slot
// on a random subset of weekdays.
func RandomTemplate(orgID string, clientIDs []string, workerIDs []string) *domain.RosterTemplate {
	slots := []domain.TemplateSlot{}

	for day := time.Sunday; day <= time.Saturday; day++ {
		if rand.Intn(2) == 0 {
			continue
		}
		for _, start := range []string{"09:00", "17:00"} {
			slot := domain.TemplateSlot{
				DayOfWeek:       day,
				StartTimeOfDay:  start,
				DurationMinutes: int32((rand.Intn(4) + 4) * 60),
				RequiredSkills:  RandomSkills(rand.Intn(3)),
				Location:        RandomLocation(),
			}
			if len(clientIDs) > 0 {
				clientID := clientIDs[rand.Intn(len(clientIDs))]
				slot.ClientID = &clientID
			}
			// about half the slots come pre-assigned
			if len(workerIDs) > 0 && rand.Intn(2) == 0 {
				workerID := workerIDs[rand.Intn(len(workerIDs))]
				slot.WorkerID = &workerID
			}
			slots = append(slots, slot)
		}
	}

	return &domain.RosterTemplate{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           fmt.Sprintf("weekly-roster-%04d", rand.Intn(10000)),
		Slots:          slots,
	}
}

// RandomShift generates a candidate shift in the two weeks after base.
func RandomShift(orgID string, workerIDs []string, clientIDs []string, base time.Time) *domain.Shift {
	start := base.
		AddDate(0, 0, rand.Intn(14)).
		Truncate(time.Hour).
		Add(time.Duration(rand.Intn(12)+7) * time.Hour)

	shift := &domain.Shift{
		OrganizationID: orgID,
		Window: domain.Window{
			Start: start,
			End:   start.Add(time.Duration(rand.Intn(6)+2) * time.Hour),
		},
		RequiredSkills: RandomSkills(rand.Intn(3)),
		Location:       RandomLocation(),
	}
	if len(workerIDs) > 0 && rand.Intn(4) != 0 {
		workerID := workerIDs[rand.Intn(len(workerIDs))]
		shift.WorkerID = &workerID
	}
	if len(clientIDs) > 0 {
		clientID := clientIDs[rand.Intn(len(clientIDs))]
		shift.ClientID = &clientID
	}

	return shift
}
