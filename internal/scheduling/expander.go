package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shiftline/scheduler/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

type ExpanderConfig struct {
	Concurrency int
}

// Expander turns a roster template into concrete dated shifts for a range.
// Deployment is partial-success: a rejected slot never blocks or rolls back
// the others.
type Expander struct {
	templates   TemplateReader
	resolver    WindowResolver
	lifecycle   *Lifecycle
	store       ShiftStore
	concurrency int
}

func NewExpander(templates TemplateReader, resolver WindowResolver, lifecycle *Lifecycle, store ShiftStore, cfg ExpanderConfig) *Expander {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Expander{
		templates:   templates,
		resolver:    resolver,
		lifecycle:   lifecycle,
		store:       store,
		concurrency: cfg.Concurrency,
	}
}

type slotCandidate struct {
	slotIndex int32
	slot      domain.TemplateSlot
	window    domain.Window
}

type slotKey struct {
	slotIndex int32
	start     int64
}

// DeployTemplate expands every slot into one shift per matching day in
// [rangeStart, rangeEnd), deduplicates against shifts already generated from
// this template, and submits each candidate through the same check-then-commit
// path as a manual creation. Cancelling ctx stops submitting further slots;
// committed shifts are never rolled back.
func (e *Expander) DeployTemplate(ctx context.Context, orgID, templateID string, rangeStart, rangeEnd time.Time, opts ScheduleOptions) (*domain.DeploymentReport, error) {
	if !rangeStart.Before(rangeEnd) {
		return nil, fmt.Errorf("%w: range start must be before range end", ErrInvalidRequest)
	}

	tpl, err := e.templates.GetTemplate(ctx, orgID, templateID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: template %s", ErrNotFound, templateID)
	}
	if err != nil {
		return nil, err
	}

	report := &domain.DeploymentReport{
		TemplateID: tpl.ID,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Created:    []string{},
		Rejected:   []domain.RejectedSlot{},
	}

	// dedupe by (template, slot identity, resolved start) against prior deploys
	existing, err := e.store.ListTemplateShifts(ctx, orgID, tpl.ID, domain.Window{Start: rangeStart, End: rangeEnd})
	if err != nil {
		return nil, err
	}
	seen := make(map[slotKey]bool, len(existing))
	for _, shift := range existing {
		if shift.SourceSlot == nil {
			continue
		}
		seen[slotKey{slotIndex: *shift.SourceSlot, start: shift.Window.Start.Unix()}] = true
	}

	var candidates []slotCandidate
	for i, slot := range tpl.Slots {
		windows, err := e.resolver.ExpandSlot(ctx, orgID, slot, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		for _, win := range windows {
			key := slotKey{slotIndex: int32(i), start: win.Start.Unix()}
			if seen[key] {
				report.Duplicates++
				continue
			}
			seen[key] = true
			candidates = append(candidates, slotCandidate{slotIndex: int32(i), slot: slot, window: win})
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, cand := range candidates {
		cand := cand
		if gctx.Err() != nil {
			// caller went away: stop submitting, keep what already committed
			break
		}
		g.Go(func() error {
			shift := e.newShift(orgID, tpl.ID, cand)
			_, err := e.lifecycle.CreateShift(gctx, shift, opts)

			mu.Lock()
			defer mu.Unlock()

			var confErr *ConflictError
			switch {
			case errors.As(err, &confErr):
				report.Rejected = append(report.Rejected, domain.RejectedSlot{
					SlotIndex: cand.slotIndex,
					Window:    cand.window,
					Report:    confErr.Report,
				})
			case errors.Is(err, ErrConcurrentModification):
				report.Rejected = append(report.Rejected, domain.RejectedSlot{
					SlotIndex: cand.slotIndex,
					Window:    cand.window,
					Report:    &domain.ConflictReport{Window: cand.window},
				})
			case err != nil:
				// infrastructure failure, abort remaining submissions
				return err
			default:
				report.Created = append(report.Created, shift.ID)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Created)
	sort.Slice(report.Rejected, func(i, j int) bool {
		if report.Rejected[i].SlotIndex != report.Rejected[j].SlotIndex {
			return report.Rejected[i].SlotIndex < report.Rejected[j].SlotIndex
		}
		return report.Rejected[i].Window.Start.Before(report.Rejected[j].Window.Start)
	})

	return report, nil
}

func (e *Expander) newShift(orgID, templateID string, cand slotCandidate) *domain.Shift {
	slotIndex := cand.slotIndex
	return &domain.Shift{
		OrganizationID:   orgID,
		WorkerID:         cand.slot.WorkerID,
		ClientID:         cand.slot.ClientID,
		Window:           cand.window,
		RequiredSkills:   cand.slot.RequiredSkills,
		Location:         cand.slot.Location,
		SourceTemplateID: &templateID,
		SourceSlot:       &slotIndex,
	}
}
