package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftline/scheduler/backend/internal/config"
	"github.com/shiftline/scheduler/backend/internal/repository"
	"github.com/shiftline/scheduler/backend/internal/scheduling"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	deployChannel *amqp.Channel

	detector  *scheduling.Detector
	lifecycle *scheduling.Lifecycle
	matcher   *scheduling.Matcher
	expander  *scheduling.Expander

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, deployCh *amqp.Channel) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	detector := scheduling.NewDetector(repo, time.Duration(cfg.Scheduling.TravelBufferMinutes)*time.Minute)
	lifecycle := scheduling.NewLifecycle(repo, detector, scheduling.LifecycleConfig{
		MaxCommitAttempts: cfg.Scheduling.MaxCommitAttempts,
		Grace:             time.Duration(cfg.Scheduling.GraceMinutes) * time.Minute,
	})
	matcher := scheduling.NewMatcher(repo, detector, scheduling.MatcherConfig{
		SkillWeight:     cfg.Scheduling.SkillWeight,
		ProximityWeight: cfg.Scheduling.ProximityWeight,
		WorkloadWeight:  cfg.Scheduling.WorkloadWeight,
		BufferWeight:    cfg.Scheduling.BufferWeight,
		TargetHours:     cfg.Scheduling.TargetHours,
		Concurrency:     cfg.Scheduling.MatchConcurrency,
	})
	expander := scheduling.NewExpander(repo, repo, lifecycle, repo, scheduling.ExpanderConfig{
		Concurrency: cfg.Scheduling.DeployConcurrency,
	})

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		deployChannel: deployCh,

		detector:  detector,
		lifecycle: lifecycle,
		matcher:   matcher,
		expander:  expander,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// every route is scoped to the organization carried by the caller's token
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.orgAuth)

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftCtx)
				r.Get("/", h.GetShift)
				r.Post("/reschedule", h.RescheduleShift)
				r.Post("/schedule", h.ScheduleShift)
				r.Post("/start", h.StartShift)
				r.Post("/complete", h.CompleteShift)
				r.Post("/cancel", h.CancelShift)
			})
		})

		r.Post("/conflicts/check", h.CheckConflict)
		r.Post("/matches", h.FindBestMatches)

		r.Route("/deployments", func(r chi.Router) {
			r.Post("/", h.DeployTemplate)
			r.Post("/enqueue", h.EnqueueDeployment)
		})
	})
}
