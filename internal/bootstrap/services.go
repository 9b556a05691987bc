package bootstrap

import (
	"github.com/citizen-portaal/portaal-backend/config"
	"github.com/citizen-portaal/portaal-backend/internal/events"
	"github.com/citizen-portaal/portaal-backend/internal/projects/repository"
	"github.com/citizen-portaal/portaal-backend/internal/projects/service"
	"github.com/citizen-portaal/portaal-backend/internal/storage/kv"
	"github.com/citizen-portaal/portaal-backend/internal/workflow"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type Services struct {
	Analysis *service.AnalysisService
	Status   *service.StatusService
	Projects *service.ProjectService
	Sweeper  *service.Sweeper

	// Admin reads through the privileged pool; operator tooling only.
	Admin *repository.ProjectRepository

	Events     events.Publisher
	Subscriber events.Subscriber
}

// BuildServices wires repositories onto the right pool. rdb may be nil.
func BuildServices(cfg *config.Config, dbs *Databases, rdb *redis.Client) *Services {
	userRepo := repository.NewProjectRepository(dbs.User)
	serviceRepo := repository.NewProjectRepository(dbs.Service)

	var (
		publisher  events.Publisher = events.Noop{}
		subscriber events.Subscriber
		locker     service.Locker
	)
	if rdb != nil {
		bus := events.NewRedisBus(rdb)
		publisher, subscriber = bus, bus
		locker = kv.NewLocker(rdb)
	}

	engine := workflow.NewClient(workflow.Options{
		WebhookURL: cfg.Analysis.WebhookURL,
		Timeout:    cfg.Analysis.DispatchTimeout,
		RateLimit:  rate.Limit(cfg.Analysis.DispatchRate),
		Burst:      cfg.Analysis.DispatchBurst,
	})

	return &Services{
		Analysis: service.NewAnalysisService(serviceRepo, engine, publisher, service.AnalysisOptions{
			Policy:          cfg.Analysis.CompletionPolicy,
			CallbackBaseURL: cfg.Analysis.CallbackBaseURL,
			CallbackSecret:  cfg.Analysis.CallbackSecret,
			DispatchTimeout: cfg.Analysis.DispatchTimeout,
		}),
		Status:     service.NewStatusService(userRepo, publisher, cfg.Analysis.Ceiling),
		Projects:   service.NewProjectService(userRepo),
		Sweeper:    service.NewSweeper(serviceRepo, locker, publisher, cfg.Analysis.Ceiling),
		Admin:      serviceRepo,
		Events:     publisher,
		Subscriber: subscriber,
	}
}
