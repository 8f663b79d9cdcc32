package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"coverly/config"
	"coverly/services/maintenance"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const TypeSLAMaintenance = "maintenance:sla"

// InitMaintenanceWorker runs the periodic SLA reconciliation under asynq.
// A sweep interval of zero disables the scheduler entirely; the manual
// trigger endpoint still runs the sweep directly.
func InitMaintenanceWorker(sweeper *maintenance.Sweeper) {
	interval := config.AppConfig.SLASweepMinutes
	if interval <= 0 {
		log.Println("[MaintenanceWorker] periodic sweep disabled (SLA_SWEEP_MINUTES=0)")
		return
	}

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisJobDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSLAMaintenance, handleSweepTask(sweeper))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	spec := fmt.Sprintf("@every %dm", interval)
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeSLAMaintenance, nil)); err != nil {
		log.Fatalf("[MaintenanceWorker] failed to register sweep schedule: %v", err)
	}

	// Start Redis health monitor
	go monitorRedisConnection()

	go func() {
		log.Printf("[MaintenanceWorker] starting scheduler (%s)...", spec)
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[MaintenanceWorker] scheduler failed: %v", err)
		}
	}()

	// Start async worker with retry logic
	go func() {
		log.Println("[MaintenanceWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[MaintenanceWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[MaintenanceWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleSweepTask(sweeper *maintenance.Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		res, err := sweeper.Run(ctx)
		if err != nil {
			log.Printf("[MaintenanceWorker] sweep failed: %v", err)
			return err
		}
		log.Printf("[MaintenanceWorker] sweep done: autoCompleted=%d slaBreachesDisputed=%d",
			res.AutoCompleted, res.SLABreachesDisputed)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisJobDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[MaintenanceWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
