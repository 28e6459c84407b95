package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partner-portal-backend/internal/bootstrap"
	"partner-portal-backend/internal/queue"
	"partner-portal-backend/internal/shared/config"
	"partner-portal-backend/internal/shared/telemetry"
)

const claimBatchSize = 10

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	log.Printf("worker started poll=%s queue=%q", cfg.WorkerPollInterval, cfg.SQSQueueURL)

	if sqsClient, ok := app.Queue.(*queue.SQSClient); ok {
		go receiveNudges(ctx, sqsClient, app)
	}

	ticker := time.NewTicker(cfg.WorkerPollInterval)
	defer ticker.Stop()

	for {
		runDue(ctx, app)
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			return
		case <-ticker.C:
		}
	}
}

func runDue(ctx context.Context, app *bootstrap.App) {
	n, err := app.Engine.RunDue(ctx, claimBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			telemetry.Error("worker.run_due_failed", map[string]any{"err": err.Error()})
		}
		return
	}
	if n > 0 {
		telemetry.Info("worker.jobs_processed", map[string]any{"claimed": n})
	}
}

// receiveNudges consumes queue messages and triggers an immediate sweep. The
// message body is advisory; the outbox decides what actually runs.
func receiveNudges(ctx context.Context, client *queue.SQSClient, app *bootstrap.App) {
	for ctx.Err() == nil {
		msgs, err := client.Receive(ctx, 10)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"err": err.Error()})
			time.Sleep(5 * time.Second)
			continue
		}

		for _, m := range msgs {
			if _, err := queue.DecodeMessage([]byte(m.Body)); err != nil {
				telemetry.Warn("worker.bad_nudge", map[string]any{"err": err.Error()})
			}
			if err := client.Delete(ctx, m.ReceiptHandle); err != nil {
				telemetry.Warn("worker.ack_failed", map[string]any{"err": err.Error()})
			}
		}
		if len(msgs) > 0 {
			runDue(ctx, app)
		}
	}
}
