// internal/common/camunda/worker.go
package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/logger"
)

// JobHandler is the Handle method every scenario worker exposes.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration pairs a task type with the handler that serves it. ConfigKey
// names the entry under workers in the config file.
type Registration struct {
	TaskType  string
	ConfigKey string
	Handler   JobHandler
}

// WorkerSet owns the job workers opened against one Zeebe client.
type WorkerSet struct {
	workers []worker.JobWorker
	logger  logger.Logger
}

// OpenWorkers opens a job worker per enabled registration.
func OpenWorkers(client zbc.Client, cfg *config.Config, regs []Registration, log logger.Logger) *WorkerSet {
	set := &WorkerSet{logger: log}
	for _, reg := range regs {
		if !config.IsWorkerEnabled(cfg, reg.ConfigKey) {
			log.Info("Worker disabled, skipping", map[string]interface{}{"taskType": reg.TaskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, reg.ConfigKey)

		jw := client.NewJobWorker().
			JobType(reg.TaskType).
			Handler(reg.Handler.Handle).
			MaxJobsActive(wcfg.MaxJobsActive).
			Timeout(config.GetDuration(wcfg.Timeout)).
			Name(reg.TaskType + "-worker").
			Open()

		set.workers = append(set.workers, jw)
		log.Info("Worker started", map[string]interface{}{
			"taskType":      reg.TaskType,
			"maxJobsActive": wcfg.MaxJobsActive,
			"timeoutMs":     wcfg.Timeout,
		})
	}
	return set
}

// Len reports how many workers are running.
func (s *WorkerSet) Len() int { return len(s.workers) }

// Close stops polling and waits for in-flight jobs.
func (s *WorkerSet) Close() {
	for _, w := range s.workers {
		w.Close()
		w.AwaitClose()
	}
	s.logger.Info("All workers closed", map[string]interface{}{"count": len(s.workers)})
	s.workers = nil
}
