package extraction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_pipeline_runs_total",
		Help: "Messages processed, by pipeline version",
	}, []string{"pipeline"})

	modelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_model_calls_total",
		Help: "Model gateway invocations, by prompt name",
	}, []string{"prompt"})

	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lifebook_validation_failures_total",
		Help: "Model outputs rejected by the validator, by prompt name",
	}, []string{"prompt"})
)
