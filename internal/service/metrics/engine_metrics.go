package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    TrainingEpochs = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "loadpulse",
            Subsystem: "engine",
            Name:      "training_epochs",
            Help:      "Epochs run before early stop, by training mode",
            Buckets:   []float64{1, 5, 10, 20, 30, 40, 50},
        },
        []string{"mode"},
    )

    NumericDiscards = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "loadpulse",
            Subsystem: "engine",
            Name:      "numeric_discards_total",
            Help:      "Forecasts discarded because the model surfaced NaN/Inf",
        },
        []string{"op"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(TrainingEpochs, NumericDiscards)
    })
}
