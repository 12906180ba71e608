package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "cash_balance_rupees",
			Help: "Current cash bucket balance",
		},
		func() float64 {
			return queryValue(db, logger, "SELECT cash_balance FROM cash_flow WHERE id = 'current'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "online_balance_rupees",
			Help: "Current online bucket balance",
		},
		func() float64 {
			return queryValue(db, logger, "SELECT online_balance FROM cash_flow WHERE id = 'current'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "cage_locks_held",
			Help: "Cage locks currently held",
		},
		func() float64 {
			return queryValue(db, logger, "SELECT COUNT(*) FROM cage_locks")
		},
	))
}

func queryValue(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var value int64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		if err != sql.ErrNoRows && logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	return float64(value)
}
