// Package metrics defines the custom Prometheus metrics of the inventory API.
// It is the single source of truth for metric names, labels and help strings.
//
// All metrics register with the default registry on package init through
// promauto; the same registry backs the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid", "rate_limited" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordChangesTotal counts successful operator password rotations.
var PasswordChangesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of successful password changes.",
	},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductsCreatedTotal counts newly added products.
// Label:
//   - status: the status the product was added with (e.g. "Stock")
var ProductsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "Total number of products added, by initial status.",
	},
	[]string{"status"},
)

// ProductsSoldTotal counts completed sales.
var ProductsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_sold_total",
		Help:      "Total number of products marked as sold.",
	},
)

// BarcodeScansTotal counts barcode lookups.
// Label:
//   - result: "hit" (exact match), "trimmed_hit" (matched after trimming) or "miss"
var BarcodeScansTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "barcode_scans_total",
		Help:      "Total number of barcode lookups, labelled by result.",
	},
	[]string{"result"},
)

// MigrationsTotal counts schema migration outcomes at startup.
// Label:
//   - result: "applied", "adopted" or "failed"
var MigrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schema_migrations_total",
		Help:      "Schema migrations processed at startup, by result.",
	},
	[]string{"result"},
)
