package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opGets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_gets_total",
		Help: "Point lookups served by the entity store.",
	})
	opPuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_puts_total",
		Help: "Atomic multi-key-path writes committed.",
	})
	opDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_deletes_total",
		Help: "Delete batches committed.",
	})
	opScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_scans_total",
		Help: "Prefix range scans served.",
	})
	opErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_errors_total",
		Help: "Store operations that returned a backend error.",
	})
	ttlPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatdb_store_ttl_purged_total",
		Help: "Entity keys removed by TTL purge runs.",
	})
)
