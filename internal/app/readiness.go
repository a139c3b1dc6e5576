package app

import (
	"context"
	"fmt"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// HealthChecker is implemented by the redis run store, the question
// document store, and the kafka producer.
type HealthChecker interface{ Healthy(ctx context.Context) error }

// BuildReadinessChecks returns the readiness checks for the four backing
// services: db, redis, elasticsearch, and kafka. A nil dependency yields a
// check that fails with a configuration error.
func BuildReadinessChecks(pool Pinger, runs, docs, queue HealthChecker) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	dbCheck := func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		return pool.Ping(ctx)
	}
	redisCheck := healthCheck("redis", runs)
	esCheck := healthCheck("elasticsearch", docs)
	kafkaCheck := healthCheck("kafka", queue)
	return dbCheck, redisCheck, esCheck, kafkaCheck
}

func healthCheck(name string, hc HealthChecker) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if hc == nil {
			return fmt.Errorf("%s not configured", name)
		}
		return hc.Healthy(ctx)
	}
}
