// Package metrics collects resolver statistics without slowing down the
// request path.
//
// Components emit events describing what happened while resolving a domain:
//   - cache hits and misses
//   - strategy successes and failures, with how long each attempt took
//   - lookups where every strategy failed
//   - health changes of the third-party favicon service
//
// Emit never blocks: when the buffer is full the event is dropped. A single
// goroutine started with Run folds events into Metrics and drains the buffer
// on shutdown.
//
//	collector := metrics.NewCollector(1000, logger)
//	go collector.Run(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:     metrics.EventStrategySucceeded,
//		Domain:   "example.com",
//		Strategy: "well-known-paths",
//		Duration: 120 * time.Millisecond,
//	})
//
//	snapshot := collector.Snapshot()
package metrics
