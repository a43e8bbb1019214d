package repositories

// MetricsRepository counts what a sweep did.
type MetricsRepository interface {
	ObserveRepository(outcome string)
	ObserveFile(outcome string)
	ObserveHits(kind string, count int)

	// Export writes the collected metrics to path. An empty path is a no-op.
	Export(path string) error
}
