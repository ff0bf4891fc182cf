package domain

// DependencyHealth is the outcome of probing a single backing dependency.
type DependencyHealth struct {
	Healthy bool
	Reason  string
}

// HealthReport aggregates the dependency probes. The service is healthy only
// when every dependency is.
type HealthReport struct {
	Repository DependencyHealth
	Index      DependencyHealth
}

func (r HealthReport) Healthy() bool {
	return r.Repository.Healthy && r.Index.Healthy
}
