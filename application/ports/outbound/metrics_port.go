package outbound

type MetricsPort interface {
	JobStarted()
	JobFinished(status string)
	SceneSettled(success bool)
	ProviderCall(provider string, seconds float64, failed bool)
}
