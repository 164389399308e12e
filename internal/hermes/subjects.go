package hermes

const (
	SubjectAll            = "kscore.>"
	SubjectWeightsUpdated = "kscore.weights.updated"

	StreamName   = "KSCORE_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectRenderCompleted(variant string) string { return "kscore.render." + variant + ".completed" }
