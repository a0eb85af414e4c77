package metrics

/*
Labels and so on for metrics used in graphdiff.
*/

const (
	LabelMethod  = "method"
	LabelSuccess = "success"
	LabelStatus  = "status"

	// Values for LabelMethod
	MethodDiff    = "diff"
	MethodCompare = "compare"
)
