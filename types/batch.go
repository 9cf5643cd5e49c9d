package types

// BatchReport is the outcome of a bulk mutation.
type BatchReport struct {
	Requested int            `json:"requested"`
	Succeeded []int          `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// BatchFailure names an id that could not be mutated and why.
type BatchFailure struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// NewBatchReport builds a report from the requested ids and the ids that were
// actually mutated. Every requested id missing from done is reported as
// "not found". Duplicate requested ids are counted once.
func NewBatchReport(requested, done []int) BatchReport {
	ok := make(map[int]bool, len(done))
	for _, id := range done {
		ok[id] = true
	}

	report := BatchReport{Succeeded: make([]int, 0, len(done)), Failed: make([]BatchFailure, 0)}
	seen := make(map[int]bool, len(requested))
	for _, id := range requested {
		if seen[id] {
			continue
		}
		seen[id] = true
		report.Requested++
		if ok[id] {
			report.Succeeded = append(report.Succeeded, id)
		} else {
			report.Failed = append(report.Failed, BatchFailure{ID: id, Error: "not found"})
		}
	}
	return report
}
