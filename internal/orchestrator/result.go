package orchestrator

// Verdict is the explicit per-item outcome of a pipeline stage. Stages never
// smuggle flow control through error values: an item either moves on, is
// dropped for a stated reason, or is dropped with an error that lands in the
// run's error log.
type Verdict int

const (
	VerdictOk Verdict = iota
	VerdictSkipped
	VerdictFatal
)

type ItemResult struct {
	Verdict Verdict
	// Reason explains a skip in one short phrase.
	Reason string
	// Err is set only for VerdictFatal.
	Err error
}

func itemOk() ItemResult { return ItemResult{Verdict: VerdictOk} }

func itemSkipped(reason string) ItemResult {
	return ItemResult{Verdict: VerdictSkipped, Reason: reason}
}

func itemFatal(err error) ItemResult { return ItemResult{Verdict: VerdictFatal, Err: err} }
