package guard

// Verdict is the outcome of a policy evaluation.
type Verdict string

const (
	VerdictPermit Verdict = "permit"
	VerdictReject Verdict = "reject"
)

// Reason classifies why a command was rejected.
type Reason string

const (
	ReasonDeniedPattern    Reason = "denied_pattern"
	ReasonNotAllowlisted   Reason = "not_allowlisted"
	ReasonPathTraversal    Reason = "path_traversal"
	ReasonOutsideWorkspace Reason = "outside_workspace"
)

// Decision is the deterministic result of evaluating one command.
type Decision struct {
	Verdict Verdict
	Reason  Reason
	Detail  string
}

// Permitted reports whether the command may be executed.
func (d Decision) Permitted() bool {
	return d.Verdict == VerdictPermit
}

func permit() Decision {
	return Decision{Verdict: VerdictPermit}
}

func reject(reason Reason, detail string) Decision {
	return Decision{Verdict: VerdictReject, Reason: reason, Detail: detail}
}

// Config contains the policy settings consumed at construction.
type Config struct {
	DenyPatterns        []string
	AllowPatterns       []string
	RestrictToWorkspace bool
}
