package daraja

// Outcome classifies a provider result code into the session state machine.
type Outcome string

const (
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeCancelled Outcome = "CANCELLED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomePending   Outcome = "PENDING"
)

// ErrCodeProcessing is the query-API error code meaning the push is still
// live on the payer's device.
const ErrCodeProcessing = "500.001.1001"

// Terminal failure codes, per the Daraja result-code reference.
var failureCodes = map[string]string{
	"1001": "unable to lock subscriber",
	"1019": "transaction expired",
	"1025": "system error",
	"1037": "timeout, user unreachable",
	"2001": "wrong PIN / authentication failure",
	"9999": "push request error",
}

// Classify maps a ResultCode to an Outcome. Code 0 is settlement, 1032 is
// the payer declining the prompt; the enumerated failure codes are terminal.
// Everything unrecognized is treated as still pending so a transient
// provider hiccup never strands a paid session in a failed state.
func Classify(resultCode string) Outcome {
	switch {
	case resultCode == "0":
		return OutcomeSuccess
	case resultCode == "1032":
		return OutcomeCancelled
	default:
		if _, ok := failureCodes[resultCode]; ok {
			return OutcomeFailed
		}
		return OutcomePending
	}
}

// FailureReason returns the human description for a terminal failure code.
func FailureReason(resultCode string) string {
	return failureCodes[resultCode]
}
