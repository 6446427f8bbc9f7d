package actor

import "github.com/nexuscore/agentruntime/internal/llmconv"

// classifyResult turns a terminal llmconv.Result into a user-visible error
// string, or "" for success. Subtype success, or a missing subtype with no
// error flag, is success.
func classifyResult(result *llmconv.Result) string {
	if result == nil {
		return ""
	}
	switch result.Subtype {
	case llmconv.SubtypeSuccess, "":
		if result.IsError {
			return "An error occurred processing your request."
		}
		return ""
	case llmconv.SubtypeErrorMaxTurns:
		return "I had trouble formatting my response within the allotted turns."
	case llmconv.SubtypeInterrupted:
		return "The request was interrupted."
	case llmconv.SubtypeErrorDuringExecution:
		return "A tool failed while handling your request. Please check the inputs and try again."
	default:
		return "An error occurred processing your request."
	}
}
