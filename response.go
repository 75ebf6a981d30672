package researchagent

type ResponseType string

const (
	ResponseTypePartialText ResponseType = "partial_text"
	ResponseTypeStatus      ResponseType = "status"
	ResponseTypeEnd         ResponseType = "end"
	ResponseTypeError       ResponseType = "error"
)

// Response represents a communication unit from the Agent to the caller/UI.
// Status responses carry a tool's StatusMessage while the tool runs.
type Response struct {
	Content string
	Type    ResponseType
}
