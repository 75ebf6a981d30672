package researchagent

type TokenRates struct {
	Input  float64
	Output float64
}

// Pricing constants in dollars per million tokens.
const (
	GPT35TurboInputRate  = 0.50
	GPT35TurboOutputRate = 1.50
	GPT4oInputRate       = 2.5
	GPT4oOutputRate      = 10.0
	GPT4oMiniInputRate   = 0.15
	GPT4oMiniOutputRate  = 0.60
	O3MiniInputRate      = 1.10
	O3MiniOutputRate     = 4.40
)

// ModelPricings is a map of model names to their pricing information.
var ModelPricings = map[string]TokenRates{
	"gpt-3.5-turbo": {
		Input:  GPT35TurboInputRate,
		Output: GPT35TurboOutputRate,
	},
	"gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
	"azure/gpt-4o": {
		Input:  GPT4oInputRate,
		Output: GPT4oOutputRate,
	},
	"azure/gpt-4o-mini": {
		Input:  GPT4oMiniInputRate,
		Output: GPT4oMiniOutputRate,
	},
	"azure/o3-mini": {
		Input:  O3MiniInputRate,
		Output: O3MiniOutputRate,
	},
}

// CostDetails represents detailed cost information for a session.
type CostDetails struct {
	InputTokens  int64
	OutputTokens int64
	TotalCost    float64
}

// Cost returns the accumulated cost of the session, based on the token
// usage reported by the API and the pricing for the session's model. The
// second return value is false when the model has no pricing entry.
func (s *Session) Cost() (*CostDetails, bool) {
	pricing, exists := ModelPricings[s.model]
	if !exists {
		return nil, false
	}

	inputTokens := s.inputTokens.Load()
	outputTokens := s.outputTokens.Load()
	inputCost := float64(inputTokens) * pricing.Input / 1000000
	outputCost := float64(outputTokens) * pricing.Output / 1000000

	return &CostDetails{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalCost:    inputCost + outputCost,
	}, true
}
