package model

import "github.com/cloudwego/eino/schema"

// ModelRates is the USD price per 1M text tokens for one model.
type ModelRates struct {
	InputPerM  float64
	OutputPerM float64
}

// Published Gemini standard-tier text rates. Unknown models price at zero
// so cost logging stays silent rather than wrong.
var modelRates = map[string]ModelRates{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-pro":        {InputPerM: 1.25, OutputPerM: 10.00},
}

// RatesFor returns the price table entry for a model, zero rates if unknown.
func RatesFor(model string) ModelRates {
	return modelRates[model]
}

// UsageCost converts one response's token usage into USD amounts.
func UsageCost(usage *schema.TokenUsage, r ModelRates) (input, output, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	input = r.InputPerM * float64(usage.PromptTokens) / 1e6
	output = r.OutputPerM * float64(usage.CompletionTokens) / 1e6
	return input, output, input + output
}
