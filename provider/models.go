package provider

import (
	"strconv"
)

// ModelPricing holds per-token prices in USD.
type ModelPricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// ProviderModel is the normalized console view of a backend model.
// Backends disagree wildly on payload shape, so everything funnels
// through NormalizeModel before display or caching.
type ProviderModel struct {
	Name          string       `json:"name"`
	InternalName  string       `json:"internal_name"`
	Provider      string       `json:"provider"`
	Capabilities  []string     `json:"capabilities,omitempty"`
	ContextWindow int64        `json:"context_window"`
	Pricing       ModelPricing `json:"pricing"`
}

// NormalizeModel converts a raw model payload from any provider into a
// ProviderModel. Missing or malformed numeric fields become zero
// rather than failing the whole listing; one broken model record must
// never take down the console.
func NormalizeModel(providerID string, payload map[string]interface{}) ProviderModel {
	internalName := coerceString(payload["id"])
	if internalName == "" {
		internalName = coerceString(payload["internal_name"])
	}

	name := coerceString(payload["name"])
	if name == "" {
		name = stripProviderPrefix(internalName)
	}

	contextWindow := coerceInt(payload["context_length"])
	if contextWindow == 0 {
		contextWindow = coerceInt(payload["context_window"])
	}

	return ProviderModel{
		Name:          name,
		InternalName:  internalName,
		Provider:      providerID,
		Capabilities:  coerceStringSlice(payload["capabilities"]),
		ContextWindow: contextWindow,
		Pricing:       normalizePricing(payload),
	}
}

// normalizePricing reads the pricing block under either key variant.
// OpenRouter uses "pricing" with prompt/completion, other backends use
// "pricing_config" with input/output.
func normalizePricing(payload map[string]interface{}) ModelPricing {
	raw, ok := payload["pricing"].(map[string]interface{})
	if !ok {
		raw, ok = payload["pricing_config"].(map[string]interface{})
	}
	if !ok {
		return ModelPricing{}
	}

	input := coerceFloat(raw["input"])
	if input == 0 {
		input = coerceFloat(raw["prompt"])
	}
	output := coerceFloat(raw["output"])
	if output == 0 {
		output = coerceFloat(raw["completion"])
	}

	return ModelPricing{Input: input, Output: output}
}

// coerceFloat converts JSON-decoded values to float64, returning zero
// for anything that isn't a usable number. OpenRouter sends prices as
// strings ("0.000003"), other backends as numbers, broken records as
// null or objects.
func coerceFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// coerceInt converts JSON-decoded values to int64 with the same
// zero-on-garbage policy as coerceFloat.
func coerceInt(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int:
		return int64(val)
	case int64:
		return val
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func coerceString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func coerceStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
