package factory

import (
	"fmt"

	"exam-grading-be/pkg/llm"
	"exam-grading-be/pkg/llm/huggingface"
	"exam-grading-be/pkg/llm/ollama"
)

// NewLLMProvider builds one provider client. The gateway pool calls this
// repeatedly, so constructors must be cheap and side-effect free.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
