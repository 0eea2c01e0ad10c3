package flags

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/lifebook-lab/lifebook/pkg/llm"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// LLMFlags selects and configures the model gateway.
type LLMFlags struct {
	Provider string
	Endpoint string
	Model    string
}

func NewLLMFlags() *LLMFlags {
	return &LLMFlags{
		Provider: ProviderOpenAI,
		Model:    "gpt-4o-mini",
	}
}

func (f *LLMFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Provider, "llm-provider", f.Provider, "Model provider: openai or mock")
	fs.StringVar(&f.Endpoint, "llm-endpoint", "", "URL for an OpenAI-compatible endpoint. Set OPENAI_API_KEY to specify an API key.")
	fs.StringVar(&f.Model, "llm-model", f.Model, "The model used for extraction and planning")
}

func (f *LLMFlags) GetGateway() (llm.Gateway, error) {
	switch f.Provider {
	case ProviderOpenAI:
		return llm.NewClient(f.Endpoint, f.Model), nil
	case ProviderMock:
		return llm.NewMock(), nil
	default:
		return nil, errors.Errorf("unknown llm provider: %s", f.Provider)
	}
}
