package llm

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReadsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	o := NewChatOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, "from-env", o.APIKey)

	o = NewChatOptions()
	o.APIKey = "explicit"
	require.NoError(t, o.Complete())
	assert.Equal(t, "explicit", o.APIKey)
}

func TestValidate(t *testing.T) {
	o := NewEmbeddingOptions()
	assert.Len(t, o.Validate(), 1, "missing api key")

	o.APIKey = "k"
	assert.Empty(t, o.Validate())

	o.Model = ""
	o.Timeout = 0
	assert.Len(t, o.Validate(), 2)
}

func TestToConfigMapTemperature(t *testing.T) {
	chat := NewChatOptions()
	assert.Equal(t, 0.3, chat.ToConfigMap()["temperature"])

	embed := NewEmbeddingOptions()
	_, ok := embed.ToConfigMap()["temperature"]
	assert.False(t, ok)
}

func TestAddFlagsWithPrefix(t *testing.T) {
	o := NewChatOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "chat")

	require.NoError(t, fs.Parse([]string{"--chat.model", "mixtral", "--chat.temperature", "0"}))
	assert.Equal(t, "mixtral", o.Model)
	assert.Equal(t, 0.0, o.Temperature)
}
