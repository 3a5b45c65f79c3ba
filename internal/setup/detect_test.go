package setup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yolodolo42/safebot/internal/config"
)

func TestDetectStatus(t *testing.T) {
	t.Run("nil config is incomplete", func(t *testing.T) {
		assert.Equal(t, Status{}, DetectStatus(nil))
		assert.True(t, NeedsSetup(nil))
	})

	t.Run("partial credentials", func(t *testing.T) {
		cfg := &config.Config{Lark: config.LarkConfig{AppID: "cli_1", AppSecret: "s"}}
		status := DetectStatus(cfg)

		assert.True(t, status.HasAppID)
		assert.True(t, status.HasAppSecret)
		assert.False(t, status.HasVerificationToken)
		assert.False(t, status.IsComplete())
		assert.True(t, NeedsSetup(cfg))
	})

	t.Run("complete", func(t *testing.T) {
		cfg := &config.Config{Lark: config.LarkConfig{AppID: "cli_1", AppSecret: "s", VerificationToken: "v"}}
		assert.False(t, NeedsSetup(cfg))
	})
}

func TestPrintEnvInstructions(t *testing.T) {
	var buf bytes.Buffer
	PrintEnvInstructions(&buf)
	out := buf.String()

	for _, env := range []string{"SAFEBOT_LARK_APP_ID", "SAFEBOT_LARK_APP_SECRET", "SAFEBOT_LARK_VERIFICATION_TOKEN"} {
		assert.Contains(t, out, env)
	}
}
