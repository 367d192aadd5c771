package email

import (
	"testing"

	"finbridge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendFailureInvokesHook(t *testing.T) {
	// Port 1 on loopback refuses connections, so the dial fails fast.
	cfg := &config.Config{
		SMTPHost: "127.0.0.1",
		SMTPPort: 1,
		SMTPFrom: "noreply@finbridge.local",
	}

	failures := 0
	m := NewMailer(cfg, zap.NewNop(), func() { failures++ })

	err := m.SendOTP("user@example.com", "123456", "registration")

	require.Error(t, err)
	assert.Equal(t, 1, failures)
}

func TestNewMailerNilHook(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1}, zap.NewNop(), nil)

	// A nil hook must not panic on failure.
	err := m.SendOTP("user@example.com", "123456", "registration")
	require.Error(t, err)
}

func TestRenderLayoutOmitsEmptyCTA(t *testing.T) {
	html := renderLayout("Heading", "<p>Body</p>", "Open", "")
	assert.NotContains(t, html, "<a href")

	html = renderLayout("Heading", "<p>Body</p>", "Open", "https://example.com")
	assert.Contains(t, html, `href="https://example.com"`)
	assert.Contains(t, html, ">Open</a>")
}
