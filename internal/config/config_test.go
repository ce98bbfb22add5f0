package config

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/dump-practice-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_PROVIDER", "Casdoor")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "casdoor", cfg.AuthProvider)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.GetKafkaBrokers())
}

func TestCreateEventPublisher_Memory(t *testing.T) {
	cfg := &EventConfig{Enabled: true, Publisher: "Memory", QuizTopic: "quiz-events"}
	publisher, err := cfg.CreateEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer publisher.Close()

	_, ok := publisher.(*events.WatermillEventPublisher)
	require.True(t, ok)
	assert.NoError(t, publisher.Publish(context.Background(), events.NewEvent(events.EventDumpImported, events.DumpImportedEvent{DumpID: 1})))
}

func TestCreateEventPublisher_DisabledFallsBackToMock(t *testing.T) {
	cfg := &EventConfig{Enabled: false, Publisher: "kafka"}
	publisher, err := cfg.CreateEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, ok := publisher.(*events.MockEventPublisher)
	assert.True(t, ok)
}
