package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesEntries(t *testing.T) {
	log := New("logger-test")
	log.DisableConsoleOutput()
	log.SetPrefix("SERVICE")
	entries := log.Subscribe()

	log.Warn("no datasource for %s", "entity")

	select {
	case entry := <-entries:
		assert.Equal(t, LevelWarn, entry.Level)
		assert.Equal(t, "no datasource for entity", entry.Message)
		assert.Equal(t, "SERVICE", entry.Prefix)
		assert.Equal(t, "logger-test", entry.Component)
	case <-time.After(time.Second):
		t.Fatal("expected a log entry")
	}
}

func TestSubscribersSeeEntriesBelowConsoleLevel(t *testing.T) {
	log := New("logger-test")
	log.DisableConsoleOutput()
	log.SetLevel(LevelError)
	entries := log.Subscribe()

	log.Debug("debug line")

	select {
	case entry := <-entries:
		assert.Equal(t, LevelDebug, entry.Level)
	case <-time.After(time.Second):
		t.Fatal("expected a log entry")
	}
}

func TestWithFields(t *testing.T) {
	log := New("logger-test")
	log.DisableConsoleOutput()
	entries := log.Subscribe()

	log.WithFields(map[string]string{"collection": "users"}).Error("insert failed")

	entry := <-entries
	require.NotNil(t, entry.Fields)
	assert.Equal(t, "users", entry.Fields["collection"])
	assert.Equal(t, LevelError, entry.Level)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
