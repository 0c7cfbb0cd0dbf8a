package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployJSON(t *testing.T) {
	t.Run("running deploy omits completion fields", func(t *testing.T) {
		dep := Deploy{
			ID:      "dep-1",
			Service: "voice-chatbot-api",
			Trigger: "push",
			Status:  "LIVE",
		}

		data, err := json.Marshal(dep)
		require.NoError(t, err)

		assert.NotContains(t, string(data), "exit_code")
		assert.NotContains(t, string(data), "completed_at")
		assert.NotContains(t, string(data), "error")
	})

	t.Run("a clean exit keeps its zero exit code", func(t *testing.T) {
		code := 0
		dep := Deploy{
			ID:       "dep-1",
			Service:  "voice-chatbot-api",
			Trigger:  "manual",
			Status:   "SUCCEEDED",
			ExitCode: &code,
		}

		data, err := json.Marshal(dep)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"exit_code":0`)

		var decoded Deploy
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.NotNil(t, decoded.ExitCode)
		assert.Equal(t, 0, *decoded.ExitCode)
	})
}

func TestStreamMessageJSON(t *testing.T) {
	t.Run("log message carries the event", func(t *testing.T) {
		msg := StreamMessage{
			Type:  StreamMessageTypeLog,
			Event: &LogEvent{Timestamp: 1700000000000, Message: "Collecting uvicorn", Stream: LogStreamStdout},
		}

		data, err := json.Marshal(msg)
		require.NoError(t, err)

		var decoded StreamMessage
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, StreamMessageTypeLog, decoded.Type)
		require.NotNil(t, decoded.Event)
		assert.Equal(t, "Collecting uvicorn", decoded.Event.Message)
		assert.Nil(t, decoded.Reason)
	})

	t.Run("disconnect message carries the reason", func(t *testing.T) {
		reason := StreamDisconnectReasonDeployFinished
		msg := StreamMessage{Type: StreamMessageTypeDisconnect, Reason: &reason}

		data, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"reason":"deploy_finished"`)
		assert.NotContains(t, string(data), "event")
	})
}
