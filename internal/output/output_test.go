package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSuccessf(t *testing.T) {
	// Save original stderr
	oldStderr := Stderr
	defer func() { Stderr = oldStderr }()

	// Capture output
	buf := &bytes.Buffer{}
	Stderr = buf

	Successf("blueprint is valid")

	output := buf.String()
	if !strings.Contains(output, "blueprint is valid") {
		t.Errorf("expected output to contain 'blueprint is valid', got %q", output)
	}
}

func TestErrorf(t *testing.T) {
	// Save original stderr
	oldStderr := Stderr
	defer func() { Stderr = oldStderr }()

	// Capture output
	buf := &bytes.Buffer{}
	Stderr = buf

	Errorf("something went wrong")

	output := buf.String()
	if !strings.Contains(output, "something went wrong") {
		t.Errorf("expected output to contain 'something went wrong', got %q", output)
	}
}

func TestKeyValue(t *testing.T) {
	// Save original stdout
	oldStdout := Stdout
	defer func() { Stdout = oldStdout }()

	// Capture output
	buf := &bytes.Buffer{}
	Stdout = buf

	KeyValue("key", "value")

	output := buf.String()
	if !strings.Contains(output, "key") || !strings.Contains(output, "value") {
		t.Errorf("expected output to contain 'key' and 'value', got %q", output)
	}
}

func TestStep(t *testing.T) {
	// Save original stderr
	oldStderr := Stderr
	defer func() { Stderr = oldStderr }()

	// Capture output
	buf := &bytes.Buffer{}
	Stderr = buf

	Step(1, 3, "pip install --upgrade pip")

	output := buf.String()
	if !strings.Contains(output, "[1/3]") || !strings.Contains(output, "pip install --upgrade pip") {
		t.Errorf("expected output to contain '[1/3]' and the command, got %q", output)
	}
}

func TestTable(t *testing.T) {
	// Save original stdout
	oldStdout := Stdout
	defer func() { Stdout = oldStdout }()

	// Capture output
	buf := &bytes.Buffer{}
	Stdout = buf

	headers := []string{"Service", "Status"}
	rows := [][]string{
		{"voice-chatbot-api", "LIVE"},
		{"worker-api", "PENDING"},
	}

	Table(headers, rows)

	output := buf.String()
	if !strings.Contains(output, "Service") ||
		!strings.Contains(output, "Status") ||
		!strings.Contains(output, "voice-chatbot-api") ||
		!strings.Contains(output, "LIVE") {
		t.Errorf("table output missing expected content: %q", output)
	}
}

func TestTableEmptyHeaders(t *testing.T) {
	oldStdout := Stdout
	defer func() { Stdout = oldStdout }()

	buf := &bytes.Buffer{}
	Stdout = buf

	Table(nil, [][]string{{"ignored"}})

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty headers, got %q", buf.String())
	}
}

func TestList(t *testing.T) {
	oldStdout := Stdout
	defer func() { Stdout = oldStdout }()

	buf := &bytes.Buffer{}
	Stdout = buf

	List([]string{"first", "second"})

	output := buf.String()
	if !strings.Contains(output, "first") || !strings.Contains(output, "second") {
		t.Errorf("expected output to contain list items, got %q", output)
	}
}

func TestStatusBadge(t *testing.T) {
	tests := []struct {
		status string
	}{
		{"LIVE"},
		{"BUILDING"},
		{"FAILED"},
		{"PENDING"},
		{"SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		badge := StatusBadge(tt.status)
		if !strings.Contains(badge, tt.status) {
			t.Errorf("expected badge to contain %q, got %q", tt.status, badge)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{2 * time.Hour, "2h 0m"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
	}

	for _, tt := range tests {
		result := Duration(tt.d)
		if result != tt.expected {
			t.Errorf("Duration(%v) = %q, want %q", tt.d, result, tt.expected)
		}
	}
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"plain", 5},
		{"\x1b[32mgreen\x1b[0m", 5},
		{"", 0},
	}

	for _, tt := range tests {
		if got := visibleWidth(tt.input); got != tt.expected {
			t.Errorf("visibleWidth(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
