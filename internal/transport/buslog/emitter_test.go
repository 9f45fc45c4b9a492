package buslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/o1-security/gumd/internal/logger"
)

func TestEmitSignalLogsObjectPathAndName(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "INFO", "json", false)

	var e Emitter
	e.EmitSignal("/org/O1/SecurityAccounts/gUserManagement/User/1000", "userAdded", 1000, "alice")

	out := buf.String()
	if !strings.Contains(out, "/org/O1/SecurityAccounts/gUserManagement/User/1000") {
		t.Errorf("log output missing object path: %s", out)
	}
	if !strings.Contains(out, "userAdded") {
		t.Errorf("log output missing signal name: %s", out)
	}
}

func TestEmitSignalWithNoArgsDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "INFO", "json", false)

	var e Emitter
	e.EmitSignal("/root", "groupDeleted")

	if !strings.Contains(buf.String(), "groupDeleted") {
		t.Errorf("log output missing signal name: %s", buf.String())
	}
}
