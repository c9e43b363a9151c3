package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const textTimeFormat = "2006-01-02 15:04:05"

// jsonFormatter writes one object per entry. timestamp, level, message, app
// and version are reserved; a field with one of those names is written
// as "fields.<name>".
type jsonFormatter struct {
	appName string
	version string
}

// textFormatter writes "<time> [LEVEL] [app] message k=v ..." with fields
// sorted by key.
type textFormatter struct {
	appName string
}

func levelName(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}

func entryBuffer(entry *logrus.Entry) *bytes.Buffer {
	if entry.Buffer != nil {
		return entry.Buffer
	}
	return &bytes.Buffer{}
}

func (f *jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := logrus.Fields{
		"timestamp": entry.Time.UTC().Format(time.RFC3339),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	if f.appName != "" {
		data["app"] = f.appName
	}
	if f.version != "" {
		data["version"] = f.version
	}

	for k, v := range entry.Data {
		if _, reserved := data[k]; reserved {
			k = "fields." + k
		}
		data[k] = v
	}

	b := entryBuffer(entry)
	if err := json.NewEncoder(b).Encode(data); err != nil {
		return nil, fmt.Errorf("encode log entry: %w", err)
	}
	return b.Bytes(), nil
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entryBuffer(entry)

	fmt.Fprintf(b, "%s [%s] ", entry.Time.Format(textTimeFormat), levelName(entry.Level))
	if f.appName != "" {
		fmt.Fprintf(b, "[%s] ", f.appName)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
