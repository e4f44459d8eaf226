package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine_BehaviorRecorded(t *testing.T) {
	body, err := json.Marshal(BehaviorRecordedEvent{
		BehaviorID: 5, StudentName: "Ali Veli", TeacherName: "Musa Isler",
		Type: "negative", Category: "Late", Stage: 1,
		NotifiedIDs: []uint64{2, 2}, RecordedAt: "2024-09-01T08:00:00Z",
	})
	require.NoError(t, err)

	line, err := FormatLine(BehaviorRecordedQueue, body)
	require.NoError(t, err)
	assert.Equal(t, `[2024-09-01T08:00:00Z] Behavior recorded | behavior_id=5 | student="Ali Veli" | teacher="Musa Isler" | type=negative | category="Late" | stage=1 | notified=[2,2]`+"\n", line)
}

func TestFormatLine_MessageSent(t *testing.T) {
	body, err := json.Marshal(MessageSentEvent{MessageID: 9, SenderID: 1, SenderName: "Ayse", RecipientID: 2, Preview: "hi", SentAt: "t"})
	require.NoError(t, err)

	line, err := FormatLine(MessageSentQueue, body)
	require.NoError(t, err)
	assert.Equal(t, `[t] Message sent | message_id=9 | from="Ayse" (1) | to=2 | preview="hi"`+"\n", line)
}

func TestFormatLine_Errors(t *testing.T) {
	_, err := FormatLine(MessageSentQueue, []byte("{"))
	assert.Error(t, err)
	_, err = FormatLine("other", []byte("{}"))
	assert.Error(t, err)
}

func TestAppendLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, AppendLine(dir, "one\n"))
	require.NoError(t, AppendLine(dir, "two\n"))

	got, err := os.ReadFile(filepath.Join(dir, AuditFile))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}
