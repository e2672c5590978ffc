package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scout/internal/models"
)

func rowsOf(positions ...string) []models.Row {
	rows := make([]models.Row, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, models.NewRow(map[string]string{models.FieldPosition: p}))
	}
	return rows
}

func receive(t *testing.T, b *Bus) models.BusMessage {
	t.Helper()
	select {
	case msg := <-b.Subscribe():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bus message")
		return models.BusMessage{}
	}
}

func TestPublishSplitsIntoBatches(t *testing.T) {
	b := New()
	defer b.Close()

	b.Publish("STATIC", rowsOf("a", "b", "c", "d"))

	first := receive(t, b)
	assert.Equal(t, "STATIC", first.ParserTag)
	assert.Len(t, first.Batch, 3)

	second := receive(t, b)
	assert.Len(t, second.Batch, 1)
	assert.Equal(t, "d", second.Batch[0].Get(models.FieldPosition))
}

func TestPublishExactBatchSize(t *testing.T) {
	b := New()
	defer b.Close()

	b.Publish("STATIC", rowsOf("a", "b", "c"))

	msg := receive(t, b)
	assert.Len(t, msg.Batch, 3)

	select {
	case extra := <-b.Subscribe():
		t.Fatalf("unexpected second message: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOrderPreservedAcrossPublishes(t *testing.T) {
	b := New()
	defer b.Close()

	b.Publish("A", rowsOf("1"))
	b.Publish("B", rowsOf("2"))

	assert.Equal(t, "A", receive(t, b).ParserTag)
	assert.Equal(t, "B", receive(t, b).ParserTag)
}

func TestDrained(t *testing.T) {
	b := New()
	defer b.Close()

	assert.True(t, b.Drained())

	b.Publish("A", rowsOf("1", "2", "3", "4"))
	assert.False(t, b.Drained())

	receive(t, b)
	receive(t, b)

	require.Eventually(t, b.Drained, time.Second, 10*time.Millisecond)
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	b := New()
	b.Close()

	b.Publish("A", rowsOf("1"))

	select {
	case msg := <-b.Subscribe():
		t.Fatalf("unexpected message after close: %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
