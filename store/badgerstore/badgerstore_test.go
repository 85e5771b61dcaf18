package badgerstore

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/kvbench/store"
	"github.com/weiihann/kvbench/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(t.TempDir(), slog.New(slog.DiscardHandler))
		require.NoError(t, err)

		return s
	})
}

func TestEmptyKeyRejected(t *testing.T) {
	s, err := store.Open(EngineName, t.TempDir(), nil)
	require.NoError(t, err)
	defer s.Close()

	b, err := s.NewBatch()
	require.NoError(t, err)
	defer b.Discard()

	assert.Error(t, b.Put(nil, []byte{1}))
}

func TestLoggerForwardsToSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := slogLogger{logger}
	l.Infof("opened %d tables\n", 3)
	l.Debugf("hidden")

	out := buf.String()
	assert.Contains(t, out, "opened 3 tables")
	assert.NotContains(t, out, "hidden")
}
