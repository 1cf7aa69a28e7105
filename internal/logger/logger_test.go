package logger_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamelibrary/internal/logger"
)

func baseConfig() logger.Log {
	return logger.Log{
		LogLevel:    "info",
		AppName:     "test",
		ServiceName: "test",
	}
}

func TestInitValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*logger.Log)
		wantErr error
	}{
		{"unknown level", func(c *logger.Log) { c.LogLevel = "loud" }, nil},
		{"missing service", func(c *logger.Log) { c.ServiceName = "" }, logger.ErrServiceNameIsEmpty},
		{"missing app", func(c *logger.Log) { c.AppName = "" }, logger.ErrAppNameIsEmpty},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)

			err := logger.Init(cfg)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestInitSplitsFilesByLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.File = logger.LogFile{
		Enabled:  true,
		Path:     dir,
		InfoLog:  "info.log",
		ErrorLog: "error.log",
		MaxSize:  1,
	}

	require.NoError(t, logger.Init(cfg))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Str("component", "test").Msg("info line")
	log.Error().Msg("error line")
	log.Debug().Msg("filtered out")

	infoLines := readJSONLines(t, filepath.Join(dir, "info.log"))
	errorLines := readJSONLines(t, filepath.Join(dir, "error.log"))

	require.Len(t, infoLines, 1)
	assert.Equal(t, "info line", infoLines[0]["message"])
	assert.Equal(t, "test", infoLines[0]["component"])
	assert.Equal(t, "test", infoLines[0]["app"])

	require.Len(t, errorLines, 1)
	assert.Equal(t, "error", errorLines[0]["level"])
}

func TestLevelWriterRouting(t *testing.T) {
	var info, errs recorder
	lw := &logger.LevelWriter{InfoWriter: &info, ErrorWriter: &errs}

	_, _ = lw.WriteLevel(zerolog.DebugLevel, []byte("d"))
	_, _ = lw.WriteLevel(zerolog.WarnLevel, []byte("w"))
	_, _ = lw.WriteLevel(zerolog.Disabled, []byte("x"))
	_, _ = lw.WriteLevel(zerolog.NoLevel, []byte("n"))

	assert.Equal(t, "dn", string(info))
	assert.Equal(t, "w", string(errs))
}

type recorder []byte

func (r *recorder) Write(p []byte) (int, error) {
	*r = append(*r, p...)
	return len(p), nil
}

func readJSONLines(t *testing.T, name string) []map[string]any {
	t.Helper()

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}

	return lines
}
