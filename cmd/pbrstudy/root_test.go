package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaddyFinan/Petrobras-project/internal/config"
	"github.com/PaddyFinan/Petrobras-project/internal/finance"
	"github.com/PaddyFinan/Petrobras-project/internal/study"
)

var errStubDownload = errors.New("stub download")

type stubDownloader struct {
	calls int
	req   finance.DownloadRequest
}

func (s *stubDownloader) Download(_ context.Context, req finance.DownloadRequest) (*finance.RawTable, error) {
	s.calls++
	s.req = req
	return nil, errStubDownload
}

// unsetExporterEnv clears exporter settings for the test's duration.
func unsetExporterEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "STUDY_SQLITE_PATH"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func execute(t *testing.T, args ...string) (*stubDownloader, error) {
	t.Helper()
	unsetExporterEnv(t)
	dl := &stubDownloader{}
	a := &app{
		stdout: &bytes.Buffer{},
		newDownloader: func(*config.Config, zerolog.Logger) study.Downloader {
			return dl
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return dl, cmd.ExecuteContext(context.Background())
}

func TestRun_FlagsOverrideEnv(t *testing.T) {
	envDir := filepath.Join(t.TempDir(), "env-out")
	flagDir := filepath.Join(t.TempDir(), "flag-out")
	t.Setenv("STUDY_START", "not-a-date")
	t.Setenv("STUDY_END", "2020-01-01")
	t.Setenv("STUDY_OUTPUT_DIR", envDir)

	dl, err := execute(t, "run", "--start", "2019-03-04", "--out", flagDir)
	require.ErrorIs(t, err, errStubDownload)

	require.Equal(t, 1, dl.calls)
	assert.Equal(t, time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC), dl.req.Start)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), dl.req.End)
	assert.Equal(t, study.Tickers, dl.req.Tickers)

	assert.DirExists(t, flagDir)
	assert.NoDirExists(t, envDir)
}

func TestRoot_DefaultActionRuns(t *testing.T) {
	t.Setenv("STUDY_START", "2017-05-01")
	t.Setenv("STUDY_END", "")
	t.Setenv("STUDY_OUTPUT_DIR", filepath.Join(t.TempDir(), "output"))

	dl, err := execute(t)
	require.ErrorIs(t, err, errStubDownload)
	require.Equal(t, 1, dl.calls)
	assert.Equal(t, time.Date(2017, 5, 1, 0, 0, 0, 0, time.UTC), dl.req.Start)
	assert.True(t, dl.req.End.IsZero())
}

func TestRun_InvalidFlags(t *testing.T) {
	t.Setenv("STUDY_OUTPUT_DIR", filepath.Join(t.TempDir(), "output"))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"end date", []string{"run", "--end", "yesterday"}, "invalid end date"},
		{"log level", []string{"--log-level", "loud"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dl, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, dl.calls)
		})
	}
}

func TestRun_SQLiteDirError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	dl := &stubDownloader{}
	a := &app{
		stdout:        &bytes.Buffer{},
		newDownloader: func(*config.Config, zerolog.Logger) study.Downloader { return dl },
	}
	unsetExporterEnv(t)
	t.Setenv("STUDY_OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("STUDY_SQLITE_PATH", filepath.Join(blocker, "sub", "study.db"))

	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"run"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create sqlite dir")
	assert.Zero(t, dl.calls)
}
