package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"placeetl/internal/config"
	"placeetl/internal/metrics"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestRootCommand_LoadsFilesIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	in2017 := writeFile(t, dir, "2017.csv",
		"ts,user_id,x_coordinate,y_coordinate,color\n"+
			"2017-03-31 00:00:01.000 UTC,a,1,2,7\n"+
			"2017-03-31 00:00:02.000 UTC,b,1000,1000,99\n")
	in2022 := writeFile(t, dir, "2022.csv",
		"timestamp,user_id,pixel_color,coordinate\n"+
			"2022-04-04 00:53:51.577 UTC,c,#00CCC0,\"826,1048\"\n"+
			"2022-04-04 00:53:52.000 UTC,mod,#000000,\"0,0,9,9\"\n")
	db := filepath.Join(dir, "placements.db")
	rejects := filepath.Join(dir, "rejects.csv")

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--db", db, "--echo", "--reject-log", rejects, "--log-level", "error", in2017, in2022})
	require.NoError(t, cmd.Execute(), stderr.String())

	assert.Contains(t, stdout.String(), "color=#A06A42 year=2017")
	assert.Contains(t, stdout.String(), "rect(0,0-9,9)")

	conn, err := sql.Open("sqlite", db)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM placements`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM placements_moderation`).Scan(&n))
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(rejects)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2017.csv,3,color,")
}

func TestRootCommand_MissingInputFails(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "p.db"), "--log-level", "error", filepath.Join(dir, "nope.csv")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}

func TestRootCommand_Validate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "pipeline.yaml", "job: canvas\ninputs: [a.csv]\nruntime: { tile_threshold: 5461 }\n")

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--config", cfgPath, "--validate"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "configuration is valid")

	stdout.Reset()
	stderr.Reset()
	cmd = newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--config", cfgPath, "--storage", "mssql", "--db", "sqlserver://sa@localhost", "--validate"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "runtime.tile_threshold")
}

func TestOptionsApply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	list := writeFile(t, dir, "inputs.txt", "# dumps\nhttps://example.com/a.csv.gz\n\nb.csv\n")

	set := func(names ...string) func(string) bool {
		m := map[string]bool{}
		for _, n := range names {
			m[n] = true
		}
		return func(n string) bool { return m[n] }
	}

	tests := []struct {
		name    string
		fileDSN string
		o       options
		changed []string
		args    []string
		check   func(t *testing.T, p config.Pipeline)
	}{
		{
			name:    "unset flags keep file values",
			fileDSN: "file.db",
			o:       options{db: "placements.db", workers: 1},
			check: func(t *testing.T, p config.Pipeline) {
				assert.Equal(t, "file.db", p.Storage.DSN)
				assert.Equal(t, 4, p.Runtime.NormalizeWorkers)
				assert.Equal(t, []string{"from-file.csv"}, p.Inputs)
			},
		},
		{
			name:    "explicit flags override",
			fileDSN: "file.db",
			o:       options{db: "other.db", workers: 8, echo: true, noBootstrap: true, logLevel: "debug"},
			changed: []string{"db", "workers", "echo", "no-bootstrap", "log-level"},
			args:    []string{"x.csv"},
			check: func(t *testing.T, p config.Pipeline) {
				assert.Equal(t, "other.db", p.Storage.DSN)
				assert.Equal(t, 8, p.Runtime.NormalizeWorkers)
				assert.True(t, p.Echo)
				assert.False(t, p.Storage.Bootstrap)
				assert.Equal(t, "debug", p.Logging.Level)
				assert.Equal(t, []string{"x.csv"}, p.Inputs)
			},
		},
		{
			name:    "switching backend drops the sqlite default path",
			fileDSN: "placements.db",
			o:       options{storageKind: "postgres"},
			changed: []string{"storage"},
			check: func(t *testing.T, p config.Pipeline) {
				assert.Equal(t, "postgres", p.Storage.Kind)
				assert.Empty(t, p.Storage.DSN)
			},
		},
		{
			name: "input list follows positional inputs",
			o:    options{inputList: list},
			args: []string{"first.csv"},
			check: func(t *testing.T, p config.Pipeline) {
				assert.Equal(t, []string{"first.csv", "https://example.com/a.csv.gz", "b.csv"}, p.Inputs)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := config.DefaultPipeline()
			p.Storage.DSN = tt.fileDSN
			p.Runtime.NormalizeWorkers = 4
			p.Inputs = []string{"from-file.csv"}

			o := tt.o
			require.NoError(t, o.apply(set(tt.changed...), &p, tt.args))
			tt.check(t, p)
		})
	}
}

func TestOptionsApply_MissingList(t *testing.T) {
	t.Parallel()

	p := config.DefaultPipeline()
	o := options{inputList: filepath.Join(t.TempDir(), "missing.txt")}
	require.Error(t, o.apply(func(string) bool { return false }, &p, nil))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  config.Logging
		want zapcore.Level
	}{
		{cfg: config.Logging{Level: "debug", Format: "console"}, want: zap.DebugLevel},
		{cfg: config.Logging{Level: "warn", Format: "json"}, want: zap.WarnLevel},
		{cfg: config.Logging{Level: "error"}, want: zap.ErrorLevel},
	}
	for _, tt := range tests {
		l, err := newLogger(tt.cfg)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(tt.want))
		assert.False(t, l.Core().Enabled(tt.want-1))
	}
}

func TestSetupMetrics(t *testing.T) {
	logger := zap.NewNop()

	p := config.DefaultPipeline()
	setupMetrics(p, logger)()

	p.Metrics.Backend = "pushgateway"
	p.Metrics.PushgatewayURL = ""
	flush := setupMetrics(p, logger)
	assert.NotPanics(t, flush, "init failure falls back to nop")

	p.Metrics.Backend = "datadog"
	p.Metrics.DatadogAddr = "127.0.0.1:8125"
	flush = setupMetrics(p, logger)
	metrics.RecordRecords(p.Job, metrics.KindLines, 1)
	assert.NotPanics(t, flush)
}
