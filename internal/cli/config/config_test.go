package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
)

// writeProject writes leapflow.yaml into a fresh directory and returns its path.
func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "leapflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// flowFlags mirrors the persistent flags the root command registers.
func flowFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("object", "", "")
	flags.StringSlice("path", nil, "")
	flags.String("metric", "", "")
	flags.String("metric-field", "", "")
	flags.String("null-handling", "", "")
	flags.String("state", "", "")
	flags.String("csv", "", "")
	flags.StringArray("filter", nil, "")
	flags.StringP("output", "o", "", "")
	return flags
}

const baseProject = `
flow:
  object: from_file
  path_fields: [Source, Outcome]
target:
  type: duckdb
  path: flows.duckdb
`

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	path := writeProject(t, baseProject)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 960, cfg.Viewport.Width)
	assert.Equal(t, 540, cfg.Viewport.Height)
	assert.Equal(t, 8765, cfg.GetUIConfig().Port)
	assert.Equal(t, filepath.Join(dir, "flows.duckdb"), cfg.Target.Path)
	assert.Equal(t, "main", cfg.Target.Schema)
	assert.Equal(t, core.MetricCount, cfg.Flow.MetricType)
	assert.Equal(t, core.GroupUnknown, cfg.Flow.NullHandling)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	require.NoError(t, cfg.ValidateFlow())
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeProject(t, baseProject)
	t.Setenv("LEAPFLOW_FLOW__OBJECT", "from_env")

	flags := flowFlags()
	require.NoError(t, flags.Set("object", "from_flag"))
	require.NoError(t, flags.Set("path", "Channel,Review,Decision"))
	require.NoError(t, flags.Set("metric", "amount"))
	require.NoError(t, flags.Set("metric-field", "Amount"))
	require.NoError(t, flags.Set("null-handling", "stop"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Flow.Object, "flag value should override config file and env var")
	assert.Equal(t, []string{"Channel", "Review", "Decision"}, cfg.Flow.PathFields)
	assert.Equal(t, core.MetricAmount, cfg.Flow.MetricType)
	assert.Equal(t, "Amount", cfg.Flow.MetricField)
	assert.Equal(t, core.Stop, cfg.Flow.NullHandling)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeProject(t, baseProject)
	t.Setenv("LEAPFLOW_FLOW__OBJECT", "from_env")
	t.Setenv("LEAPFLOW_OUTPUT", "json")

	// Flags exist but are not set, so Changed is false
	cfg, err := LoadConfig(path, flowFlags())
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Flow.Object, "env var should override config file")
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	path := writeProject(t, `
target:
  type: postgres
  host: db.internal
  database: crm
  user: ${PG_TEST_USER}
  password: ${PG_TEST_PASSWORD}
flow:
  object: deals
  path_fields: [Stage, Outcome]
`)
	dotEnv := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(dotEnv, []byte("PG_TEST_USER=analyst\nPG_TEST_PASSWORD=from-dotenv\nLEAPFLOW_LOG_LEVEL=debug\n"), 0o600))
	// An already set variable wins over the .env file.
	t.Setenv("PG_TEST_PASSWORD", "from-env")
	t.Cleanup(func() {
		_ = os.Unsetenv("PG_TEST_USER")
		_ = os.Unsetenv("LEAPFLOW_LOG_LEVEL")
	})

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, dotEnv, GetDotEnvUsed())
	assert.Equal(t, "analyst", cfg.Target.Username)
	assert.Equal(t, "from-env", cfg.Target.Password)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "public", cfg.Target.Schema)
	assert.Empty(t, cfg.Target.Path)
}

func TestLoadConfig_Environments(t *testing.T) {
	content := `
target:
  type: duckdb
  path: dev.duckdb
  options:
    threads: "2"
environments:
  prod:
    state_path: /var/lib/leapflow/state.db
    target:
      path: prod.duckdb
      options:
        memory_limit: 1GB
`
	t.Run("default environment keeps base target", func(t *testing.T) {
		ResetConfig()
		path := writeProject(t, content)
		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "dev.duckdb"), cfg.Target.Path)
	})

	t.Run("target override merges", func(t *testing.T) {
		ResetConfig()
		path := writeProject(t, content)
		cfg, err := LoadConfigWithTarget(path, "prod", nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "prod.duckdb"), cfg.Target.Path)
		assert.Equal(t, "/var/lib/leapflow/state.db", cfg.StatePath)
		assert.Equal(t, map[string]string{"threads": "2", "memory_limit": "1GB"}, cfg.Target.Options)
	})

	t.Run("unknown environment falls back", func(t *testing.T) {
		ResetConfig()
		path := writeProject(t, content)
		cfg, err := LoadConfigWithTarget(path, "nonexistent", nil)
		require.NoError(t, err)
		assert.Equal(t, "duckdb", cfg.Target.Type)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown target type", content: "target:\n  type: mysql\n", errSubstr: "unknown adapter type"},
		{name: "bad output", content: "output: yaml\n", errSubstr: "output: must be one of"},
		{name: "bad log level", content: "log_level: trace\n", errSubstr: "log_level"},
		{name: "short session secret", content: "ui:\n  session_secret: short\n", errSubstr: "session_secret"},
		{name: "bad metric", content: "flow:\n  metric_type: revenue\n", errSubstr: "unknown metric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeProject(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_FilterFlags(t *testing.T) {
	ResetConfig()
	path := writeProject(t, `
flow:
  object: loans
  path_fields: [Source, Outcome]
  filters:
    - field: Source
      operator: "="
      value: Web
`)
	flags := flowFlags()
	require.NoError(t, flags.Set("filter", "Amount>=100000"))
	require.NoError(t, flags.Set("filter", "Outcome in Funded,Approved"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, []core.Filter{
		{Field: "Amount", Operator: core.OpGte, Value: "100000"},
		{Field: "Outcome", Operator: core.OpIn, Value: "Funded,Approved"},
	}, cfg.Flow.Filters)
}

func TestLoadConfig_PathFlagsRelativeToCWD(t *testing.T) {
	ResetConfig()
	path := writeProject(t, baseProject)
	flags := flowFlags()
	require.NoError(t, flags.Set("state", "custom/state.db"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	want, _ := filepath.Abs("custom/state.db")
	assert.Equal(t, want, cfg.StatePath)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr string
		want core.Filter
	}{
		{"Amount>=100000", core.Filter{Field: "Amount", Operator: core.OpGte, Value: "100000"}},
		{"Amount <= 5", core.Filter{Field: "Amount", Operator: core.OpLte, Value: "5"}},
		{"Stage!=Lost", core.Filter{Field: "Stage", Operator: core.OpNe, Value: "Lost"}},
		{"Stage = 'Closed Won'", core.Filter{Field: "Stage", Operator: core.OpEq, Value: "Closed Won"}},
		{"Amount>0", core.Filter{Field: "Amount", Operator: core.OpGt, Value: "0"}},
		{"Amount<10", core.Filter{Field: "Amount", Operator: core.OpLt, Value: "10"}},
		{"Source IN Web,Broker", core.Filter{Field: "Source", Operator: core.OpIn, Value: "Web,Broker"}},
		{"Name like %corp%", core.Filter{Field: "Name", Operator: core.OpLike, Value: "%corp%"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"Amount", "=5", ""} {
		_, err := ParseFilter(bad)
		assert.True(t, core.IsConfigurationError(err), "expected configuration error for %q", bad)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	t.Run("nil base returns override", func(t *testing.T) {
		override := &TargetConfig{Type: "duckdb"}
		assert.Equal(t, override, MergeTargetConfig(nil, override))
	})

	t.Run("nil override returns base", func(t *testing.T) {
		base := &TargetConfig{Type: "duckdb"}
		assert.Equal(t, base, MergeTargetConfig(base, nil))
	})

	t.Run("override replaces base fields", func(t *testing.T) {
		base := &TargetConfig{Type: "postgres", Database: "crm", Host: "localhost", Schema: "public"}
		override := &TargetConfig{Database: "crm_prod", Schema: "sales"}

		result := MergeTargetConfig(base, override)

		assert.Equal(t, "postgres", result.Type, "Type should be inherited from base")
		assert.Equal(t, "crm_prod", result.Database)
		assert.Equal(t, "sales", result.Schema)
		assert.Equal(t, "localhost", result.Host, "Host should be inherited from base")
		assert.Equal(t, "crm", base.Database, "base must not be modified")
	})
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))

	assert.Equal(t, slog.LevelDebug, ParseLogLevel("error", true))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("INFO", false))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error", false))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("", false))
}

func TestValidateSources(t *testing.T) {
	cfg := &Config{CSV: filepath.Join(t.TempDir(), "missing.csv")}
	err := cfg.ValidateSources()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hint:")

	assert.NoError(t, (&Config{}).ValidateSources())
}
