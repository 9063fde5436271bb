package contract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/repostudy/schema"
	"github.com/mitchellh/go-homedir"
)

// Default values for configuration.
const (
	DefaultInput        = "data/" + schema.RepoListFile
	DefaultWorkDir      = "data/_stream_tmp"
	DefaultOutDir       = "data/processed"
	DefaultMaxRepos     = 1000
	DefaultWorkers      = 1
	DefaultPrecision    = 3
	MaxPrecision        = 6
	DefaultCKXms        = "256m"
	DefaultCKXmx        = "1024m"
	DefaultCloneTimeout = 15 * time.Minute
	DefaultClocTimeout  = 30 * time.Minute
	DefaultCKTimeout    = 60 * time.Minute
	DefaultMinN         = 3
	DefaultTopMinN      = 50
	DefaultTopLimit     = 10
	DefaultQuery        = "language:Java"
	DefaultLanguage     = "Java"
	DefaultPageSize     = 50
	MaxPageSize         = 100
	DefaultPageDelay    = 2 * time.Second
)

// ckJarSuffix identifies the CK distribution jar during auto-discovery.
const ckJarSuffix = "-jar-with-dependencies.jar"

// Config holds the runtime configuration of every command.
// This struct remains the "final, validated" config.
type Config struct {
	// Output
	OutDir     string
	OutSuffix  string
	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Progress   bool

	// Results store
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	// Measurement
	InputPath    string
	WorkDir      string
	MaxRepos     int
	StartAt      int
	FilterStr    string
	Filter       *regexp.Regexp
	SkipCloc     bool
	SkipCK       bool
	Workers      int
	GitExe       string
	ClocExe      string
	JavaExe      string
	CKJar        string
	KeepTemp     bool
	ShardMod     int
	ShardIdx     int
	CKXms        string
	CKXmx        string
	ClocExtended bool
	CloneTimeout time.Duration
	ClocTimeout  time.Duration
	CKTimeout    time.Duration

	// Merge
	InDir string

	// Analysis
	MinN     int
	TopMinN  int
	TopLimit int

	// Missing
	WriteMissing bool

	// Collection
	Query       string
	Language    string
	PageSize    int
	PageDelay   time.Duration
	GitHubToken string // Please use env var as this is plaintext
}

// Clone returns a copy of the config that per-request callers can override.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	OutDir         string `mapstructure:"out-dir"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Progress       bool   `mapstructure:"progress"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Input          string `mapstructure:"input"`

	// --- Fields from processCmd.Flags() ---
	WorkDir      string `mapstructure:"work-dir"`
	OutSuffix    string `mapstructure:"out-suffix"`
	Max          int    `mapstructure:"max"`
	StartAt      int    `mapstructure:"start-at"`
	Filter       string `mapstructure:"filter"`
	SkipCloc     bool   `mapstructure:"skip-cloc"`
	SkipCK       bool   `mapstructure:"skip-ck"`
	Workers      int    `mapstructure:"workers"`
	GitExe       string `mapstructure:"git-exe"`
	ClocExe      string `mapstructure:"cloc-exe"`
	JavaExe      string `mapstructure:"java-exe"`
	CKJar        string `mapstructure:"ck-jar"`
	KeepTemp     bool   `mapstructure:"keep-temp"`
	ShardMod     int    `mapstructure:"shard-mod"`
	ShardIdx     int    `mapstructure:"shard-idx"`
	CKXms        string `mapstructure:"ck-xms"`
	CKXmx        string `mapstructure:"ck-xmx"`
	ClocExtended bool   `mapstructure:"cloc-extended"`
	CloneTimeout string `mapstructure:"clone-timeout"`
	ClocTimeout  string `mapstructure:"cloc-timeout"`
	CKTimeout    string `mapstructure:"ck-timeout"`

	// --- Fields from mergeCmd.Flags() ---
	InDir string `mapstructure:"in-dir"`

	// --- Fields from analyzeCmd.Flags() ---
	MinN    int `mapstructure:"min-n"`
	TopMinN int `mapstructure:"top-min-n"`
	Top     int `mapstructure:"top"`

	// --- Fields from missingCmd.Flags() ---
	Write bool `mapstructure:"write"`

	// --- Fields from fetchCmd.Flags() ---
	Query       string `mapstructure:"query"`
	Language    string `mapstructure:"language"`
	PageSize    int    `mapstructure:"page-size"`
	PageDelay   string `mapstructure:"page-delay"`
	GitHubToken string `mapstructure:"github-token"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processPaths(cfg, input); err != nil {
		return err
	}
	if err := processWorkPlan(cfg, input); err != nil {
		return err
	}
	if err := processToolSettings(cfg, input); err != nil {
		return err
	}
	if err := processAnalysisInputs(cfg, input); err != nil {
		return err
	}
	return processFetchInputs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the results store configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(input.StoreBackend)
	if backend == "" {
		backend = string(schema.NoneBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateOutputInputs processes the presentation fields shared by every command.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Progress = input.Progress

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	if cfg.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", cfg.Width)
	}
	return nil
}

// processPaths expands '~' in every path-valued input.
func processPaths(cfg *Config, input *ConfigRawInput) error {
	var err error
	expand := func(dst *string, src string) {
		if err != nil || src == "" {
			*dst = src
			return
		}
		*dst, err = homedir.Expand(src)
	}
	expand(&cfg.InputPath, input.Input)
	expand(&cfg.WorkDir, input.WorkDir)
	expand(&cfg.OutDir, input.OutDir)
	expand(&cfg.InDir, input.InDir)
	expand(&cfg.CKJar, input.CKJar)
	expand(&cfg.GitExe, input.GitExe)
	expand(&cfg.ClocExe, input.ClocExe)
	expand(&cfg.JavaExe, input.JavaExe)
	expand(&cfg.OutputFile, input.OutputFile)
	if err != nil {
		return fmt.Errorf("cannot expand path: %w", err)
	}
	if cfg.InDir == "" {
		cfg.InDir = cfg.OutDir
	}
	return nil
}

// processWorkPlan validates selection, sharding and concurrency.
func processWorkPlan(cfg *Config, input *ConfigRawInput) error {
	cfg.OutSuffix = input.OutSuffix
	if strings.ContainsAny(cfg.OutSuffix, `/\`) {
		return fmt.Errorf("out-suffix cannot contain path separators (received %q)", cfg.OutSuffix)
	}

	if input.Max < 0 {
		return fmt.Errorf("max cannot be negative (received %d)", input.Max)
	}
	cfg.MaxRepos = input.Max

	if input.StartAt < 0 {
		return fmt.Errorf("start-at cannot be negative (received %d)", input.StartAt)
	}
	cfg.StartAt = input.StartAt

	if input.ShardMod < 1 {
		return fmt.Errorf("shard-mod must be >= 1 (received %d)", input.ShardMod)
	}
	if input.ShardIdx < 0 || input.ShardIdx >= input.ShardMod {
		return fmt.Errorf("shard-idx must be in [0, %d) (received %d)", input.ShardMod, input.ShardIdx)
	}
	cfg.ShardMod = input.ShardMod
	cfg.ShardIdx = input.ShardIdx

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.FilterStr = input.Filter
	cfg.Filter = nil
	if input.Filter != "" {
		re, err := regexp.Compile(input.Filter)
		if err != nil {
			return fmt.Errorf("invalid filter regex '%s': %w", input.Filter, err)
		}
		cfg.Filter = re
	}
	cfg.SkipCloc = input.SkipCloc
	cfg.SkipCK = input.SkipCK
	cfg.KeepTemp = input.KeepTemp
	cfg.ClocExtended = input.ClocExtended
	return nil
}

// processToolSettings parses JVM sizes and per-tool timeouts.
func processToolSettings(cfg *Config, input *ConfigRawInput) error {
	jvmSize := regexp.MustCompile(`^[0-9]+[kKmMgG]?$`)
	cfg.CKXms = input.CKXms
	if cfg.CKXms == "" {
		cfg.CKXms = DefaultCKXms
	}
	cfg.CKXmx = input.CKXmx
	if cfg.CKXmx == "" {
		cfg.CKXmx = DefaultCKXmx
	}
	if !jvmSize.MatchString(cfg.CKXms) {
		return fmt.Errorf("invalid ck-xms '%s'. expected a JVM size like 256m", cfg.CKXms)
	}
	if !jvmSize.MatchString(cfg.CKXmx) {
		return fmt.Errorf("invalid ck-xmx '%s'. expected a JVM size like 1024m or 2g", cfg.CKXmx)
	}

	timeouts := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"clone-timeout", input.CloneTimeout, DefaultCloneTimeout, &cfg.CloneTimeout},
		{"cloc-timeout", input.ClocTimeout, DefaultClocTimeout, &cfg.ClocTimeout},
		{"ck-timeout", input.CKTimeout, DefaultCKTimeout, &cfg.CKTimeout},
	}
	for _, t := range timeouts {
		d, err := parseDurationOr(t.raw, t.def)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", t.name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive (received %s)", t.name, d)
		}
		*t.dst = d
	}
	return nil
}

// processAnalysisInputs validates the correlation thresholds.
func processAnalysisInputs(cfg *Config, input *ConfigRawInput) error {
	if input.MinN < 3 {
		return fmt.Errorf("min-n must be at least 3 (received %d)", input.MinN)
	}
	cfg.MinN = input.MinN
	if input.TopMinN < 0 {
		return fmt.Errorf("top-min-n cannot be negative (received %d)", input.TopMinN)
	}
	cfg.TopMinN = input.TopMinN
	if input.Top < 0 {
		return fmt.Errorf("top cannot be negative (received %d)", input.Top)
	}
	cfg.TopLimit = input.Top
	cfg.WriteMissing = input.Write
	return nil
}

// processFetchInputs validates the collection settings.
func processFetchInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Query = strings.TrimSpace(input.Query)
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	cfg.Language = strings.TrimSpace(input.Language)
	if input.PageSize < 1 || input.PageSize > MaxPageSize {
		return fmt.Errorf("page-size must be between 1 and %d (received %d)", MaxPageSize, input.PageSize)
	}
	cfg.PageSize = input.PageSize

	delay, err := parseDurationOr(input.PageDelay, DefaultPageDelay)
	if err != nil {
		return fmt.Errorf("invalid page-delay: %w", err)
	}
	if delay < 0 {
		return fmt.Errorf("page-delay cannot be negative (received %s)", delay)
	}
	cfg.PageDelay = delay

	cfg.GitHubToken = input.GitHubToken
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	return nil
}

func parseDurationOr(raw string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return time.ParseDuration(strings.TrimSpace(raw))
}

// ResolveTools locates the external executables needed by the measurement loop.
// A missing git is fatal. A missing cloc or java disables that measurement with a warning.
// A CK jar that cannot be read is fatal unless CK is skipped.
func ResolveTools(cfg *Config) error {
	gitExe, err := ResolveExecutable("git", cfg.GitExe)
	if err != nil {
		return fmt.Errorf("git not found: %w. Install git or pass --git-exe", err)
	}
	cfg.GitExe = gitExe

	if !cfg.SkipCloc {
		clocExe, err := ResolveExecutable("cloc", cfg.ClocExe)
		if err != nil {
			LogWarn("cloc not found; skipping size metrics", err)
			cfg.SkipCloc = true
		}
		cfg.ClocExe = clocExe
	}

	if !cfg.SkipCK {
		javaExe, err := ResolveExecutable("java", cfg.JavaExe)
		if err != nil {
			LogWarn("java not found; skipping quality metrics", err)
			cfg.SkipCK = true
		}
		cfg.JavaExe = javaExe
	}

	if !cfg.SkipCK {
		jar, err := FindCKJar(cfg.CKJar)
		if err != nil {
			return err
		}
		cfg.CKJar = jar
	}
	return nil
}

// ResolveExecutable returns the absolute path of an executable.
// An explicit path must exist; otherwise name is searched on PATH, with JAVA_HOME
// consulted for java.
func ResolveExecutable(name, explicit string) (string, error) {
	if explicit != "" {
		if strings.ContainsRune(explicit, filepath.Separator) || strings.ContainsRune(explicit, '/') {
			info, err := os.Stat(explicit)
			if err != nil {
				return "", err
			}
			if info.IsDir() {
				return "", fmt.Errorf("%s is a directory", explicit)
			}
			return filepath.Abs(explicit)
		}
		return exec.LookPath(explicit)
	}
	path, err := exec.LookPath(name)
	if err == nil {
		return path, nil
	}
	if name == "java" {
		if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
			candidate := filepath.Join(javaHome, "bin", "java")
			if runtime.GOOS == "windows" {
				candidate += ".exe"
			}
			if _, statErr := os.Stat(candidate); statErr == nil {
				return candidate, nil
			}
		}
	}
	return "", err
}

// FindCKJar validates an explicit CK jar path, or looks for a
// "*-jar-with-dependencies.jar" under tools/ck and ~/.repostudy/ck.
func FindCKJar(explicit string) (string, error) {
	if explicit != "" {
		f, err := os.Open(explicit)
		if err != nil {
			return "", fmt.Errorf("cannot read CK jar: %w", err)
		}
		_ = f.Close()
		return filepath.Abs(explicit)
	}
	dirs := []string{filepath.Join("tools", "ck")}
	if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".repostudy", "ck"))
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ckJarSuffix) {
				return filepath.Abs(filepath.Join(dir, e.Name()))
			}
		}
	}
	return "", fmt.Errorf("CK jar not found in %s. Pass --ck-jar or use --skip-ck", strings.Join(dirs, ", "))
}
