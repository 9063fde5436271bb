package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
)

// Stage label colors for per-repository console output.
var (
	FailColor     = color.New(color.FgRed, color.Bold) // FailColor marks a repository-scoped failure.
	FallbackColor = color.New(color.FgYellow)          // FallbackColor marks a recovered step.
	OKColor       = color.New(color.FgGreen)           // OKColor marks a completed repository.
	InfoColor     = color.New(color.FgCyan)            // InfoColor marks informational progress.
)

// Stage label outcomes.
const (
	OutcomeOK       = "OK"
	OutcomeFail     = "FAIL"
	OutcomeFallback = "FALLBACK"
	OutcomeSkip     = "SKIP"
	OutcomeInfo     = "INFO"
)

// reservedDeviceNames are basenames Windows refuses to create.
var reservedDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// StageLabel renders a bracketed label such as "[CLONE FAIL]".
func StageLabel(stage, outcome string) string {
	text := fmt.Sprintf("[%s %s]", strings.ToUpper(stage), outcome)
	switch outcome {
	case OutcomeFail:
		return FailColor.Sprint(text)
	case OutcomeFallback, OutcomeSkip:
		return FallbackColor.Sprint(text)
	case OutcomeOK:
		return OKColor.Sprint(text)
	default:
		return InfoColor.Sprint(text)
	}
}

// LogStage prints one per-repository progress line to stderr.
func LogStage(stage, outcome, repo, detail string) {
	if detail == "" {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", StageLabel(stage, outcome), repo)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %s\n", StageLabel(stage, outcome), repo, detail)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the results store.
func GetStoreDBFilePath() string {
	homeDir, err := homedir.Dir()
	if err != nil {
		return ".repostudy_results.db"
	}
	return filepath.Join(homeDir, ".repostudy_results.db")
}

// ScratchName turns "owner/name" into a single filesystem-safe path segment.
func ScratchName(repo string) string {
	name := strings.ReplaceAll(repo, "/", "__")
	name = strings.ReplaceAll(name, `\`, "__")
	return SanitizeSegment(name)
}

// SanitizeSegment makes one path segment valid on every common filesystem.
// Illegal characters become '_', trailing dots and spaces are dropped, and
// reserved device names get a '_' prefix.
func SanitizeSegment(seg string) string {
	seg = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"|?*`, r) || r < 0x20 {
			return '_'
		}
		return r
	}, seg)
	seg = strings.TrimRight(seg, ". ")
	base, _, _ := strings.Cut(seg, ".")
	if _, reserved := reservedDeviceNames[strings.ToUpper(base)]; reserved {
		seg = "_" + seg
	}
	if seg == "" {
		return "_"
	}
	return seg
}

// SanitizeRelPath sanitizes every segment of a slash-separated relative path.
// Empty, "." and ".." segments are dropped so the result never escapes its root.
func SanitizeRelPath(rel string) string {
	parts := strings.Split(strings.ReplaceAll(rel, `\`, "/"), "/")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, SanitizeSegment(p))
	}
	return strings.Join(kept, "/")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(repo string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
