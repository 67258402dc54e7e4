// Package config loads and validates bscan's run-time configuration: the
// packaged TOML/text defaults under configuration/ (overridable via
// --config-dir), CLI-flag overrides, and the derived, ready-to-use port-scan
// methods and service taxonomy, per §6 of SPEC_FULL.md.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/welchbj/bscan/internal/bscanerr"
	"github.com/welchbj/bscan/internal/portscan"
	"github.com/welchbj/bscan/internal/taxonomy"
)

//go:embed configuration/*.toml configuration/*.txt
var defaultFiles embed.FS

// Flags is the raw, unvalidated set of CLI-provided values, one field per
// flag enumerated in §6. A nil slice/empty string means "flag unset; use
// the default".
type Flags struct {
	BrutePassList string
	BruteUserList string
	CmdPrintWidth int // 0 means unset
	ConfigDir     string
	Hard          bool
	MaxConcurrency int // 0 means unset
	OutputDir     string
	Patterns      []string
	PingSweep     bool
	QuickOnly     bool
	QSMethod      string
	StatusInterval int // <= 0 disables status reporting
	TSMethod      string
	UDP           bool
	UDPMethod     string
	VerboseStatus bool
	WebWordList   string
	NoFileCheck   bool
	GitSnapshot   bool
	DashboardAddr string
}

// Config is the fully validated, immutable configuration for a single bscan
// invocation. Every field a pipeline or supervisor needs is resolved here
// once, up front, per the "explicit Config value" design noted in
// SPEC_FULL.md's Design Notes.
type Config struct {
	BrutePassList  string
	BruteUserList  string
	CmdPrintWidth  int
	Hard           bool
	MaxConcurrency int
	OutputDir      string
	Patterns       *regexp.Regexp
	QuickOnly      bool
	StatusInterval int
	UDP            bool
	VerboseStatus  bool
	WebWordList    string
	GitSnapshot    bool
	DashboardAddr  string

	QuickScan    portscan.Method
	ThoroughScan portscan.Method
	UDPScan      portscan.Method

	Services []taxonomy.ProtocolRule
	Shells   []ReverseShell
}

// ReverseShell is one named reverse-shell command template, loaded from
// reverse-shells.toml.
type ReverseShell struct {
	Name string
	Cmd  string
}

// Load validates f and resolves it, along with the packaged or overridden
// configuration files, into a Config. Every failure is a *bscanerr.ConfigError.
func Load(f Flags) (*Config, error) {
	cfg := &Config{}

	if f.BrutePassList == "" {
		cfg.BrutePassList = "/usr/share/wordlists/fasttrack.txt"
	} else {
		cfg.BrutePassList = f.BrutePassList
	}
	if !f.NoFileCheck && !fileExists(cfg.BrutePassList) {
		return nil, bscanerr.NewConfigError("`--brute-pass-list` file %s does not exist", cfg.BrutePassList)
	}

	if f.BruteUserList == "" {
		cfg.BruteUserList = "/usr/share/wordlists/metasploit/namelist.txt"
	} else {
		cfg.BruteUserList = f.BruteUserList
	}
	if !f.NoFileCheck && !fileExists(cfg.BruteUserList) {
		return nil, bscanerr.NewConfigError("`--brute-user-list` file %s does not exist", cfg.BruteUserList)
	}

	cfg.CmdPrintWidth = f.CmdPrintWidth
	if cfg.CmdPrintWidth == 0 {
		cfg.CmdPrintWidth = 80
	}
	if cfg.CmdPrintWidth < 5 {
		return nil, bscanerr.NewConfigError("`--cmd-print-width` must be an integer >= 5")
	}

	cfg.MaxConcurrency = f.MaxConcurrency
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 20
	}
	if cfg.MaxConcurrency < 1 {
		return nil, bscanerr.NewConfigError("`--max-concurrency` must be a positive integer")
	}

	if f.OutputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, bscanerr.NewConfigError("could not determine working directory: %v", err)
		}
		cfg.OutputDir = wd
	} else {
		cfg.OutputDir = f.OutputDir
	}
	if !dirExists(cfg.OutputDir) {
		return nil, bscanerr.NewConfigError("`--output-dir` directory %s does not exist", cfg.OutputDir)
	}

	patternsRaw, err := loadConfigFile("patterns.txt", f.ConfigDir)
	if err != nil {
		return nil, err
	}
	patterns := splitNonEmptyLines(patternsRaw)
	if f.Patterns != nil {
		if len(f.Patterns) == 0 {
			return nil, bscanerr.NewConfigError("`--patterns` requires at least one regex pattern")
		}
		patterns = append(patterns, f.Patterns...)
	}
	compiled, err := regexp.Compile(strings.Join(patterns, "|"))
	if err != nil {
		return nil, bscanerr.NewConfigError("invalid `--patterns` regex: %v", err)
	}
	cfg.Patterns = compiled

	servicesRaw, err := loadConfigFile("service-scans.toml", f.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg.Services, err = parseServiceScans(servicesRaw)
	if err != nil {
		return nil, err
	}

	shellsRaw, err := loadConfigFile("reverse-shells.toml", f.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg.Shells, err = parseReverseShells(shellsRaw)
	if err != nil {
		return nil, err
	}

	portScansRaw, err := loadConfigFile("port-scans.toml", f.ConfigDir)
	if err != nil {
		return nil, err
	}
	stages, err := parsePortScans(portScansRaw)
	if err != nil {
		return nil, err
	}

	cfg.QuickScan, err = resolveMethod(stages, "quick", f.QSMethod, "--qs-method")
	if err != nil {
		return nil, err
	}
	cfg.ThoroughScan, err = resolveMethod(stages, "thorough", f.TSMethod, "--ts-method")
	if err != nil {
		return nil, err
	}
	cfg.UDPScan, err = resolveMethod(stages, "udp", f.UDPMethod, "--udp-method")
	if err != nil {
		return nil, err
	}

	cfg.StatusInterval = f.StatusInterval

	if f.WebWordList == "" {
		cfg.WebWordList = "/usr/share/dirb/wordlists/big.txt"
	} else {
		cfg.WebWordList = f.WebWordList
	}
	if !f.NoFileCheck && !fileExists(cfg.WebWordList) {
		return nil, bscanerr.NewConfigError("`--web-word-list` file %s does not exist", cfg.WebWordList)
	}

	cfg.QuickOnly = f.QuickOnly
	cfg.Hard = f.Hard

	if f.PingSweep {
		return nil, bscanerr.NewConfigError("`--ping-sweep` option not yet implemented")
	}

	cfg.UDP = f.UDP
	cfg.VerboseStatus = f.VerboseStatus
	cfg.GitSnapshot = f.GitSnapshot
	cfg.DashboardAddr = f.DashboardAddr

	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// loadConfigFile loads filename from configDir if set and present, falling
// back to the packaged default, mirroring load_config_file in the original
// Python configuration loader.
func loadConfigFile(filename, configDir string) (string, error) {
	if configDir == "" {
		return loadDefaultFile(filename)
	}
	if !dirExists(configDir) {
		return loadDefaultFile(filename)
	}
	path := filepath.Join(configDir, filename)
	if !fileExists(path) {
		return loadDefaultFile(filename)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", bscanerr.NewConfigError("could not read %s: %v", path, err)
	}
	return string(b), nil
}

func loadDefaultFile(filename string) (string, error) {
	b, err := defaultFiles.ReadFile("configuration/" + filename)
	if err != nil {
		return "", bscanerr.NewConfigError("unable to find default configuration file `%s`", filename)
	}
	return string(b), nil
}

type rawScan struct {
	ID  string `toml:"id"`
	Cmd string `toml:"cmd"`
}

type rawProtocol struct {
	Name             string    `toml:"name"`
	NmapServiceNames []string  `toml:"nmap-service-names"`
	Recommendations  []string  `toml:"recommendations"`
	Scans            []rawScan `toml:"scans"`
}

type rawServiceScans struct {
	Protocol []rawProtocol `toml:"protocol"`
}

func parseServiceScans(raw string) ([]taxonomy.ProtocolRule, error) {
	var parsed rawServiceScans
	if _, err := toml.Decode(raw, &parsed); err != nil {
		return nil, bscanerr.NewConfigError("malformed service-scans.toml: %v", err)
	}

	rules := make([]taxonomy.ProtocolRule, 0, len(parsed.Protocol))
	for _, p := range parsed.Protocol {
		scans := make([]taxonomy.ScanTemplate, 0, len(p.Scans))
		for _, s := range p.Scans {
			scans = append(scans, taxonomy.ScanTemplate{ID: s.ID, Template: s.Cmd})
		}
		rules = append(rules, taxonomy.ProtocolRule{
			Protocol:        p.Name,
			ServiceNames:    p.NmapServiceNames,
			Scans:           scans,
			Recommendations: p.Recommendations,
		})
	}
	return rules, nil
}

type rawShell struct {
	Name string `toml:"name"`
	Cmd  string `toml:"cmd"`
}

type rawShells struct {
	Shells []rawShell `toml:"shells"`
}

func parseReverseShells(raw string) ([]ReverseShell, error) {
	var parsed rawShells
	if _, err := toml.Decode(raw, &parsed); err != nil {
		return nil, bscanerr.NewConfigError("malformed reverse-shells.toml: %v", err)
	}
	shells := make([]ReverseShell, 0, len(parsed.Shells))
	for _, s := range parsed.Shells {
		shells = append(shells, ReverseShell{Name: s.Name, Cmd: s.Cmd})
	}
	return shells, nil
}

// rawMethod is one method's attributes within a port-scan stage table.
type rawMethod struct {
	Pattern string `toml:"pattern"`
	Scan    string `toml:"scan"`
}

// stageTable is a decoded port-scan stage: its default method name plus
// every declared method. port-scans.toml mixes a plain string ("default")
// with subtables (one per method) under the same table, so it is decoded
// via toml.Primitive and split out here rather than into a fixed struct.
type stageTable struct {
	Default string
	Methods map[string]rawMethod
}

func parsePortScans(raw string) (map[string]stageTable, error) {
	var doc map[string]map[string]toml.Primitive
	md, err := toml.Decode(raw, &doc)
	if err != nil {
		return nil, bscanerr.NewConfigError("malformed port-scans.toml: %v", err)
	}

	stages := make(map[string]stageTable, len(doc))
	for stageName, table := range doc {
		st := stageTable{Methods: make(map[string]rawMethod)}
		for key, prim := range table {
			if key == "default" {
				if err := md.PrimitiveDecode(prim, &st.Default); err != nil {
					return nil, bscanerr.NewConfigError("malformed port-scans.toml: %s.default: %v", stageName, err)
				}
				continue
			}
			var m rawMethod
			if err := md.PrimitiveDecode(prim, &m); err != nil {
				return nil, bscanerr.NewConfigError("malformed port-scans.toml: %s.%s: %v", stageName, key, err)
			}
			st.Methods[key] = m
		}
		stages[stageName] = st
	}
	return stages, nil
}

// resolveMethod picks the named method (or the stage's declared default) and
// compiles it into a portscan.Method. A method named literally "default",
// one absent from the stage table, or one whose pattern lacks the `name` and
// `port` capture groups, is rejected.
func resolveMethod(stages map[string]stageTable, stageName, flagValue, flagName string) (portscan.Method, error) {
	st, ok := stages[stageName]
	if !ok {
		return portscan.Method{}, bscanerr.NewConfigError("missing `%s` stage in port-scans.toml", stageName)
	}

	methodName := flagValue
	if methodName == "" {
		methodName = st.Default
	}

	m, ok := st.Methods[methodName]
	if !ok || methodName == "default" {
		return portscan.Method{}, bscanerr.NewConfigError("invalid `%s` specified: %s", flagName, methodName)
	}

	re, err := regexp.Compile(m.Pattern)
	if err != nil {
		return portscan.Method{}, bscanerr.NewConfigError("malformed pattern for %s.%s: %v", stageName, methodName, err)
	}
	if re.SubexpIndex("name") < 0 || re.SubexpIndex("port") < 0 {
		return portscan.Method{}, bscanerr.NewConfigError("pattern for %s.%s is missing the `name`/`port` capture groups", stageName, methodName)
	}

	return portscan.Method{Name: methodName, Pattern: re, Scan: m.Scan}, nil
}

// RequiredPrograms returns the list of external binaries bscan expects on
// PATH, loaded from required-programs.txt, for a --no-program-check style
// preflight.
func RequiredPrograms(configDir string) ([]string, error) {
	raw, err := loadConfigFile("required-programs.txt", configDir)
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(raw), nil
}

// LoadShells loads and parses reverse-shells.toml on its own, for the
// bscan-shells companion binary, which has no need for the rest of Config.
func LoadShells(configDir string) ([]ReverseShell, error) {
	raw, err := loadConfigFile("reverse-shells.toml", configDir)
	if err != nil {
		return nil, err
	}
	return parseReverseShells(raw)
}

// String is a convenience Stringer used by status reporting to summarize a
// resolved Config without dumping every field.
func (c *Config) String() string {
	return fmt.Sprintf("quick=%s thorough=%s udp=%s max-concurrency=%d",
		c.QuickScan.Name, c.ThoroughScan.Name, c.UDPScan.Name, c.MaxConcurrency)
}
