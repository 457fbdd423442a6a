package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
)

// Formatter renders a funding result in one output format
type Formatter interface {
	Name() string
	Format(result *domain.FundingResult) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(result *domain.FundingResult) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(result *domain.FundingResult) ([]byte, error) {
	return f.F(result)
}

var formatters = map[string]Formatter{
	"console": ConsoleFormatter{},
	"json":    JSONFormatter{},
	"csv":     CSVFormatter{},
	"yaml":    YAMLFormatter{},
}

var formatAliases = map[string]string{
	"text": "console",
	"yml":  "yaml",
}

// GetFormatterByName returns the formatter registered under name or alias, nil if unknown
func GetFormatterByName(name string) Formatter {
	if target, ok := formatAliases[name]; ok {
		name = target
	}
	return formatters[name]
}

// AvailableFormatterNames lists the registered formatter names
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted aliases
func AvailableFormatAliases() []string {
	aliases := make([]string, 0, len(formatAliases))
	for alias := range formatAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// FileExtension is the report file extension for a registered formatter name
func FileExtension(name string) string {
	if name == "console" {
		return "txt"
	}
	return name
}

// WriteFormatted formats result and writes it to a timestamped file in dir,
// returning the file path. An empty dir means the working directory.
func WriteFormatted(dir string, f Formatter, result *domain.FundingResult, ext string) (string, error) {
	data, err := f.Format(result)
	if err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("funding_report_%s_%s.%s",
		result.FundingID(), time.Now().Format("20060102_150405"), ext))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
