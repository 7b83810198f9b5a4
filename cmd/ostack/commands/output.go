package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/itchyny/gojq"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Static errors for err113 compliance.
var (
	ErrUnknownOutputFormat = errors.New("unknown output format")
	ErrInvalidQuery        = errors.New("invalid --query expression")
)

// tabulator renders a value as a header and rows for table output.
type tabulator func() ([]string, [][]string)

// render writes value in the format selected by --output. --query runs a jq
// expression over the JSON form of value first; its results are printed as
// JSON unless yaml was asked for.
func render(cmd *cobra.Command, value any, table tabulator) error {
	out := cmd.OutOrStdout()
	format := viper.GetString("output")

	if expression := strings.TrimSpace(viper.GetString("query")); expression != "" {
		results, err := applyQuery(commandContext(cmd), value, expression)
		if err != nil {
			return err
		}

		for _, result := range results {
			err = writeFormatted(out, format, result)
			if err != nil {
				return err
			}
		}

		return nil
	}

	switch format {
	case constants.FormatTable, "":
		header, rows := table()

		return writeTable(out, header, rows)
	default:
		return writeFormatted(out, format, value)
	}
}

func writeFormatted(out io.Writer, format string, value any) error {
	switch format {
	case constants.FormatJSON, constants.FormatTable, "":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	case constants.FormatYAML:
		// Round-trip through JSON so that keys match the API's field names.
		generic, err := toGeneric(value)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(generic)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOutputFormat, format)
	}
}

func writeTable(out io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(lo.ToAnySlice(header)...)

	err := table.Bulk(rows)
	if err != nil {
		return fmt.Errorf("failed to fill table: %w", err)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// properties is the two-column table of a single resource.
func properties(pairs ...string) tabulator {
	return func() ([]string, [][]string) {
		return []string{"Property", "Value"}, lo.Chunk(pairs, 2)
	}
}

func applyQuery(ctx context.Context, value any, expression string) ([]any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	input, err := toGeneric(value)
	if err != nil {
		return nil, err
	}

	var results []any

	iterator := code.RunWithContext(ctx, input)

	for {
		result, ok := iterator.Next()
		if !ok {
			break
		}

		if queryErr, isErr := result.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(queryErr, &halt) && halt.Value() == nil {
				break
			}

			return nil, fmt.Errorf("query failed: %w", queryErr)
		}

		results = append(results, result)
	}

	return results, nil
}

// toGeneric converts value to the maps and slices json.Unmarshal produces.
func toGeneric(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}

	var generic any

	err = json.Unmarshal(data, &generic)
	if err != nil {
		return nil, fmt.Errorf("failed to convert output: %w", err)
	}

	return generic, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func formatBytes(size int64) string {
	if size <= 0 {
		return "0 B"
	}

	return humanize.IBytes(uint64(size))
}

func formatGiB(size int) string {
	return humanize.IBytes(uint64(max(size, 0)) * humanize.GiByte)
}

func formatMiB(size int) string {
	return humanize.IBytes(uint64(max(size, 0)) * humanize.MiByte)
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return humanize.Time(t)
}

func formatBool(value bool) string {
	return strconv.FormatBool(value)
}

func joinSorted(values []string) string {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return strings.Join(sorted, ", ")
}

func orNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
