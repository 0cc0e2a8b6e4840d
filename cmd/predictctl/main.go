// predictctl submits one flat listing to a prediction endpoint and prints the three
// model predictions.
//
// Usage:
//
//	predictctl predict --postcode 1134 --room_cnt 2 --property_area 54 ...
//	predictctl fields
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
	"github.com/yanqian/flat-price/internal/infra/predictapi"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "predictctl",
		Usage:   "Predict the price of a Budapest flat from the command line",
		Version: version,
		Commands: []*cli.Command{
			predictCommand(),
			fieldsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func predictCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "endpoint",
			Value:   predictapi.DefaultEndpoint,
			Usage:   "Prediction endpoint URL",
			EnvVars: []string{"PREDICTOR_ENDPOINT"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "Request timeout (0 waits indefinitely)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "table",
			Usage:   "Output format (table, json)",
		},
	}
	for _, name := range predictionform.Fields() {
		flag := &cli.StringFlag{Name: name, Usage: predictionform.Label(name)}
		if name == predictionform.FieldCity {
			flag.Value = predictionform.DefaultCity
		}
		flags = append(flags, flag)
	}

	return &cli.Command{
		Name:  "predict",
		Usage: "Submit one listing and print the predictions",
		Flags: flags,
		Action: func(c *cli.Context) error {
			values := make(map[string]string)
			for _, name := range predictionform.Fields() {
				if c.IsSet(name) {
					values[name] = c.String(name)
				}
			}
			client := predictapi.NewClient(c.String("endpoint"), c.Duration("timeout"))
			return runPredict(c.Context, client, values, c.String("format"), c.App.Writer)
		},
	}
}

func fieldsCommand() *cli.Command {
	return &cli.Command{
		Name:  "fields",
		Usage: "List the form fields and their accepted values",
		Action: func(c *cli.Context) error {
			return printFields(c.App.Writer)
		},
	}
}

func runPredict(ctx context.Context, predictor predictionform.Predictor, values map[string]string, format string, out io.Writer) error {
	form, err := buildForm(values)
	if err != nil {
		return err
	}
	result, err := predictor.Predict(ctx, form)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSuffix(predictionform.SubmitErrorMessage, "."), err)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Formatted())
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range result.Formatted() {
			fmt.Fprintf(w, "%s:\t%s %s\n", p.Label, p.Value, predictionform.Currency)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func buildForm(values map[string]string) (predictionform.FormState, error) {
	form := predictionform.NewFormState()
	for name, value := range values {
		if !predictionform.IsField(name) {
			return nil, fmt.Errorf("unknown field %s", name)
		}
		if !predictionform.AcceptsValue(name, value) {
			return nil, fmt.Errorf("%s only accepts digits, got %q", name, value)
		}
		form = form.With(name, value)
	}
	return form, nil
}

func printFields(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tLABEL\tVALUES")
	for _, name := range predictionform.Fields() {
		accepted := "any text"
		switch {
		case predictionform.IsDigitOnly(name):
			accepted = "digits"
		case name == predictionform.FieldCreatedAt:
			accepted = "YYYY-MM-DD"
		}
		if options := predictionform.OptionsFor(name); len(options) > 0 {
			vals := make([]string, 0, len(options))
			for _, opt := range options {
				if opt.Value != "" {
					vals = append(vals, opt.Value)
				}
			}
			accepted = strings.Join(vals, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, predictionform.Label(name), accepted)
	}
	return w.Flush()
}
