package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/goliatone/go-formcalc"
	"github.com/goliatone/go-formcalc/internal/cli"
	"github.com/goliatone/go-formcalc/pkg/calc"
	"github.com/goliatone/go-formcalc/pkg/fieldset"
	"github.com/goliatone/go-formcalc/pkg/form"
	"github.com/goliatone/go-formcalc/pkg/rules"
)

func main() {
	rulesPath := flag.String("rules", "", "rules file or directory (JSON or YAML)")
	valuesPath := flag.String("values", "", "JSON file with the initial form values")
	openapiPath := flag.String("openapi", "", "OpenAPI document used to register fields and bind rules")
	operationID := flag.String("operation", "", "operation whose request body lists the form fields")
	patchPath := flag.String("patch", "", "RFC 6902 JSON patch applied after -set changes")
	interactive := flag.Bool("interactive", false, "prompt for field changes")
	dump := flag.Bool("dump", false, "print values with go-spew instead of JSON")
	debug := flag.Bool("debug", false, "enable debug logging")
	var sets cli.Assignments
	flag.Var(&sets, "set", "name=value change to apply, repeatable; values are JSON with a string fallback")
	flag.Parse()

	if *rulesPath == "" {
		log.Fatalf("-rules is required")
	}

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.Background()

	set, err := formcalc.LoadRules(*rulesPath, rules.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}

	values := map[string]any{}
	if *valuesPath != "" {
		values, err = cli.LoadValues(*valuesPath)
		if err != nil {
			log.Fatalf("Failed to load values: %v", err)
		}
	}

	formOptions := []form.Option{form.WithLogger(logger), form.WithAutoRegister()}
	var fields []string
	if *openapiPath != "" {
		described, err := describeFields(ctx, *openapiPath, *operationID)
		if err != nil {
			log.Fatalf("Failed to read fields: %v", err)
		}
		defaults, err := fieldset.Defaults(described)
		if err != nil {
			log.Fatalf("Failed to apply defaults: %v", err)
		}
		if values, err = cli.MergeValues(defaults, values); err != nil {
			log.Fatalf("Failed to apply defaults: %v", err)
		}
		fields = fieldset.Names(described)
		formOptions = append(formOptions, form.WithFields(fields...))
	}
	formOptions = append(formOptions, form.WithInitialValues(values))

	decorator, err := formcalc.DecoratorFromRules(set, fields, calc.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to build decorator: %v", err)
	}
	f := formcalc.NewForm(formOptions...)
	detach := f.Decorate(decorator)
	defer detach()

	for _, change := range sets {
		if err := f.Change(change.Name, change.Value); err != nil {
			log.Fatalf("Failed to set %s: %v", change.Name, err)
		}
	}

	if *patchPath != "" {
		patch, err := os.ReadFile(*patchPath)
		if err != nil {
			log.Fatalf("Failed to read patch: %v", err)
		}
		if err := f.ApplyPatchJSON(patch); err != nil {
			log.Fatalf("Failed to apply patch: %v", err)
		}
	}

	render := cli.EncodeValues
	if *dump {
		render = func(values map[string]any) (string, error) {
			return cli.DumpValues(values), nil
		}
	}

	if *interactive {
		session := cli.Session{
			Driver: cli.NewSurveyDriver(os.Stderr),
			Form:   f,
			Render: render,
		}
		if err := session.Run(ctx); err != nil {
			log.Fatalf("Interactive session failed: %v", err)
		}
	}

	out, err := render(f.Values())
	if err != nil {
		log.Fatalf("Failed to render values: %v", err)
	}
	fmt.Println(out)
}

func describeFields(ctx context.Context, path, operationID string) ([]fieldset.Field, error) {
	if operationID == "" {
		return nil, errors.New("-operation is required with -openapi")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fieldset.FromOpenAPI(ctx, data, operationID)
}
