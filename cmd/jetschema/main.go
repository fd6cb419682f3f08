package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	jetschema "github.com/okral/jetschema"
	"github.com/okral/jetschema/source/gojson"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		validateCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "jetschema CLI\n\nUsage:\n  jetschema validate -schema schema.(json|yaml) [flags] doc.json [doc.json...]\n\nFlags:\n  -driver std|gojson   token source driver (default std)\n  -skip-validation     materialize without applying constraints\n  -reject-dup-keys     fail on duplicate object keys\n  -max-depth N         cap container nesting\n  -max-bytes N         cap consumed input bytes\n  -print               print the materialized value as JSON")
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var (
		schemaPath string
		driver     string
		skip       bool
		rejectDup  bool
		maxDepth   int
		maxBytes   int64
		print      bool
	)
	fs.StringVar(&schemaPath, "schema", "", "schema description file (.json, .yaml, .yml)")
	fs.StringVar(&driver, "driver", "std", "token source driver: std or gojson")
	fs.BoolVar(&skip, "skip-validation", false, "materialize without applying constraints")
	fs.BoolVar(&rejectDup, "reject-dup-keys", false, "fail on duplicate object keys")
	fs.IntVar(&maxDepth, "max-depth", 0, "cap container nesting (0 = unlimited)")
	fs.Int64Var(&maxBytes, "max-bytes", 0, "cap consumed input bytes (0 = unlimited)")
	fs.BoolVar(&print, "print", false, "print the materialized value as JSON")
	_ = fs.Parse(args)
	if schemaPath == "" || fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	switch driver {
	case "std":
		jetschema.UseDefaultJSONDriver()
	case "gojson":
		jetschema.SetJSONDriver(gojson.Driver())
	default:
		fatalf("unknown driver %q", driver)
	}

	schema, err := jetschema.CompileFile(schemaPath)
	if err != nil {
		fatalf("compiling %s: %v", schemaPath, err)
	}
	p := jetschema.NewFromSchema(schema)

	opt := jetschema.ParseOpt{
		SkipValidation: skip,
		MaxDepth:       maxDepth,
		MaxBytes:       maxBytes,
	}
	if rejectDup {
		opt.OnDuplicateKey = jetschema.Reject
	}

	failed := false
	for _, docPath := range fs.Args() {
		data, err := os.ReadFile(docPath)
		if err != nil {
			fatalf("reading %s: %v", docPath, err)
		}
		v, err := p.ParseBytes(data, opt)
		if err != nil {
			failed = true
			if pe, ok := jetschema.AsParseError(err); ok {
				fmt.Fprintf(os.Stderr, "%s: %s error at %s: %s\n", docPath, pe.Category, pe.Path, pe.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", docPath, err)
			}
			continue
		}
		if print {
			out, err := json.Marshal(v)
			if err != nil {
				fatalf("encoding result for %s: %v", docPath, err)
			}
			fmt.Println(string(out))
		} else {
			fmt.Printf("%s: ok\n", docPath)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "jetschema: "+format+"\n", a...)
	os.Exit(1)
}
