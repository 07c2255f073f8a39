package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/apexforge/apex/internal/evaluator"
	"github.com/apexforge/apex/internal/parser"
)

func main() {
	quiet := flag.Bool("quiet", false, "suppress the program result, only report errors")
	noColor := flag.Bool("no-color", false, "disable colored error output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.apex>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := flag.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		fail(*noColor, "%s: %v", path, err)
	}

	program, err := parser.Parse(string(source))
	if err != nil {
		fail(*noColor, "%s: %v", path, err)
	}

	eval := evaluator.New()
	result := eval.Run(program)
	if errObj, ok := result.(*evaluator.Error); ok {
		fail(*noColor, "%s: %s", path, errObj.Inspect())
	}
	if !*quiet {
		fmt.Fprintln(eval.Out, result.Inspect())
	}
}

func fail(noColor bool, format string, a ...interface{}) {
	message := fmt.Sprintf(format, a...)
	if !noColor && isatty.IsTerminal(os.Stderr.Fd()) {
		message = "\x1b[31m" + message + "\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
