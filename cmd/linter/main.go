// Command linter runs the repository's forbidden-call checks.
package main

import (
	"github.com/MikhailRaia/url-mapper/cmd/linter/analyzer"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
