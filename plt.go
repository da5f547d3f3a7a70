package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pagopa/anonymizer-plt/anonymize"
	"github.com/pagopa/anonymizer-plt/loadgen"
)

func main() {
	lf := loadgen.Flags{Output: os.Stdout}
	lf.Register()

	anonymize.AddCommand(&lf)

	kingpin.Parse()
}
