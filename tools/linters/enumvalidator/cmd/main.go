package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"voicedesk.app/server/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
