package ui

import (
	"fmt"
	"io"
	"sync"
)

const (
	lineTerminatorConstant = "\n"
)

// ConsolePrinter writes console lines and blocks to a single writer under a
// mutex. Multi-line blocks are written in one call so concurrent printers on
// the same writer cannot interleave inside a block.
type ConsolePrinter struct {
	outputMutex  sync.Mutex
	outputWriter io.Writer
}

// NewConsolePrinter creates a printer over the provided writer.
func NewConsolePrinter(outputWriter io.Writer) *ConsolePrinter {
	return &ConsolePrinter{outputWriter: outputWriter}
}

// PrintLine writes one terminated line.
func (printer *ConsolePrinter) PrintLine(lineText string) {
	printer.writeText(lineText + lineTerminatorConstant)
}

// PrintBlock writes a block of text, terminating it when the block does not
// already end with a newline.
func (printer *ConsolePrinter) PrintBlock(blockText string) {
	if len(blockText) == 0 || blockText[len(blockText)-1] != '\n' {
		blockText += lineTerminatorConstant
	}
	printer.writeText(blockText)
}

// PrintFormattedLine formats according to the template and writes one line.
func (printer *ConsolePrinter) PrintFormattedLine(templateText string, templateArguments ...any) {
	printer.PrintLine(fmt.Sprintf(templateText, templateArguments...))
}

func (printer *ConsolePrinter) writeText(outputText string) {
	printer.outputMutex.Lock()
	defer printer.outputMutex.Unlock()
	_, _ = io.WriteString(printer.outputWriter, outputText)
}
