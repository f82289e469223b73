package main

import (
	"io"
	"os"

	promptgen "github.com/itsatony/go-promptgen"
)

// openEngine builds an engine over a filesystem document library.
func openEngine(root string) (*promptgen.Engine, error) {
	store, err := promptgen.NewFilesystemStore(root)
	if err != nil {
		return nil, err
	}
	return promptgen.New(promptgen.WithStore(store))
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}
