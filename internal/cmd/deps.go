package cmd

import (
	"os"

	"github.com/salmonumbrella/csvpeek/internal/browse"
	"github.com/salmonumbrella/csvpeek/internal/secrets"
)

var (
	openSecretsStore = secrets.OpenDefault
	envGet           = os.Getenv
	executablePath   = os.Executable
	runBrowser       = browse.Run
)
