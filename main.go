package main

import (
	"errors"
	"fmt"
	"os"

	"datasetprep/logging"
	"datasetprep/signalhandler"
	"datasetprep/utils"
)

func main() {
	args := utils.ParseArguments(os.Args[1:])

	if args.Command == "" {
		if note := unknownCommandNote(os.Args[1:]); note != "" {
			fmt.Println(note)
		}
		utils.PrintUsage()
		os.Exit(1)
	}

	ctx, cancel := signalhandler.SetupHandler()
	defer cancel()

	env, err := newEnvironment(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = runCommand(ctx, env, args)
	env.Close()
	if err != nil {
		if errors.Is(err, errUsage) {
			utils.PrintUsage()
		} else {
			logging.LogError("%v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}
