package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
)

var Version = "development"
var BuildTime = "" // Set automatically by GitHub Actions

var cmdFlags map[string]string

// Checks if error is not null, if there is an error it prints it and crashes the program.
func chk(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		panic(err)
	}
}

func main() {
	processCommandLine()

	// Ensure cmdFlags exists even when there are no CLI args,
	// since we assign defaults below.
	if cmdFlags == nil {
		cmdFlags = make(map[string]string)
	}

	if _, ok := cmdFlags["-version"]; ok {
		fmt.Printf("spine2d-mcp %s %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Config file path
	if _, ok := cmdFlags["-config"]; !ok {
		cmdFlags["-config"] = "config.ini"
	}
	cfg, err := loadConfig(cmdFlags["-config"])
	chk(err)

	// Command line flags win over the config file.
	if dir, ok := cmdFlags["-storage"]; ok && dir != "" && dir != "true" {
		cfg.Storage.Dir = dir
	}
	if path, ok := cmdFlags["-templates"]; ok && path != "" && path != "true" {
		cfg.Templates.LuaFile = path
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	storage, err := newStorage(cfg.Storage.Dir, logger)
	chk(err)

	library := newTemplateLibrary()
	if cfg.Templates.LuaFile != "" {
		if err := library.LoadLuaTemplates(cfg.Templates.LuaFile); err != nil {
			logger.Printf("Warning: failed to load templates from %v: %v", cfg.Templates.LuaFile, err)
		}
	}

	interpreter := newKeywordInterpreter(library)
	synth := newSynthesizer(library)
	importer := newPSDImporter(storage, logger)
	rigger := newRigger(storage, logger)
	generator := newGenerator(storage, interpreter, synth)
	exporter := newExporter(storage, cfg.Export.MergeKey, logger)

	server := newServer(cfg.Server.Name, cfg.Server.Version,
		storage, importer, rigger, generator, exporter, logger)
	chk(server.Run(os.Stdin, os.Stdout))
}

// Loops through given command line arguments and processes them for later use by the server
func processCommandLine() {
	// If there are command line arguments
	if len(os.Args[1:]) > 0 {
		cmdFlags = make(map[string]string)
		boolFlags := map[string]bool{
			"-version": true,
		}
		key := ""
		r1, _ := regexp.Compile("^-[h?]$")
		r2, _ := regexp.Compile("^-")
		// Loop through arguments
		for _, a := range os.Args[1:] {
			// If there was a flag 'key' expecting a value, and 'a' is not a flag
			if key != "" && !r2.MatchString(a) {
				cmdFlags[key] = a
				key = ""
			} else if r2.MatchString(a) {
				// If getting help about command line options
				if r1.MatchString(a) {
					text := `Options (case sensitive):
-h -?                   Help
-version                Prints the version and exits
-config <path>          Loads config <path>. eg. -config config.ini
-storage <dir>          Stores characters, animations, rigs and exports under <dir>
-templates <path>       Loads extra motion templates from Lua file <path>`
					fmt.Printf("SPINE2D animation server command line options\n\n" + text + "\n")
					os.Exit(0)
				}
				// If 'a' is a boolean flag, set its value to "true".
				if _, isBool := boolFlags[a]; isBool {
					cmdFlags[a] = "true"
					// key remains "" because boolean flags don't consume the next argument.
				} else {
					// 'a' is a value-expecting flag. Set its value to blank and store its name in 'key'.
					cmdFlags[a] = ""
					key = a
				}
			}
		}
		// After the loop, if a key is still waiting for a value, set it to "true".
		if key != "" {
			cmdFlags[key] = "true"
		}
	}
}
