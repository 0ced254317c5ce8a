package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Init     *InitCommand
	LoadEdge *LoadEdgeCommand
	Generate *GenerateCommand
	Status   *StatusCommand
	Backup   *BackupCommand
	Add      *AddCommand
	Assign   *AssignCommand
	ApplyMap *ApplyMapCommand
	Icon     *IconCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "historyview"
	parser.LongDescription = "Load browser history, categorise domains, and build day/hour heatmap datasets."

	cmds := &commands{
		Init:     &InitCommand{globals: &globals, version: version},
		LoadEdge: &LoadEdgeCommand{globals: &globals, version: version},
		Generate: &GenerateCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Backup:   &BackupCommand{globals: &globals, version: version},
		Add:      &AddCommand{globals: &globals, version: version},
		Assign:   &AssignCommand{globals: &globals, version: version},
		ApplyMap: &ApplyMapCommand{globals: &globals, version: version},
		Icon:     &IconCommand{globals: &globals, version: version},
	}

	parser.AddCommand("init", "Create the history database", "Create the history database schema. Refuses to touch an existing file unless --force is given.", cmds.Init)
	parser.AddCommand("load-edge", "Load an Edge history export", "Load an Edge history export (JSON) into the history database.", cmds.LoadEdge)
	parser.AddCommand("generate", "Write heatmap datasets", "Aggregate visits by local day and hour and write level0/level1 JSON plus sprite sheets.", cmds.Generate)
	parser.AddCommand("status", "Show database statistics", "Show visit and domain statistics and the configuration in use.", cmds.Status)
	parser.AddCommand("backup", "Back up taxonomy and database", "Copy the categories file, domain map, and database to timestamped backups.", cmds.Backup)
	parser.AddCommand("add", "Record a single visit", "Manually record a single visit to a URL.", cmds.Add)
	parser.AddCommand("assign", "Set a domain's categories", "Set a domain's primary and secondary tags in the domain map file.", cmds.Assign)
	parser.AddCommand("apply-map", "Copy the domain map into the database", "Write domain map assignments into the stored primary and secondary categories.", cmds.ApplyMap)
	parser.AddCommand("icon", "Store a domain icon", "Store an icon file for a domain; it is embedded in generated sprite sheets.", cmds.Icon)

	return parser, &globals, cmds
}

// Run is the main entry point for the historyview CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("historyview %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
