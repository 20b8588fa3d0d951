package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "hackbotctl"
	app.Usage = "Hackathon bot administration"
	app.Action = cli.ShowAppHelp
	app.Commands = []*cli.Command{
		{
			Action:   dbPing,
			Name:     "db-ping",
			Usage:    "Check the database connection",
			Category: "Database",
		},
		{
			Action:   migrate,
			Name:     "migrate",
			Usage:    "Create or update tables and indexes",
			Category: "Database",
		},
		{
			Action:    createHackathon,
			Name:      "create-hackathon",
			Usage:     "Load a hackathon with its schedule, rules and FAQ from a JSON file",
			Category:  "Hackathons",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to the JSON config", Required: true},
			},
			Description: `Accepts either a flat config or {"hackathon": {...}, "events": [...], "rules": {...}, "faq": [...]}.`,
		},
		{
			Action:    finishHackathon,
			Name:      "finish-hackathon",
			Usage:     "Deactivate a hackathon and switch off its reminders",
			Category:  "Hackathons",
			ArgsUsage: "<id>",
		},
		{
			Action:   listHackathons,
			Name:     "list-hackathons",
			Usage:    "List hackathons",
			Category: "Hackathons",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "all", Usage: "include finished hackathons"},
			},
		},
		{
			Action:    grantOrganizer,
			Name:      "grant-organizer",
			Usage:     "Give a registered Telegram user the organizer role",
			Category:  "Users",
			ArgsUsage: "<telegram_id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "revoke", Usage: "demote back to participant"},
			},
		},
		{
			Action:   createAdmin,
			Name:     "create-admin",
			Usage:    "Create an account for the admin HTTP API",
			Category: "Users",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password", Required: true},
			},
		},
		{
			Action:      remindOnce,
			Name:        "remind-once",
			Usage:       "Run a single reminder cycle and exit",
			Category:    "Reminders",
			Description: `Sends every reminder that is due right now. Needs BOT_TOKEN.`,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
