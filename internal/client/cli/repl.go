package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// call is one parsed input line.
type call struct {
	name string
	args []string
	line string
}

// rest is the input after the command name and the first n arguments.
func (c call) rest(n int) string {
	return restAfter(c.line, n+1)
}

type command struct {
	usage     string
	help      string
	minArgs   int
	needsUser bool
	run       func(ctx context.Context, c call) error
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"signup": {usage: "signup", help: "create a local account", run: a.signup},
		"login":  {usage: "login", help: "log in", run: a.login},
		"logout": {usage: "logout", help: "log out", needsUser: true, run: a.logout},
		"whoami": {usage: "whoami", help: "show the current user", needsUser: true, run: a.whoami},

		"use":  {usage: "use <host:port>", help: "switch to another node", minArgs: 1, run: a.use},
		"node": {usage: "node", help: "show the current node", run: a.showNode},
		"get":  {usage: "get <command>", help: "send a GET command", minArgs: 1, run: a.sendGet},
		"post": {usage: "post <command>", help: "send a POST command", minArgs: 1, run: a.sendPost},
		"sql":  {usage: "sql <dbms> <query>", help: "run a SQL query", minArgs: 1, run: a.sql},

		"monitor": {usage: "monitor", help: "show monitored operators", run: a.monitor},
		"peers":   {usage: "peers", help: "list reachable nodes", run: a.peers},
		"policy":  {usage: "policy <name> <key=value>...", help: "create and publish a policy", minArgs: 2, run: a.submitPolicy},
		"ingest":  {usage: "ingest <dbms> <table> <file.json>", help: "send JSON records", minArgs: 3, run: a.ingest},
		"blobs":   {usage: "blobs <dest-dir> <dbms> <query>", help: "copy blobs listed by a query", minArgs: 2, run: a.blobs},

		"dbs":            {usage: "dbs", help: "list databases", run: a.databases},
		"tables":         {usage: "tables <dbms>", help: "list tables", minArgs: 1, run: a.tables},
		"columns":        {usage: "columns <dbms> <table>", help: "list columns", minArgs: 2, run: a.columns},
		"companies":      {usage: "companies", help: "list companies", run: a.companies},
		"company-tables": {usage: "company-tables <company> [dbms]", help: "list a company's tables", minArgs: 1, run: a.companyTables},
		"table-info":     {usage: "table-info <dbms> <table>", help: "show a table and where it lives", minArgs: 2, run: a.tableInfo},

		"bookmark":   {usage: "bookmark <host:port>", help: "bookmark a node", minArgs: 1, needsUser: true, run: a.addBookmark},
		"bookmarks":  {usage: "bookmarks", help: "list bookmarks", needsUser: true, run: a.listBookmarks},
		"describe":   {usage: "describe <host:port> [text]", help: "set a bookmark description", minArgs: 1, needsUser: true, run: a.describeBookmark},
		"unbookmark": {usage: "unbookmark <host:port>", help: "delete a bookmark", minArgs: 1, needsUser: true, run: a.deleteBookmark},

		"group-add":     {usage: "group-add <name>", help: "create a preset group", minArgs: 1, needsUser: true, run: a.addGroup},
		"groups":        {usage: "groups", help: "list preset groups", needsUser: true, run: a.listGroups},
		"group-rm":      {usage: "group-rm <group-id>", help: "delete a group and its presets", minArgs: 1, needsUser: true, run: a.deleteGroup},
		"preset-add":    {usage: "preset-add <group-id> <GET|POST> <button> <command>", help: "save a command", minArgs: 4, needsUser: true, run: a.addPreset},
		"presets":       {usage: "presets <group-id>", help: "list presets in a group", minArgs: 1, needsUser: true, run: a.listPresets},
		"preset-rm":     {usage: "preset-rm <preset-id>", help: "delete a preset", minArgs: 1, needsUser: true, run: a.deletePreset},
		"run":           {usage: "run <group-id> <button>", help: "send a saved command", minArgs: 2, needsUser: true, run: a.runPreset},
		"policy-groups": {usage: "policy-groups", help: "show presets stored on the node", run: a.policyGroups},
	}
}

// Run reads commands until "exit", "quit" or end of input.
func (a *App) Run(ctx context.Context) error {
	cmds := a.commands()
	fmt.Fprintln(a.out, "AnyLog CLI (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "anylog %s> ", a.status())
		line, err := a.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		c := call{name: fields[0], args: fields[1:], line: line}

		switch c.name {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		case "help":
			a.printHelp(cmds)
			continue
		}

		cmd, ok := cmds[c.name]
		switch {
		case !ok:
			fmt.Fprintln(a.out, "Unknown command:", c.name)
			continue
		case cmd.needsUser && !a.isLoggedIn():
			fmt.Fprintln(a.out, "Please log in first")
			continue
		case len(c.args) < cmd.minArgs:
			fmt.Fprintln(a.out, "Usage:", cmd.usage)
			continue
		}

		if err := cmd.run(ctx, c); err != nil {
			a.log.Debug(ctx, "command failed", "command", c.name, "error", err)
			fmt.Fprintln(a.out, "Error:", describeError(err))
		}
	}
}

func (a *App) printHelp(cmds map[string]command) {
	names := make([]string, 0, len(cmds))
	for n, c := range cmds {
		if c.needsUser && !a.isLoggedIn() {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "Available commands:")
	for _, n := range names {
		fmt.Fprintf(a.out, "  %-55s %s\n", cmds[n].usage, cmds[n].help)
	}
	fmt.Fprintf(a.out, "  %-55s %s\n", "exit", "leave the program")
}
