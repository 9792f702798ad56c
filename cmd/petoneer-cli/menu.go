package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joshp123/petoneer/plugins/petoneer"
)

type menuAction struct {
	key   string
	label string
	run   func(ctx context.Context, client *petoneer.Client, serial string) error
}

var menuActions = []menuAction{
	{"1", "Turn fountain OFF", func(ctx context.Context, c *petoneer.Client, sn string) error { return c.TurnOff(ctx, sn) }},
	{"2", "Turn fountain ON", func(ctx context.Context, c *petoneer.Client, sn string) error { return c.TurnOn(ctx, sn) }},
	{"3", "Turn LEDs OFF", func(ctx context.Context, c *petoneer.Client, sn string) error {
		return c.SetLED(ctx, sn, petoneer.LEDModeOff)
	}},
	{"4", "Turn LEDs ON (dimmed)", func(ctx context.Context, c *petoneer.Client, sn string) error {
		return c.SetLED(ctx, sn, petoneer.LEDModeDimmed)
	}},
	{"5", "Turn LEDs ON (full)", func(ctx context.Context, c *petoneer.Client, sn string) error {
		return c.SetLED(ctx, sn, petoneer.LEDModeFull)
	}},
}

// menuCmd runs an interactive loop against one fountain until q or EOF.
func menuCmd(client *petoneer.Client, device string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	d, err := resolveDevice(ctx, client, device)
	cancel()
	if err != nil {
		fatal("resolve device", err)
	}
	runMenu(client, d, os.Stdin, os.Stdout)
}

func runMenu(client *petoneer.Client, d petoneer.Device, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Fountain %s\n", d.Label())
		for _, action := range menuActions {
			fmt.Fprintf(out, " (%s) %s\n", action.key, action.label)
		}
		fmt.Fprintln(out, " (s) Show status")
		fmt.Fprintln(out, " (q) Quit")
		fmt.Fprint(out, "   -> Select option: ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}
		choice := strings.TrimSpace(scanner.Text())
		if choice == "q" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := runMenuChoice(ctx, client, d, choice, out); err != nil {
			fmt.Fprintf(out, "      <-- ERROR: %v\n", err)
		}
		cancel()
	}
}

func runMenuChoice(ctx context.Context, client *petoneer.Client, d petoneer.Device, choice string, out io.Writer) error {
	if choice != "s" {
		action, ok := findMenuAction(choice)
		if !ok {
			return fmt.Errorf("invalid menu selection %q", choice)
		}
		fmt.Fprintf(out, "      *** %s...\n", strings.ToUpper(action.label))
		if err := action.run(ctx, client, d.Serial); err != nil {
			return err
		}
	}

	status, err := client.Status(ctx, d.Serial)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "      pump %s, LED %s, water %s, TDS %d %s\n",
		pumpLabel(status.Pump), status.LED.State, status.Water.Level.Label,
		status.Water.Quality.TDS, status.Water.Quality.Label)
	return nil
}

func findMenuAction(key string) (menuAction, bool) {
	for _, action := range menuActions {
		if action.key == key {
			return action, true
		}
	}
	return menuAction{}, false
}
