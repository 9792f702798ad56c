package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joshp123/petoneer/internal/config"
	"github.com/joshp123/petoneer/plugins/petoneer"
)

func devicesCmd(ctx context.Context, client *petoneer.Client, out outputMode) {
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	if out.structured() {
		out.print(devices)
		return
	}
	rows := [][]string{{"SERIAL", "NAME"}}
	for _, d := range devices {
		rows = append(rows, []string{d.Serial, d.Name})
	}
	out.table(rows)
}

func statusCmd(ctx context.Context, client *petoneer.Client, out outputMode, device string) {
	devices, err := client.Devices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	selected, err := selectDevices(devices, device)
	if err != nil {
		fatal("status", err)
	}

	statuses := make([]petoneer.DeviceStatus, 0, len(selected))
	for _, d := range selected {
		status, err := client.Status(ctx, d.Serial)
		if err != nil {
			fatal("status "+d.Label(), err)
		}
		statuses = append(statuses, status)
	}

	if out.structured() {
		if device != "" && len(statuses) == 1 {
			out.print(statuses[0])
			return
		}
		out.print(statuses)
		return
	}
	printStatusTable(out, selected, statuses)
}

func printStatusTable(out outputMode, devices []petoneer.Device, statuses []petoneer.DeviceStatus) {
	rows := [][]string{{"DEVICE", "PUMP", "LED", "WATER", "TDS", "WATER CHANGE", "FILTER", "PUMP CLEAN"}}
	for i, s := range statuses {
		rows = append(rows, []string{
			devices[i].Label(),
			pumpLabel(s.Pump),
			s.LED.State,
			s.Water.Level.Percent + " " + s.Water.Level.Label,
			strconv.Itoa(s.Water.Quality.TDS) + " " + s.Water.Quality.Label,
			remainingLabel(s.Water.ChangeRemaining, s.Water.ChangeRequired),
			remainingLabel(s.Filter.ChangeRemaining, s.Filter.ChangeRequired),
			remainingLabel(s.Pump.CleaningRemaining, s.Pump.CleaningRequired),
		})
	}
	out.table(rows)
}

func pumpLabel(p petoneer.PumpStatus) string {
	state := "off"
	if p.On {
		state = "on"
	}
	if p.Scheduled {
		return state + " (" + p.Schedule.String() + ")"
	}
	return state
}

func remainingLabel(r petoneer.RemainingLife, due bool) string {
	label := fmt.Sprintf("%d days (%d%%)", r.DaysRemaining, r.PercentRemaining)
	if due {
		label += " DUE"
	}
	return label
}

func powerCmd(ctx context.Context, client *petoneer.Client, out outputMode, device string, on bool) {
	d, err := resolveDevice(ctx, client, device)
	if err != nil {
		fatal("resolve device", err)
	}
	if err := client.SetPower(ctx, d.Serial, on); err != nil {
		fatal("set power", err)
	}
	state := "off"
	if on {
		state = "on"
	}
	done(out, d, "power", state)
}

func ledCmd(ctx context.Context, client *petoneer.Client, out outputMode, device string, args []string) {
	if len(args) < 1 {
		fatal("led", fmt.Errorf("usage: petoneer-cli led off|full|dimmed | led schedule <HH:MM> <HH:MM>"))
	}
	d, err := resolveDevice(ctx, client, device)
	if err != nil {
		fatal("resolve device", err)
	}

	if args[0] == "schedule" {
		w := parseWindow("led schedule", args[1:])
		if err := client.SetLEDSchedule(ctx, d.Serial, w); err != nil {
			fatal("led schedule", err)
		}
		done(out, d, "led_schedule", w.String())
		return
	}

	mode, err := petoneer.ParseLEDMode(args[0])
	if err != nil {
		fatal("led", err)
	}
	if err := client.SetLED(ctx, d.Serial, mode); err != nil {
		fatal("led", err)
	}
	done(out, d, "led", mode.String())
}

func pumpScheduleCmd(ctx context.Context, client *petoneer.Client, out outputMode, device string, args []string) {
	flags := flag.NewFlagSet("pump-schedule", flag.ExitOnError)
	disable := flags.Bool("disable", false, "store the window but run the pump continuously")
	_ = flags.Parse(args)

	w := parseWindow("pump-schedule", flags.Args())
	d, err := resolveDevice(ctx, client, device)
	if err != nil {
		fatal("resolve device", err)
	}
	if err := client.SetPumpSchedule(ctx, d.Serial, w, !*disable); err != nil {
		fatal("pump-schedule", err)
	}
	value := w.String()
	if *disable {
		value += " (disabled)"
	}
	done(out, d, "pump_schedule", value)
}

func resetCmd(ctx context.Context, client *petoneer.Client, out outputMode, device string, args []string) {
	if len(args) < 1 {
		fatal("reset", fmt.Errorf("usage: petoneer-cli reset filter|water|pump"))
	}
	d, err := resolveDevice(ctx, client, device)
	if err != nil {
		fatal("resolve device", err)
	}

	switch args[0] {
	case "filter":
		err = client.ResetFilterTimer(ctx, d.Serial)
	case "water":
		err = client.ResetWaterTimer(ctx, d.Serial)
	case "pump":
		err = client.ResetPumpCleanTimer(ctx, d.Serial)
	default:
		fatal("reset", fmt.Errorf("unknown timer %q (want filter|water|pump)", args[0]))
	}
	if err != nil {
		fatal("reset "+args[0], err)
	}
	done(out, d, "reset", args[0])
}

func publishCmd(ctx context.Context, client *petoneer.Client, cfg config.MQTTConfig, device string) {
	publisher, err := petoneer.NewMQTTPublisher(petoneer.PublisherConfig{
		Broker:      cfg.Broker,
		TopicPrefix: cfg.TopicPrefix,
		ClientID:    cfg.ClientID,
	})
	if err != nil {
		fatal("mqtt", err)
	}
	defer publisher.Close()

	if err := publishStatuses(ctx, client, publisher, device); err != nil {
		fatal("publish", err)
	}
	fmt.Println("ok")
}

func publishStatuses(ctx context.Context, client *petoneer.Client, publisher petoneer.Publisher, device string) error {
	devices, err := client.Devices(ctx)
	if err != nil {
		return err
	}
	selected, err := selectDevices(devices, device)
	if err != nil {
		return err
	}
	for _, d := range selected {
		status, err := client.Status(ctx, d.Serial)
		if err != nil {
			return fmt.Errorf("status %s: %w", d.Label(), err)
		}
		if err := publisher.Publish(status); err != nil {
			return fmt.Errorf("publish %s: %w", d.Label(), err)
		}
	}
	return nil
}

func parseWindow(action string, args []string) petoneer.Window {
	if len(args) != 2 {
		fatal(action, fmt.Errorf("expected <HH:MM> <HH:MM>"))
	}
	start, err := petoneer.ParseTimeOfDay(args[0])
	if err != nil {
		fatal(action, err)
	}
	end, err := petoneer.ParseTimeOfDay(args[1])
	if err != nil {
		fatal(action, err)
	}
	return petoneer.Window{Start: start, End: end}
}

func done(out outputMode, d petoneer.Device, field, value string) {
	if out.structured() {
		out.print(map[string]any{"serial": d.Serial, field: value, "status": "ok"})
		return
	}
	fmt.Fprintf(os.Stdout, "ok: %s %s -> %s\n", d.Label(), field, value)
}
