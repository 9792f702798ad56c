package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/joshp123/petoneer/plugins/petoneer"
)

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "-", "_")
	name = replacer.Replace(name)
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}

func resolveNamedID(kind, input string, options map[string]string) (string, error) {
	needle := normalizeName(input)
	for label, id := range options {
		if normalizeName(label) == needle {
			return id, nil
		}
	}
	available := make([]string, 0, len(options))
	for label := range options {
		available = append(available, label)
	}
	sort.Strings(available)
	return "", fmt.Errorf("%s %q not found. Available: %s", kind, input, strings.Join(available, ", "))
}

// deviceOptions maps both serials and names to serials.
func deviceOptions(devices []petoneer.Device) map[string]string {
	options := make(map[string]string, 2*len(devices))
	for _, d := range devices {
		options[d.Serial] = d.Serial
		if d.Name != "" {
			options[d.Name] = d.Serial
		}
	}
	return options
}

// selectDevices returns every device when input is empty, else the one match.
func selectDevices(devices []petoneer.Device, input string) ([]petoneer.Device, error) {
	if input == "" {
		return devices, nil
	}
	serial, err := resolveNamedID("device", input, deviceOptions(devices))
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Serial == serial {
			return []petoneer.Device{d}, nil
		}
	}
	return nil, fmt.Errorf("device %q not found", input)
}

// resolveDevice picks one device: the named one, or the first registered.
func resolveDevice(ctx context.Context, client *petoneer.Client, input string) (petoneer.Device, error) {
	devices, err := client.Devices(ctx)
	if err != nil {
		return petoneer.Device{}, err
	}
	if len(devices) == 0 {
		return petoneer.Device{}, fmt.Errorf("no fountains registered to this account")
	}
	selected, err := selectDevices(devices, input)
	if err != nil {
		return petoneer.Device{}, err
	}
	return selected[0], nil
}
