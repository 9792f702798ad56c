package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type outputMode struct {
	json bool
	yaml bool
}

func (o outputMode) structured() bool {
	return o.json || o.yaml
}

// print writes value as JSON or YAML. YAML goes through JSON first so both
// formats share field names.
func (o outputMode) print(value any) {
	if o.yaml {
		data, err := toYAML(value)
		if err != nil {
			fatal("format yaml", err)
		}
		fmt.Print(string(data))
		return
	}
	o.printJSON(value)
}

func (o outputMode) printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal("format json", err)
	}
	fmt.Println(string(data))
}

func toYAML(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func (o outputMode) table(rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
