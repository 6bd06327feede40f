package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes all registered metrics to filename in the format
// read by the node_exporter textfile collector.
func WriteTextfile(filename string) error {
	return writeTextfile(filename, prometheus.DefaultGatherer)
}

func writeTextfile(filename string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(filename, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
