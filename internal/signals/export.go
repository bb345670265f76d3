package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// Export writes signals to csvPath and to a sibling .json file.
func Export(signals []Signal, csvPath string) error {
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer csvFile.Close()

	if err := gocsv.Marshal(signals, csvFile); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	jsonPath := strings.TrimSuffix(csvPath, ".csv") + ".json"
	jsonFile, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", jsonPath, err)
	}
	defer jsonFile.Close()

	enc := json.NewEncoder(jsonFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(signals); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
