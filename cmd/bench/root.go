package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ValentinKolb/mvKV/cmd/util"
	"github.com/ValentinKolb/mvKV/lib/engine"
	"github.com/ValentinKolb/mvKV/lib/engine/cedar"
	"github.com/ValentinKolb/mvKV/lib/keys"
	"github.com/ValentinKolb/mvKV/lib/mvcc"
	"github.com/ValentinKolb/mvKV/lib/storage"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark engine writes and flushes",
		Long: util.WrapString("bench writes versioned keys into a throwaway column family " +
			"of the engine at the given path, flushes, and reports write and flush " +
			"latencies together with the collected MVCC statistics."),
		RunE:    run,
		PreRunE: util.InitConfig,
	}

	benchKeys      = 10000
	benchValueSize = 256
	benchVersions  = 4
)

func init() {
	key := "keys"
	BenchCmd.Flags().Int(key, 10000, util.WrapString("number of distinct logical keys to write"))
	key = "value-size"
	BenchCmd.Flags().Int(key, 256, util.WrapString("value size in bytes"))
	key = "versions"
	BenchCmd.Flags().Int(key, 4, util.WrapString("versions to write per logical key"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func run(_ *cobra.Command, _ []string) error {
	benchKeys = viper.GetInt("keys")
	benchValueSize = viper.GetInt("value-size")
	benchVersions = viper.GetInt("versions")

	opts := engine.DefaultOptions()
	opts.AddCollectorFactory(mvcc.NewCollectorFactory())
	opts.PrefixTransform = keys.NewFixedSuffixTransform(8)

	cfs := []engine.CFDescriptor{
		engine.NewCFDescriptor(engine.DefaultColumnFamily, nil),
		engine.NewCFDescriptor("bench", nil),
	}
	eng, err := storage.NewEngineWithOptions(cedar.Driver{}, util.GetPath(), opts, cfs)
	if err != nil {
		return err
	}
	defer eng.Close()

	value := make([]byte, benchValueSize)
	writeTimer := gometrics.NewTimer()
	flushTimer := gometrics.NewTimer()

	for v := 0; v < benchVersions; v++ {
		for i := 0; i < benchKeys; i++ {
			key := keys.DataKey(keys.EncodeVersionedKey(fmt.Appendf(nil, "key-%08d", i), uint64(v+1)))
			writeTimer.Time(func() {
				_ = eng.Put("bench", key, value)
			})
		}
		flushTimer.Time(func() {
			_ = eng.Flush("bench")
		})
	}

	fmt.Printf("writes: %d, mean %v, p99 %v\n",
		writeTimer.Count(),
		time.Duration(writeTimer.Mean()),
		time.Duration(writeTimer.Percentile(0.99)))
	fmt.Printf("flushes: %d, mean %v, p99 %v\n",
		flushTimer.Count(),
		time.Duration(flushTimer.Mean()),
		time.Duration(flushTimer.Percentile(0.99)))

	// aggregate the statistics the flushes just collected
	total := mvcc.NewUserProperties()
	for _, t := range benchTables(eng) {
		if props, err := mvcc.DecodeUserProperties(t); err == nil {
			total.Add(&props)
		}
	}
	fmt.Printf("stats: keys=%d versions=%d ts=[%d,%d]\n",
		total.NumKeys, total.NumVersions(), total.MinTS, total.MaxTS)

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		results := map[string]gometrics.Timer{"write": writeTimer, "flush": flushTimer}
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]gometrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "Mean (ns)", "P99 (ns)",
		"Keys", "ValueSize", "Versions",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			strconv.FormatFloat(timer.Mean(), 'f', 0, 64),
			strconv.FormatFloat(timer.Percentile(0.99), 'f', 0, 64),
			strconv.Itoa(benchKeys),
			strconv.Itoa(benchValueSize),
			strconv.Itoa(benchVersions),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %v", err)
		}
	}
	return nil
}

// benchTables returns the flushed tables of the bench column family.
func benchTables(eng engine.Engine) []*cedar.Table {
	type tabler interface {
		Tables(string) ([]*cedar.Table, error)
	}
	if e, ok := eng.(tabler); ok {
		if tables, err := e.Tables("bench"); err == nil {
			return tables
		}
	}
	return nil
}
