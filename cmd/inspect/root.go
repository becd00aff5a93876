package inspect

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ValentinKolb/mvKV/cmd/util"
	"github.com/ValentinKolb/mvKV/lib/engine/cedar"
	"github.com/ValentinKolb/mvKV/lib/mvcc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	InspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Show column families and MVCC statistics of an engine directory",
		Long: util.WrapString("inspect lists the column families recorded in the engine " +
			"manifest and decodes the multi-version statistics persisted with every " +
			"table file, without opening the engine."),
		RunE:    run,
		PreRunE: util.InitConfig,
	}
)

func init() {
	key := "cf"
	InspectCmd.Flags().String(key, "", util.WrapString("only inspect this column family"))
}

func run(_ *cobra.Command, _ []string) error {
	path := util.GetPath()

	cfs, err := cedar.Driver{}.ListColumnFamilies(path)
	if err != nil {
		return fmt.Errorf("list column families: %w", err)
	}
	sort.Strings(cfs)
	fmt.Printf("engine at %s\ncolumn families: %v\n", path, cfs)

	only := viper.GetString("cf")
	for _, cf := range cfs {
		if only != "" && cf != only {
			continue
		}
		if err := inspectColumnFamily(path, cf); err != nil {
			return err
		}
	}
	return nil
}

// inspectColumnFamily decodes and aggregates the statistics of every table
// file of one column family.
func inspectColumnFamily(path, cf string) error {
	files, err := filepath.Glob(filepath.Join(path, cf, "*.sst"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	fmt.Printf("\n[%s] %d table file(s)\n", cf, len(files))

	total := mvcc.NewUserProperties()
	for _, file := range files {
		table, err := cedar.OpenTable(file)
		if err != nil {
			return fmt.Errorf("open table %s: %w", file, err)
		}
		props, err := mvcc.DecodeUserProperties(table)
		if err != nil {
			fmt.Printf("  %s: no MVCC statistics (%v)\n", filepath.Base(file), err)
			continue
		}
		fmt.Printf("  %s: entries=%d keys=%d versions=%d ts=[%d,%d] corrupts=%d\n",
			filepath.Base(file), table.Len(), props.NumKeys, props.NumVersions(),
			props.MinTS, props.MaxTS, props.NumCorrupts)
		total.Add(&props)
	}

	if total.NumKeys > 0 {
		fmt.Printf("  total: keys=%d puts=%d deletes=%d ts=[%d,%d] corrupts=%d\n",
			total.NumKeys, total.NumPuts, total.NumDeletes,
			total.MinTS, total.MaxTS, total.NumCorrupts)
	}
	return nil
}
