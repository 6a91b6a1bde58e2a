package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
)

var (
	resolveCode   int
	resolveID     int
	resolveParams map[string]string
	resolveCheck  bool
	resolveList   bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "显示命令码解析出的shell命令",
	Long: `按当前配置解析命令码和参数，输出将要执行的shell命令、上传文件和instant标记，不执行任何命令。

示例:
  stream-agent resolve --code 1 --param duration=30 --param width=50 --param height=50
  stream-agent resolve --list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := catalog.New(cfg)
		if err != nil {
			return err
		}

		if resolveList {
			return printCatalog(cat)
		}
		if !cmd.Flags().Changed("code") {
			return fmt.Errorf("--code is required unless --list is given")
		}

		d := cat.Resolve(modelComm.Command{ID: resolveID, Cmd: resolveCode, Params: parseParams(resolveParams)})
		shell, ok := d.ShellCommand.Get()
		if !ok {
			pterm.Warning.Printf("Unknown command code %d, command is inert\n", resolveCode)
			return nil
		}

		data := pterm.TableData{
			{"Field", "Value"},
			{"Name", cat.Name(d.Code)},
			{"Shell", shell},
			{"Upload", d.UploadPath},
			{"Instant", strconv.FormatBool(d.Instant)},
		}
		if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		if resolveCheck {
			if err := process.Lookup(shell); err != nil {
				pterm.Error.Println(err)
				return err
			}
			pterm.Success.Println("All executables found in PATH")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().IntVar(&resolveCode, "code", 0, "命令码")
	resolveCmd.Flags().IntVar(&resolveID, "id", 0, "命令ID")
	resolveCmd.Flags().StringToStringVar(&resolveParams, "param", nil, "命令参数 key=value，可重复")
	resolveCmd.Flags().BoolVar(&resolveCheck, "check", false, "检查命令中的程序是否存在")
	resolveCmd.Flags().BoolVar(&resolveList, "list", false, "列出所有已知命令")
}

// parseParams 把命令行参数转换为与服务端JSON一致的类型
func parseParams(raw map[string]string) map[string]interface{} {
	params := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if b, err := strconv.ParseBool(v); err == nil {
			params[k] = b
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params[k] = f
			continue
		}
		params[k] = v
	}
	return params
}

func printCatalog(cat *catalog.Catalog) error {
	data := pterm.TableData{{"Code", "Name", "Instant", "Template"}}
	for _, e := range cat.Entries() {
		data = append(data, []string{
			strconv.Itoa(int(e.Code)),
			e.Name,
			strconv.FormatBool(e.Instant),
			strings.TrimSpace(e.Template),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
