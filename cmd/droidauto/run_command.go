package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/executor"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

func runCase(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("run")
	asJSON := fs.Bool("json", false, "以 JSON 输出结果")
	noOCR := fs.Bool("no-ocr", false, "不加载 OCR (用例不含文字步骤时)")
	noHistory := fs.Bool("no-history", false, "不保存执行记录")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("用法: run [-json] [-no-ocr] [-no-history] <case.yaml>")
	}

	c, err := executor.LoadCase(fs.Arg(0))
	if err != nil {
		return err
	}
	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	loc, err := app.Locator()
	if err != nil {
		return err
	}
	var recognizer *ocr.TextRecognizer
	if !*noOCR {
		if recognizer, err = app.Recognizer(); err != nil {
			return fmt.Errorf("%w (可使用 -no-ocr 跳过)", err)
		}
	}

	startedAt := time.Now()
	res := executor.NewExecutor(device, loc, recognizer).Run(ctx, c)
	if !*noHistory {
		recordRun(ctx, app, fs.Arg(0), startedAt, res)
	}

	if *asJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, s := range res.Steps {
			fmt.Printf("%-8s %-16s %-14s %5dms %s\n", s.Status, s.StepID, s.Type, s.DurationMs, s.Error)
		}
		fmt.Printf("[INFO] %s: %s passed=%d failed=%d skipped=%d\n", res.Name, res.Status, res.Passed, res.Failed, res.Skipped)
	}

	if res.Status != executor.StatusSuccess {
		return fmt.Errorf("用例未通过: %s", res.Status)
	}
	return nil
}

// recordRun 保存执行记录，失败只记日志不影响用例结果
func recordRun(ctx context.Context, app *App, source string, startedAt time.Time, res *executor.CaseResult) {
	store, err := app.History()
	if err != nil {
		logger.Warn("打开执行记录库失败: %v", err)
		return
	}
	id, err := store.Record(context.WithoutCancel(ctx), source, startedAt, res)
	if err != nil {
		logger.Warn("%v", err)
		return
	}
	logger.Info("执行记录: %s", id)
}

func runHistory(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("history")
	limit := fs.Int("n", 20, "显示条数 (0 表示全部)")
	show := fs.String("show", "", "显示指定记录的步骤明细")
	remove := fs.String("delete", "", "删除指定记录")
	prune := fs.Int("prune", -1, "只保留最近 N 条记录")
	asJSON := fs.Bool("json", false, "以 JSON 输出")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := app.History()
	if err != nil {
		return err
	}

	switch {
	case *remove != "":
		if err := store.Delete(ctx, *remove); err != nil {
			return err
		}
		fmt.Printf("[INFO] 已删除 %s\n", *remove)
		return nil
	case *prune >= 0:
		n, err := store.Prune(ctx, *prune)
		if err != nil {
			return err
		}
		fmt.Printf("[INFO] 已清理 %d 条记录\n", n)
		return nil
	case *show != "":
		run, err := store.Get(ctx, *show)
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(run.Result)
		}
		fmt.Printf("%s  %s  %s  %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime), run.Result.Name, run.Result.Status)
		for _, s := range run.Result.Steps {
			pos := ""
			if s.Position != nil {
				pos = fmt.Sprintf("(%d,%d)", s.Position.X, s.Position.Y)
			}
			fmt.Printf("  %-8s %-16s %-14s %-10s %5dms %s\n", s.Status, s.StepID, s.Type, pos, s.DurationMs, s.Error)
		}
		return nil
	}

	runs, err := store.List(ctx, *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("[INFO] 暂无执行记录")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\t开始时间\t用例\t状态\t通过/失败/跳过\t耗时")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d/%d\t%dms\n", r.ID, r.StartedAt.Local().Format(time.DateTime),
			r.Result.Name, r.Result.Status, r.Result.Passed, r.Result.Failed, r.Result.Skipped, r.Result.DurationMs)
	}
	return w.Flush()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
