package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	dbf "github.com/Ulysses-Xu/dbfcodec"
)

type Configuration struct {
	Encoding string
	Columns  string
	Limit    int
	Verbose  bool
	Path     string
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	config := parseArguments()

	level := slog.LevelWarn
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := dump(config, logger); err != nil {
		logger.Error("dump failed", "path", config.Path, "err", err)
		os.Exit(1)
	}
}

func parseArguments() Configuration {
	var config Configuration
	flag.StringVar(&config.Encoding, "encoding", "", "Character field encoding (default: header language driver, else utf-8)")
	flag.StringVar(&config.Columns, "fields", "", "Comma-separated columns to print (default: all)")
	flag.IntVar(&config.Limit, "limit", 50, "Maximum rows to print, 0 for all")
	flag.BoolVar(&config.Verbose, "v", false, "Debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.dbf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	config.Path = flag.Arg(0)
	return config
}

func dump(config Configuration, logger *slog.Logger) error {
	opts := []dbf.Option{dbf.WithLogger(logger)}
	if config.Encoding != "" {
		opts = append(opts, dbf.WithEncoding(config.Encoding))
	}
	r, err := dbf.Open(config.Path, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	if config.Columns != "" {
		names := strings.Split(config.Columns, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		if err := r.Select(names...); err != nil {
			return err
		}
	}

	h := r.Header()
	fmt.Println(titleStyle.Render(config.Path))
	fmt.Println(labelStyle.Render(fmt.Sprintf("version 0x%02X  updated %s  records %d  record length %d  language driver 0x%02X",
		h.Version, h.LastUpdate, h.RecordCount, h.RecordLength, h.LanguageDriver)))

	headers := []string{"#"}
	for _, f := range r.SelectedFields() {
		headers = append(headers, f.String())
	}

	var rows [][]string
	var index int
	for rec, err := range r.Records() {
		if err != nil {
			return err
		}
		if config.Limit > 0 && index >= config.Limit {
			break
		}
		mark := fmt.Sprint(index)
		if rec.Deleted {
			mark = deletedStyle.Render(mark + "*")
		}
		row := []string{mark}
		for _, v := range rec.Values {
			if v.Valid() {
				row = append(row, v.String())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
		index++
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...)
	fmt.Println(t.String())
	if config.Limit > 0 && uint32(index) < h.RecordCount {
		fmt.Println(labelStyle.Render(fmt.Sprintf("... %d more", h.RecordCount-uint32(index))))
	}
	return nil
}
