package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/maildoc/config"
)

type ruleFlags struct {
	senders         []string
	subjectKeywords []string
	bodyKeywords    []string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.senders, "sender", nil, "Sender address or fragment")
	cmd.Flags().StringSliceVar(&f.subjectKeywords, "in-subject", nil, "Keyword matched against the subject")
	cmd.Flags().StringSliceVar(&f.bodyKeywords, "in-body", nil, "Keyword matched against the decoded body")
}

func (f *ruleFlags) empty() bool {
	return len(f.senders) == 0 && len(f.subjectKeywords) == 0 && len(f.bodyKeywords) == 0
}

func newFiltersCmd() *cobra.Command {
	filtersCmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage the ignore rules in the --filters file",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the current ignore rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openFilters(cmd)
			if err != nil {
				return err
			}
			printFilters(cmd.OutOrStdout(), m.GetFilters())
			return nil
		},
	}

	var add ruleFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add ignore rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editFilters(cmd, &add, (*config.Manager).AddIgnoreSender,
				(*config.Manager).AddIgnoreKeywordInSubject, (*config.Manager).AddIgnoreKeywordInBody)
		},
	}
	add.register(addCmd)

	var remove ruleFlags
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove ignore rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editFilters(cmd, &remove, (*config.Manager).RemoveIgnoreSender,
				(*config.Manager).RemoveIgnoreKeywordInSubject, (*config.Manager).RemoveIgnoreKeywordInBody)
		},
	}
	remove.register(removeCmd)

	filtersCmd.AddCommand(listCmd, addCmd, removeCmd)
	return filtersCmd
}

func openFilters(cmd *cobra.Command) (*config.Manager, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.FiltersFile == "" {
		return nil, errors.New("--filters is required")
	}
	return loadFilters(cfg)
}

type editFunc func(*config.Manager, string) error

func editFilters(cmd *cobra.Command, rules *ruleFlags, sender, subject, body editFunc) error {
	if rules.empty() {
		return errors.New("nothing to change: pass --sender, --in-subject or --in-body")
	}
	m, err := openFilters(cmd)
	if err != nil {
		return err
	}
	for _, edit := range []struct {
		values []string
		fn     editFunc
	}{
		{rules.senders, sender},
		{rules.subjectKeywords, subject},
		{rules.bodyKeywords, body},
	} {
		for _, v := range edit.values {
			if err := edit.fn(m, v); err != nil {
				return fmt.Errorf("saving filters: %w", err)
			}
		}
	}
	printFilters(cmd.OutOrStdout(), m.GetFilters())
	return nil
}

func printFilters(out io.Writer, f config.Filters) {
	section := func(title string, values []string) {
		if len(values) == 0 {
			fmt.Fprintf(out, "%s: (none)\n", title)
			return
		}
		fmt.Fprintf(out, "%s: %s\n", title, strings.Join(values, ", "))
	}
	section("Ignored senders", f.IgnoreSenders)
	section("Ignored subject keywords", f.IgnoreKeywordsInSubject)
	section("Ignored body keywords", f.IgnoreKeywordsInBody)
}
